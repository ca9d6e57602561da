package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/geom"
	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/source"
	"github.com/matzehuels/graphview/pkg/view"
	"github.com/matzehuels/graphview/pkg/viewport"
)

// Client message types.
const (
	msgWheel       = "wheel"
	msgPointerDown = "pointerdown"
	msgPointerMove = "pointermove"
	msgPointerUp   = "pointerup"
	msgCenter      = "center"
	msgResize      = "resize"
	msgReset       = "reset"
)

// Server message types.
const (
	msgRender  = "render"
	msgViewBox = "viewbox"
	msgError   = "error"
)

// inMessage is an input event from the browser. Coordinates are in
// container pixels.
type inMessage struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type outMessage struct {
	Type    string `json:"type"`
	SVG     string `json:"svg,omitempty"`
	ViewBox string `json:"viewBox,omitempty"`
	Message string `json:"message,omitempty"`
}

type session struct {
	id     string
	conn   *websocket.Conn
	view   *view.View[graph.Attrs, graph.Attrs]
	src    *source.Static[graph.Attrs, graph.Attrs]
	logger *log.Logger

	send      chan outMessage
	done      chan struct{}
	closeOnce sync.Once
}

func (s *Server) newSession(conn *websocket.Conn) (*session, error) {
	id := newSessionID()
	opts := s.opts
	opts.Logger = s.logger.With("session", id[:8])

	v, err := view.New(s.engine, s.tpl, opts)
	if err != nil {
		return nil, err
	}
	sess := &session{
		id:     id,
		conn:   conn,
		view:   v,
		src:    s.fanout.Subscribe(),
		logger: opts.Logger,
		send:   make(chan outMessage, sendBuffer),
		done:   make(chan struct{}),
	}

	v.Subscribe(func(e view.Event) {
		if e == view.EventLayout {
			sess.enqueue(outMessage{Type: msgRender, SVG: string(v.SVG()), ViewBox: v.ViewBox().String()})
		}
	})
	v.SubscribeViewBox(func(vb viewport.ViewBox) {
		sess.enqueue(outMessage{Type: msgViewBox, ViewBox: vb.String()})
	})
	return sess, nil
}

// run drives the session until the connection or ctx ends.
func (sess *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer sess.close()

	go sess.writeLoop()

	reactor := view.NewReactor(sess.view, source.Source[graph.Attrs, graph.Attrs](sess.src))
	if err := reactor.Mount(ctx); err != nil {
		sess.logger.Warn("initial layout failed", "err", err)
		sess.enqueue(outMessage{Type: msgError, Message: errors.UserMessage(err)})
	}
	go func() {
		if err := reactor.Run(ctx); err != nil && ctx.Err() == nil {
			sess.logger.Warn("reactor stopped", "err", err)
		}
	}()

	sess.readLoop(ctx)
}

func (sess *session) readLoop(ctx context.Context) {
	sess.conn.SetReadLimit(maxMessageSize)
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sess.logger.Debug("unexpected close", "err", err)
			}
			return
		}
		var msg inMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.logger.Debug("bad message", "err", err)
			continue
		}
		sess.handle(ctx, msg)
	}
}

func (sess *session) handle(ctx context.Context, msg inMessage) {
	v := sess.view
	p := geom.Pt(msg.X, msg.Y)
	switch msg.Type {
	case msgWheel:
		v.Wheel(ctx, p, msg.DeltaY)
	case msgPointerDown:
		v.PointerDown(ctx, p)
	case msgPointerMove:
		v.PointerMove(ctx, p)
	case msgPointerUp:
		v.PointerUp(ctx)
	case msgCenter:
		v.Center(ctx)
	case msgResize:
		if msg.Width > 0 && msg.Height > 0 {
			v.Resize(msg.Width, msg.Height)
		}
	case msgReset:
		v.Reset()
		v.Center(ctx)
	default:
		sess.logger.Debug("unknown message", "type", msg.Type)
	}
}

// enqueue never blocks. Messages are dropped when the client falls behind.
func (sess *session) enqueue(msg outMessage) {
	select {
	case sess.send <- msg:
	case <-sess.done:
	default:
		sess.logger.Warn("send buffer full, dropping message", "type", msg.Type)
	}
}

func (sess *session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-sess.send:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteJSON(msg); err != nil {
				sess.logger.Debug("write failed", "err", err)
				sess.close()
				return
			}
		case <-ticker.C:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sess.close()
				return
			}
		case <-sess.done:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = sess.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (sess *session) close() {
	sess.closeOnce.Do(func() {
		close(sess.done)
		_ = sess.view.Close()
		// Unblocks ReadMessage after the write loop sent the close frame.
		go func() {
			time.Sleep(100 * time.Millisecond)
			_ = sess.conn.Close()
		}()
	})
}
