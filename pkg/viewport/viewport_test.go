package viewport

import (
	"math"
	"testing"

	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/geom"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func newTestController(w, h float64, bounds BoundsFunc, cfg Config) *Controller {
	store := NewStore(ViewBox{})
	c := NewController(store, NewProjection(store, w, h), bounds, cfg)
	c.SetInitialViewBox()
	return c
}

func TestStoreSubscribe(t *testing.T) {
	s := NewStore(ViewBox{Width: 10, Height: 10})
	var got []ViewBox
	unsub := s.Subscribe(func(vb ViewBox) { got = append(got, vb) })

	s.Set(ViewBox{Width: 20, Height: 20})
	s.Update(func(vb ViewBox) (ViewBox, bool) { vb.X = 5; return vb, true })
	s.Update(func(vb ViewBox) (ViewBox, bool) { return vb, false })

	if len(got) != 2 {
		t.Fatalf("notifications = %d, want 2", len(got))
	}
	if got[1].X != 5 || got[1].Width != 20 {
		t.Errorf("second notification = %+v", got[1])
	}

	unsub()
	unsub()
	s.Set(ViewBox{Width: 1, Height: 1})
	if len(got) != 2 {
		t.Error("unsubscribed callback still called")
	}
}

func TestViewBoxValid(t *testing.T) {
	tests := []struct {
		vb   ViewBox
		want bool
	}{
		{ViewBox{Width: 1, Height: 1}, true},
		{ViewBox{Width: 0, Height: 1}, false},
		{ViewBox{Width: 1, Height: -1}, false},
		{ViewBox{X: math.NaN(), Width: 1, Height: 1}, false},
		{ViewBox{Width: math.Inf(1), Height: 1}, false},
	}
	for _, tt := range tests {
		if got := tt.vb.Valid(); got != tt.want {
			t.Errorf("%+v.Valid() = %v, want %v", tt.vb, got, tt.want)
		}
	}
	if s := (ViewBox{X: -1.5, Y: 2, Width: 800, Height: 600}).String(); s != "-1.5 2 800 600" {
		t.Errorf("String() = %q", s)
	}
}

func TestMapperInvertsProjection(t *testing.T) {
	store := NewStore(ViewBox{X: 100, Y: 50, Width: 400, Height: 300})
	proj := NewProjection(store, 800, 600)
	proj.SetOffset(geom.Pt(10, 20))
	m := NewMapper(proj)

	local, ok := m.MapPointerToLocal(geom.Pt(10, 20))
	if !ok || !near(local.X, 100) || !near(local.Y, 50) {
		t.Errorf("top-left maps to %v, %v", local, ok)
	}
	local, ok = m.MapPointerToLocal(geom.Pt(810, 620))
	if !ok || !near(local.X, 500) || !near(local.Y, 350) {
		t.Errorf("bottom-right maps to %v, %v", local, ok)
	}

	// The mapping follows view-box changes.
	store.Set(ViewBox{Width: 800, Height: 600})
	local, _ = m.MapPointerToLocal(geom.Pt(410, 320))
	if !near(local.X, 400) || !near(local.Y, 300) {
		t.Errorf("after reset maps to %v", local)
	}
}

func TestMapperDegenerate(t *testing.T) {
	store := NewStore(ViewBox{})
	m := NewMapper(NewProjection(store, 0, 0))
	if _, ok := m.MapPointerToLocal(geom.Pt(1, 1)); ok {
		t.Error("zero-sized container should not map")
	}
	store.Set(ViewBox{Width: 10, Height: 10})
	if _, ok := NewMapper(NewProjection(store, 10, 10)).MapPointerToLocal(geom.Pt(math.NaN(), 0)); ok {
		t.Error("NaN pointer should not map")
	}
}

func TestSetInitialViewBox(t *testing.T) {
	c := newTestController(800, 600, nil, Config{})
	if vb := c.Store().Get(); vb != (ViewBox{Width: 800, Height: 600}) {
		t.Errorf("initial view-box = %+v", vb)
	}

	zero := newTestController(0, 0, nil, Config{})
	if zero.Store().Get().Valid() {
		t.Error("zero container should give a degenerate view-box")
	}
	if zero.PanBy(1, 1) {
		t.Error("pan on degenerate view-box should be a no-op")
	}
	if _, ok := zero.ZoomAt(geom.Pt(0, 0), -1); ok {
		t.Error("zoom on degenerate view-box should be a no-op")
	}
}

func TestPanComposition(t *testing.T) {
	c := newTestController(800, 600, nil, Config{})
	c.PanBy(10, 20)
	c.PanBy(-3, 5)
	c.PanX(1)
	c.PanY(-2)
	vb := c.Store().Get()
	if vb.X != -8 || vb.Y != -23 {
		t.Errorf("origin = (%v,%v), want (-8,-23)", vb.X, vb.Y)
	}
	if vb.Width != 800 || vb.Height != 600 {
		t.Error("pan should not change size")
	}

	before := c.Store().Get()
	c.PanBy(12.5, -7.25)
	c.PanBy(-12.5, 7.25)
	if c.Store().Get() != before {
		t.Errorf("inverse pans did not restore %+v", before)
	}

	c.PanTo(5, 6)
	if vb := c.Store().Get(); vb.X != 5 || vb.Y != 6 {
		t.Errorf("PanTo = %+v", vb)
	}
}

func TestZoomBy(t *testing.T) {
	c := newTestController(800, 600, nil, Config{})
	if ok, err := c.ZoomBy(0.5); !ok || err != nil {
		t.Fatalf("ZoomBy(0.5) = %v, %v", ok, err)
	}
	if vb := c.Store().Get(); vb.Width != 400 || vb.Height != 300 || vb.X != 0 {
		t.Errorf("after zoom = %+v", vb)
	}

	for _, f := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := c.ZoomBy(f)
		if errors.GetCode(err) != errors.ErrCodeInvalidZoomFactor {
			t.Errorf("ZoomBy(%v) code = %s", f, errors.GetCode(err))
		}
	}
}

func TestZoomAtKeepsAnchor(t *testing.T) {
	c := newTestController(800, 600, nil, Config{ZoomSpeed: 0.25})
	c.PanBy(-37, 12)
	p := geom.Pt(123, 456)

	before, _ := c.Mapper().MapPointerToLocal(p)
	for _, dy := range []float64{-1, -3, 2, -100} {
		if _, ok := c.ZoomAt(p, dy); !ok {
			t.Fatalf("ZoomAt(%v) not applied", dy)
		}
		after, _ := c.Mapper().MapPointerToLocal(p)
		if !near(before.X, after.X) || !near(before.Y, after.Y) {
			t.Errorf("anchor moved from %v to %v", before, after)
		}
	}
}

func TestWheelScenario(t *testing.T) {
	c := newTestController(800, 600, nil, Config{ZoomSpeed: 0.1})
	var events []Event
	c.OnEvent(func(e Event) { events = append(events, e) })

	f, ok := c.ZoomAt(geom.Pt(400, 300), -100)
	if !ok {
		t.Fatal("zoom not applied")
	}
	if !near(f, math.Exp(-0.1)) {
		t.Errorf("factor = %v, want exp(-0.1)", f)
	}
	vb := c.Store().Get()
	if !near(vb.Width, 800*math.Exp(-0.1)) || !near(vb.Height, 600*math.Exp(-0.1)) {
		t.Errorf("size = %vx%v", vb.Width, vb.Height)
	}
	if ctr := vb.Center(); !near(ctr.X, 400) || !near(ctr.Y, 300) {
		t.Errorf("center moved to %v", ctr)
	}
	if len(events) != 1 || events[0] != EventZoom {
		t.Errorf("events = %v, want [zoom]", events)
	}

	if _, ok := c.ZoomAt(geom.Pt(400, 300), 0); ok {
		t.Error("zero delta should be a no-op")
	}
}

func TestZoomLimits(t *testing.T) {
	c := newTestController(100, 100, nil, Config{ZoomSpeed: 0.5, MinScale: 0.5, MaxScale: 2})
	n := 0
	for range 10 {
		if _, ok := c.ZoomAt(geom.Pt(50, 50), -1); ok {
			n++
		}
	}
	if s := c.Scale(); s > 2+eps {
		t.Errorf("scale %v exceeds max", s)
	}
	if n == 0 || n == 10 {
		t.Errorf("applied %d zoom-ins, want some but not all", n)
	}
	if ok, _ := c.ZoomBy(100); ok {
		t.Error("ZoomBy beyond MinScale should be a no-op")
	}
}

func TestCenter(t *testing.T) {
	bounds := geom.Rect{X: 1000, Y: 2000, Width: 200, Height: 100}
	has := true
	c := newTestController(800, 600, func() (geom.Rect, bool) { return bounds, has }, Config{})
	var events []Event
	c.OnEvent(func(e Event) { events = append(events, e) })

	if !c.Center() {
		t.Fatal("Center not applied")
	}
	vb := c.Store().Get()
	if ctr := vb.Center(); !near(ctr.X, 1100) || !near(ctr.Y, 2050) {
		t.Errorf("view-box center = %v, want (1100,2050)", ctr)
	}
	if vb.Width != 800 {
		t.Error("Center should not zoom")
	}

	has = false
	if c.Center() {
		t.Error("Center without content should be a no-op")
	}
	if len(events) != 1 || events[0] != EventCenter {
		t.Errorf("events = %v", events)
	}
}

func TestCenterIgnoresEmptyBounds(t *testing.T) {
	tests := []struct {
		name   string
		bounds geom.Rect
	}{
		{name: "zero size", bounds: geom.Rect{X: 500, Y: 500}},
		{name: "zero width", bounds: geom.Rect{X: 500, Y: 500, Height: 40}},
		{name: "zero height", bounds: geom.Rect{X: 500, Y: 500, Width: 40}},
		{name: "negative size", bounds: geom.Rect{X: 500, Y: 500, Width: -10, Height: -10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(800, 600, func() (geom.Rect, bool) { return tt.bounds, true }, Config{})
			var events []Event
			c.OnEvent(func(e Event) { events = append(events, e) })
			before := c.Store().Get()

			if c.Center() {
				t.Error("Center applied to empty content")
			}
			if got := c.Store().Get(); got != before {
				t.Errorf("view-box = %+v, want %+v", got, before)
			}
			if len(events) != 0 {
				t.Errorf("events = %v, want none", events)
			}
		})
	}
}

func TestDragSession(t *testing.T) {
	c := newTestController(800, 600, nil, Config{})
	c.ZoomBy(0.5) // 2 device px per local unit
	d := NewDragSession(c)

	if _, ok := d.Move(geom.Pt(10, 10)); ok {
		t.Error("Move while idle should be ignored")
	}

	grab := geom.Pt(200, 100)
	grabbed, _ := c.Mapper().MapPointerToLocal(grab)
	if !d.Start(grab) || d.State() != Dragging {
		t.Fatal("Start failed")
	}
	for _, p := range []geom.Point{{X: 220, Y: 110}, {X: 300, Y: 90}, {X: 150, Y: 400}} {
		d.Move(p)
		under, _ := c.Mapper().MapPointerToLocal(p)
		if !near(under.X, grabbed.X) || !near(under.Y, grabbed.Y) {
			t.Errorf("at %v local = %v, want grabbed %v", p, under, grabbed)
		}
	}
	// Net pointer motion (-50,300) at scale 2 moves the content by (-25,150).
	if vb := c.Store().Get(); !near(vb.X, 25) || !near(vb.Y, -150) {
		t.Errorf("view-box after drag = %+v", vb)
	}

	d.End()
	if _, ok := d.Move(geom.Pt(0, 0)); ok || d.State() != DragIdle {
		t.Error("session should be idle after End")
	}
}
