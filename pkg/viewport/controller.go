package viewport

import (
	"math"

	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/geom"
)

// Event names a performed viewport operation. Events carry no payload;
// observers read the view-box from the store.
type Event string

// Viewport events.
const (
	EventCenter Event = "center"
	EventZoom   Event = "zoom"
	EventPan    Event = "pan"
)

// DefaultZoomSpeed is the exponent step of one wheel notch.
const DefaultZoomSpeed = 0.1

// BoundsFunc returns the bounding box of the rendered content in local
// coordinates. ok is false when nothing is rendered.
type BoundsFunc func() (geom.Rect, bool)

// Config tunes a Controller.
type Config struct {
	// ZoomSpeed scales wheel input: one notch zooms by exp(±ZoomSpeed).
	ZoomSpeed float64

	// MinScale and MaxScale bound container width / view-box width.
	// Zero disables the respective bound.
	MinScale float64
	MaxScale float64
}

// Controller mutates the view-box in a Store.
type Controller struct {
	store  *Store
	proj   *Projection
	mapper *Mapper
	bounds BoundsFunc
	cfg    Config
	events listeners[Event]
}

// NewController creates a controller for store projected through proj.
// bounds may be nil, in which case Center is a no-op.
func NewController(store *Store, proj *Projection, bounds BoundsFunc, cfg Config) *Controller {
	if cfg.ZoomSpeed <= 0 {
		cfg.ZoomSpeed = DefaultZoomSpeed
	}
	return &Controller{
		store:  store,
		proj:   proj,
		mapper: NewMapper(proj),
		bounds: bounds,
		cfg:    cfg,
	}
}

// Store returns the backing store.
func (c *Controller) Store() *Store { return c.store }

// Mapper returns the pointer mapper.
func (c *Controller) Mapper() *Mapper { return c.mapper }

// OnEvent registers fn for performed operations.
func (c *Controller) OnEvent(fn func(Event)) (unsubscribe func()) {
	return c.events.add(fn)
}

// SetInitialViewBox sizes the view-box to the container at the origin.
// A zero-sized container yields a degenerate box that every other
// operation ignores until the next call.
func (c *Controller) SetInitialViewBox() ViewBox {
	w, h := c.proj.Size()
	vb := ViewBox{Width: w, Height: h}
	c.store.Set(vb)
	return vb
}

// PanBy moves the content by (dx, dy) local units, i.e. the view-box
// origin moves by (-dx, -dy).
func (c *Controller) PanBy(dx, dy float64) bool {
	if !finite(dx) || !finite(dy) || (dx == 0 && dy == 0) {
		return false
	}
	_, ok := c.store.Update(func(vb ViewBox) (ViewBox, bool) {
		if !vb.Valid() {
			return vb, false
		}
		vb.X -= dx
		vb.Y -= dy
		return vb, true
	})
	if ok {
		c.events.emit(EventPan)
	}
	return ok
}

// PanX pans horizontally.
func (c *Controller) PanX(dx float64) bool { return c.PanBy(dx, 0) }

// PanY pans vertically.
func (c *Controller) PanY(dy float64) bool { return c.PanBy(0, dy) }

// PanTo moves the view-box origin to (x, y).
func (c *Controller) PanTo(x, y float64) bool {
	if !finite(x) || !finite(y) {
		return false
	}
	_, ok := c.store.Update(func(vb ViewBox) (ViewBox, bool) {
		if !vb.Valid() {
			return vb, false
		}
		vb.X, vb.Y = x, y
		return vb, true
	})
	if ok {
		c.events.emit(EventPan)
	}
	return ok
}

// ZoomBy scales the view-box size by factor, keeping its origin. A factor
// above 1 shows more content (zoom out). Non-positive, NaN and infinite
// factors are rejected.
func (c *Controller) ZoomBy(factor float64) (bool, error) {
	if err := errors.ValidateZoomFactor(factor); err != nil {
		return false, err
	}
	_, ok := c.store.Update(func(vb ViewBox) (ViewBox, bool) {
		if !vb.Valid() || !c.scaleAllowed(vb.Width*factor) {
			return vb, false
		}
		vb.Width *= factor
		vb.Height *= factor
		return vb, true
	})
	if ok {
		c.events.emit(EventZoom)
	}
	return ok, nil
}

// ZoomAt zooms around the device point p in response to a wheel delta.
// Only the sign of deltaY matters: negative zooms in. The local point under
// p is the same before and after the zoom. ZoomAt returns the applied
// factor and false when nothing changed.
func (c *Controller) ZoomAt(p geom.Point, deltaY float64) (float64, bool) {
	if deltaY == 0 || math.IsNaN(deltaY) {
		return 0, false
	}
	dir := 1.0
	if deltaY < 0 {
		dir = -1
	}
	factor := math.Exp(dir * c.cfg.ZoomSpeed)

	// The anchor is mapped through the pre-zoom view-box.
	anchor, ok := c.mapper.MapPointerToLocal(p)
	if !ok {
		return 0, false
	}

	_, ok = c.store.Update(func(vb ViewBox) (ViewBox, bool) {
		if !vb.Valid() || !c.scaleAllowed(vb.Width*factor) {
			return vb, false
		}
		vb.Width *= factor
		vb.Height *= factor
		vb.X -= (anchor.X - vb.X) * (factor - 1)
		vb.Y -= (anchor.Y - vb.Y) * (factor - 1)
		return vb, true
	})
	if !ok {
		return 0, false
	}
	c.events.emit(EventZoom)
	return factor, true
}

// Center pans so that the center of the rendered content coincides with
// the center of the view-box. Without content, or when the content has
// no area, it does nothing.
func (c *Controller) Center() bool {
	if c.bounds == nil {
		return false
	}
	r, ok := c.bounds()
	if !ok || r.Empty() {
		return false
	}
	target := r.Center()
	if !target.Finite() {
		return false
	}
	_, ok = c.store.Update(func(vb ViewBox) (ViewBox, bool) {
		if !vb.Valid() {
			return vb, false
		}
		vb.X = target.X - vb.Width/2
		vb.Y = target.Y - vb.Height/2
		return vb, true
	})
	if ok {
		c.events.emit(EventCenter)
	}
	return ok
}

// Scale returns container width / view-box width, or 0 when undefined.
func (c *Controller) Scale() float64 {
	w, _ := c.proj.Size()
	vb := c.store.Get()
	if !vb.Valid() || w <= 0 {
		return 0
	}
	return w / vb.Width
}

func (c *Controller) scaleAllowed(newWidth float64) bool {
	if c.cfg.MinScale <= 0 && c.cfg.MaxScale <= 0 {
		return true
	}
	w, _ := c.proj.Size()
	if w <= 0 || newWidth <= 0 {
		return false
	}
	s := w / newWidth
	if c.cfg.MinScale > 0 && s < c.cfg.MinScale {
		return false
	}
	if c.cfg.MaxScale > 0 && s > c.cfg.MaxScale {
		return false
	}
	return true
}

// Close drops all event observers.
func (c *Controller) Close() {
	c.events.clear()
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
