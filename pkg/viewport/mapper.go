package viewport

import (
	"sync"

	"github.com/matzehuels/graphview/pkg/geom"
)

// Screen exposes the current local → device transform of a surface. ok is
// false while the surface is not laid out (zero-sized or degenerate).
type Screen interface {
	ScreenCTM() (ctm geom.Matrix, ok bool)
}

// Mapper converts device coordinates to local coordinates.
type Mapper struct {
	screen Screen
}

// NewMapper returns a mapper reading the transform from screen.
func NewMapper(screen Screen) *Mapper {
	return &Mapper{screen: screen}
}

// MapPointerToLocal maps a device point into local coordinates. The
// transform is re-read on every call, so the result always reflects the
// current view-box. ok is false when no invertible transform is available.
func (m *Mapper) MapPointerToLocal(p geom.Point) (geom.Point, bool) {
	if !p.Finite() {
		return geom.Point{}, false
	}
	ctm, ok := m.screen.ScreenCTM()
	if !ok {
		return geom.Point{}, false
	}
	inv, ok := ctm.Invert()
	if !ok {
		return geom.Point{}, false
	}
	return inv.Apply(p), true
}

// Projection is the Screen of an SVG element whose view-box is scaled
// non-uniformly to fill its container (preserveAspectRatio="none").
//
// The transform is translate(offset) · scale(container / view-box) ·
// translate(-view-box origin).
type Projection struct {
	store *Store

	mu     sync.RWMutex
	offset geom.Point
	width  float64
	height float64
}

// NewProjection returns a projection of store's view-box onto a
// width×height container at the device origin.
func NewProjection(store *Store, width, height float64) *Projection {
	return &Projection{store: store, width: width, height: height}
}

// Resize changes the container size.
func (p *Projection) Resize(width, height float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width, p.height = width, height
}

// SetOffset moves the container's top-left corner in device coordinates.
func (p *Projection) SetOffset(o geom.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = o
}

// Size returns the container size.
func (p *Projection) Size() (width, height float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.width, p.height
}

// ScreenCTM implements Screen.
func (p *Projection) ScreenCTM() (geom.Matrix, bool) {
	p.mu.RLock()
	off, w, h := p.offset, p.width, p.height
	p.mu.RUnlock()

	vb := p.store.Get()
	if !(w > 0 && h > 0) || !vb.Valid() {
		return geom.Matrix{}, false
	}
	m := geom.Translate(off.X, off.Y).
		Multiply(geom.Scale(w/vb.Width, h/vb.Height)).
		Multiply(geom.Translate(-vb.X, -vb.Y))
	return m, true
}

var _ Screen = (*Projection)(nil)
