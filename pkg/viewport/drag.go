package viewport

import "github.com/matzehuels/graphview/pkg/geom"

// DragState is the state of a DragSession.
type DragState int

const (
	DragIdle DragState = iota
	Dragging
)

// DragSession pans the view-box while the pointer is held down.
type DragSession struct {
	ctrl   *Controller
	state  DragState
	origin geom.Point
}

// NewDragSession returns an idle session driving ctrl.
func NewDragSession(ctrl *Controller) *DragSession {
	return &DragSession{ctrl: ctrl}
}

// Start begins a drag at device point p, replacing any running drag. It
// returns false (and stays idle) when p cannot be mapped.
func (d *DragSession) Start(p geom.Point) bool {
	local, ok := d.ctrl.Mapper().MapPointerToLocal(p)
	if !ok {
		d.End()
		return false
	}
	d.origin = local
	d.state = Dragging
	return true
}

// Move pans so that the point grabbed at Start is under p again and
// returns the applied pan in local units.
func (d *DragSession) Move(p geom.Point) (geom.Point, bool) {
	if d.state != Dragging {
		return geom.Point{}, false
	}
	local, ok := d.ctrl.Mapper().MapPointerToLocal(p)
	if !ok {
		return geom.Point{}, false
	}
	delta := local.Sub(d.origin)
	if !d.ctrl.PanBy(delta.X, delta.Y) {
		return geom.Point{}, false
	}
	return delta, true
}

// End finishes the drag.
func (d *DragSession) End() {
	d.state = DragIdle
	d.origin = geom.Point{}
}

// State returns the current state.
func (d *DragSession) State() DragState { return d.state }
