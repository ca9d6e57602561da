// Package viewport holds the interactive view-box state of a rendered graph
// and the operations that change it.
//
// # View-box
//
// A [ViewBox] is the window into local (layout) coordinates that is
// stretched over the container. It lives in a [Store], which serializes
// read-modify-write updates and notifies subscribers once per change.
//
// # Mapping
//
// Pointer positions arrive in device coordinates. A [Mapper] converts them
// to local coordinates by inverting the current screen transform, which a
// [Screen] provides. [Projection] is the Screen for an SVG whose view-box
// fills the container without preserving the aspect ratio.
//
// # Control
//
// [Controller] implements panning, zooming (plain and pointer-anchored) and
// centering on the rendered content. [DragSession] turns a
// down/move/up pointer sequence into pans that keep the grabbed point under
// the pointer.
package viewport
