// Package layout defines the boundary to the external graph layout engine
// and provides a Graphviz-backed implementation.
//
// # Contract
//
// An [Engine] receives sized nodes, directed edges and a [Config], and
// returns absolute node centers plus ordered route points per edge. The
// algorithm behind it (ranking, ordering, coordinate assignment) is the
// engine's business; graphview only requires determinism.
//
// # Graphviz
//
// [Graphviz] renders the input as DOT with fixed-size box nodes, runs the
// dot layout in-process via [github.com/goccy/go-graphviz], and reads the
// positions back from Graphviz's JSON output. Graphviz uses points and a
// y-up coordinate system; the engine converts to y-down layout units and
// offsets everything by the configured margins.
//
// # Caching
//
// Because engines are deterministic, [Cached] can store results keyed by a
// hash of the input in any [cache.Cache] backend.
package layout
