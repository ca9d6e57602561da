package view

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphview/pkg/curve"
	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/layout"
	"github.com/matzehuels/graphview/pkg/viewport"
)

// Default container size.
const (
	DefaultWidth  = 800.0
	DefaultHeight = 600.0
)

// Options configures a View.
type Options struct {
	// Curve smooths edge routes. Defaults to curve.Basis.
	Curve curve.Func `toml:"-"`

	EnableZooming bool `toml:"enable_zooming"`
	EnablePanning bool `toml:"enable_panning"`

	// ZoomSpeed is the exponential zoom step per wheel event.
	ZoomSpeed float64 `toml:"zoom_speed"`

	// CenterOnChanges centers the content after every layout run.
	CenterOnChanges bool `toml:"center_on_changes"`

	// Width and Height are the container size in device pixels.
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`

	Direction layout.Direction `toml:"direction"`
	MarginX   float64          `toml:"margin_x"`
	MarginY   float64          `toml:"margin_y"`

	// MinScale and MaxScale limit zooming; zero means unlimited.
	MinScale float64 `toml:"min_scale"`
	MaxScale float64 `toml:"max_scale"`

	Logger *log.Logger `toml:"-"`
}

// DefaultOptions returns the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		Curve:           curve.Basis,
		EnableZooming:   true,
		EnablePanning:   true,
		ZoomSpeed:       viewport.DefaultZoomSpeed,
		CenterOnChanges: true,
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		Direction:       layout.TopToBottom,
	}
}

// Validate checks option values.
func (o Options) Validate() error {
	if o.ZoomSpeed < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "zoom speed must be >= 0, got %v", o.ZoomSpeed)
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "container size must not be negative, got %vx%v", o.Width, o.Height)
	}
	if o.MarginX < 0 || o.MarginY < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "margins must not be negative")
	}
	if o.MinScale < 0 || o.MaxScale < 0 || (o.MaxScale > 0 && o.MinScale > o.MaxScale) {
		return errors.New(errors.ErrCodeInvalidOption, "invalid zoom limits [%v, %v]", o.MinScale, o.MaxScale)
	}
	if _, err := layout.ParseDirection(string(o.Direction)); err != nil {
		return err
	}
	return nil
}

// LayoutConfig returns the engine configuration derived from o.
func (o Options) LayoutConfig() layout.Config {
	dir, _ := layout.ParseDirection(string(o.Direction))
	return layout.Config{
		Direction: dir,
		MarginX:   o.MarginX,
		MarginY:   o.MarginY,
		Align:     layout.AlignUpperLeft,
	}.WithDefaults()
}
