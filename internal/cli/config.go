package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphview/pkg/cache"
	"github.com/matzehuels/graphview/pkg/curve"
	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/layout"
	"github.com/matzehuels/graphview/pkg/source"
	"github.com/matzehuels/graphview/pkg/view"
)

// Environment variables read as flag defaults.
const (
	envRedisURL = "GRAPHVIEW_REDIS_URL"
	envMongoURI = "GRAPHVIEW_MONGO_URI"
)

// fileConfig is the TOML config file layout. Flags given on the command
// line win over file values.
//
//	[view]
//	direction = "LR"
//	zoom_speed = 0.2
//	curve = "linear"
//
//	[cache]
//	redis_url = "redis://localhost:6379/0"
//
//	[mongo]
//	uri = "mongodb://localhost:27017/?replicaSet=rs0"
//	graph_id = "deps"
type fileConfig struct {
	View  viewConfig         `toml:"view"`
	Cache cacheConfig        `toml:"cache"`
	Mongo source.MongoConfig `toml:"mongo"`
	Serve serveConfig        `toml:"serve"`
}

type viewConfig struct {
	Direction string  `toml:"direction"`
	MarginX   float64 `toml:"margin_x"`
	MarginY   float64 `toml:"margin_y"`
	Curve     string  `toml:"curve"`
	ZoomSpeed float64 `toml:"zoom_speed"`
	Center    *bool   `toml:"center_on_changes"`
	Width     float64 `toml:"width"`
	Height    float64 `toml:"height"`
	MinScale  float64 `toml:"min_scale"`
	MaxScale  float64 `toml:"max_scale"`
}

type cacheConfig struct {
	Disabled bool   `toml:"disabled"`
	RedisURL string `toml:"redis_url"`
}

type serveConfig struct {
	Addr  string `toml:"addr"`
	Watch bool   `toml:"watch"`
}

// loadConfig reads a TOML config file. An empty path yields the zero config.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown key %s", path, undecoded[0])
	}
	return cfg, nil
}

// viewFlags are the flags shared by every command that lays out a graph.
type viewFlags struct {
	direction string
	marginX   float64
	marginY   float64
	curve     string
	zoomSpeed float64
	center    bool
	width     float64
	height    float64
	minScale  float64
	maxScale  float64
	noCache   bool
	redisURL  string
}

func addViewFlags(cmd *cobra.Command, f *viewFlags) {
	def := view.DefaultOptions()
	f.direction = string(def.Direction)
	f.curve = curve.NameBasis
	f.zoomSpeed = def.ZoomSpeed
	f.center = def.CenterOnChanges
	f.width = def.Width
	f.height = def.Height
	f.redisURL = os.Getenv(envRedisURL)

	fl := cmd.Flags()
	fl.StringVarP(&f.direction, "direction", "d", f.direction, "rank direction: TB, BT, LR, RL")
	fl.Float64Var(&f.marginX, "margin-x", 0, "horizontal graph margin")
	fl.Float64Var(&f.marginY, "margin-y", 0, "vertical graph margin")
	fl.StringVar(&f.curve, "curve", f.curve, "edge curve: "+fmt.Sprint(curve.Names()))
	fl.Float64Var(&f.zoomSpeed, "zoom-speed", f.zoomSpeed, "exponential zoom step per wheel event")
	fl.BoolVar(&f.center, "center", f.center, "center the graph after every layout")
	fl.Float64Var(&f.width, "width", f.width, "container width")
	fl.Float64Var(&f.height, "height", f.height, "container height")
	fl.Float64Var(&f.minScale, "min-scale", 0, "smallest zoom scale (0 = unlimited)")
	fl.Float64Var(&f.maxScale, "max-scale", 0, "largest zoom scale (0 = unlimited)")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable layout caching")
	fl.StringVar(&f.redisURL, "redis-url", f.redisURL, "shared Redis layout cache (env "+envRedisURL+")")
}

// options layers defaults, the config file and explicitly set flags, in
// that order, into view options.
func (f *viewFlags) options(cmd *cobra.Command, cfg fileConfig, logger *log.Logger) (view.Options, error) {
	opts := view.DefaultOptions()
	curveName := curve.NameBasis

	fc := cfg.View
	if fc.Direction != "" {
		opts.Direction = layout.Direction(fc.Direction)
	}
	if fc.Curve != "" {
		curveName = fc.Curve
	}
	if fc.ZoomSpeed > 0 {
		opts.ZoomSpeed = fc.ZoomSpeed
	}
	if fc.Center != nil {
		opts.CenterOnChanges = *fc.Center
	}
	if fc.Width > 0 {
		opts.Width = fc.Width
	}
	if fc.Height > 0 {
		opts.Height = fc.Height
	}
	opts.MarginX, opts.MarginY = fc.MarginX, fc.MarginY
	opts.MinScale, opts.MaxScale = fc.MinScale, fc.MaxScale

	changed := cmd.Flags().Changed
	if changed("direction") {
		opts.Direction = layout.Direction(f.direction)
	}
	if changed("curve") {
		curveName = f.curve
	}
	if changed("zoom-speed") {
		opts.ZoomSpeed = f.zoomSpeed
	}
	if changed("center") {
		opts.CenterOnChanges = f.center
	}
	if changed("width") {
		opts.Width = f.width
	}
	if changed("height") {
		opts.Height = f.height
	}
	if changed("margin-x") {
		opts.MarginX = f.marginX
	}
	if changed("margin-y") {
		opts.MarginY = f.marginY
	}
	if changed("min-scale") {
		opts.MinScale = f.minScale
	}
	if changed("max-scale") {
		opts.MaxScale = f.maxScale
	}

	dir, err := layout.ParseDirection(string(opts.Direction))
	if err != nil {
		return view.Options{}, err
	}
	opts.Direction = dir

	fn, err := curve.Lookup(curveName)
	if err != nil {
		return view.Options{}, err
	}
	opts.Curve = fn
	opts.Logger = logger

	if err := opts.Validate(); err != nil {
		return view.Options{}, err
	}
	return opts, nil
}

// newLayoutCache picks the layout cache backend: none, Redis, or the
// local file cache.
func (f *viewFlags) newLayoutCache(ctx context.Context, cfg fileConfig) (cache.Cache, error) {
	if f.noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	url := f.redisURL
	if url == "" {
		url = cfg.Cache.RedisURL
	}
	if url != "" {
		return cache.NewRedisCache(ctx, url)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
