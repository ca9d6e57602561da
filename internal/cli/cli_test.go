package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/layout"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"SVG, png ,pdf", []string{"svg", "png", "pdf"}},
		{"json", []string{"json"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseFormats(tt.in)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		formats []string
		format  string
		want    string
	}{
		{"derived from input", "", []string{"svg"}, "svg", "graphs/deps.svg"},
		{"explicit single file", "out/pic.svg", []string{"svg"}, "svg", "out/pic.svg"},
		{"explicit base with many formats", "out/pic", []string{"svg", "png"}, "png", "out/pic.png"},
		{"known extension stripped", "out/pic.svg", []string{"svg", "pdf"}, "pdf", "out/pic.pdf"},
		{"unknown extension kept", "out/pic.v2", []string{"svg", "pdf"}, "svg", "out/pic.v2.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &renderOpts{output: tt.output, formats: tt.formats}
			if got := outputPath(opts, "graphs/deps.json", tt.format); got != tt.want {
				t.Errorf("outputPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheDirXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	got, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if want := filepath.Join(dir, appName); got != want {
		t.Errorf("cacheDir = %q, want %q", got, want)
	}
}

func TestCacheDirHome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}
	got, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if want := filepath.Join(home, ".cache", appName); got != want {
		t.Errorf("cacheDir = %q, want %q", got, want)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	valid := writeFile(t, "graphview.toml", `
[view]
direction = "LR"
zoom_speed = 0.25
center_on_changes = false

[cache]
redis_url = "redis://localhost:6379/1"

[mongo]
graph_id = "deps"

[serve]
addr = ":9000"
watch = true
`)
	unknown := writeFile(t, "unknown.toml", "[view]\nzoom = 2\n")
	broken := writeFile(t, "broken.toml", "[view\n")

	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"no path", "", ""},
		{"valid", valid, ""},
		{"unknown key", unknown, errors.ErrCodeInvalidInput},
		{"broken toml", broken, errors.ErrCodeInvalidInput},
		{"missing", filepath.Join(t.TempDir(), "nope.toml"), errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(tt.path)
			if tt.code != "" {
				if errors.GetCode(err) != tt.code {
					t.Fatalf("code = %q, want %q (err %v)", errors.GetCode(err), tt.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("loadConfig: %v", err)
			}
			if tt.path == valid {
				if cfg.View.Direction != "LR" || cfg.View.ZoomSpeed != 0.25 {
					t.Errorf("view = %+v", cfg.View)
				}
				if cfg.View.Center == nil || *cfg.View.Center {
					t.Errorf("center_on_changes not decoded as false")
				}
				if cfg.Cache.RedisURL != "redis://localhost:6379/1" || cfg.Mongo.GraphID != "deps" {
					t.Errorf("cache/mongo = %+v %+v", cfg.Cache, cfg.Mongo)
				}
				if cfg.Serve.Addr != ":9000" || !cfg.Serve.Watch {
					t.Errorf("serve = %+v", cfg.Serve)
				}
			}
		})
	}
}

func parseViewFlags(t *testing.T, args ...string) (*cobra.Command, *viewFlags) {
	t.Helper()
	t.Setenv(envRedisURL, "")
	var f viewFlags
	cmd := &cobra.Command{Use: "test"}
	addViewFlags(cmd, &f)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd, &f
}

func TestViewOptionsLayering(t *testing.T) {
	off := false
	cfg := fileConfig{View: viewConfig{
		Direction: "BT",
		Curve:     "linear",
		ZoomSpeed: 0.3,
		Center:    &off,
		Width:     1024,
		MarginX:   5,
	}}

	cmd, f := parseViewFlags(t, "--direction", "lr", "--width", "640", "--margin-y", "7")
	opts, err := f.options(cmd, cfg, nil)
	if err != nil {
		t.Fatalf("options: %v", err)
	}

	if opts.Direction != layout.LeftToRight {
		t.Errorf("direction = %s, flag should win", opts.Direction)
	}
	if opts.Width != 640 || opts.Height != 600 {
		t.Errorf("size = %vx%v", opts.Width, opts.Height)
	}
	if opts.ZoomSpeed != 0.3 || opts.CenterOnChanges {
		t.Errorf("file values lost: speed %v center %v", opts.ZoomSpeed, opts.CenterOnChanges)
	}
	if opts.MarginX != 5 || opts.MarginY != 7 {
		t.Errorf("margins = %v,%v", opts.MarginX, opts.MarginY)
	}
	if opts.Curve == nil {
		t.Error("curve not resolved")
	}
}

func TestViewOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"bad direction", []string{"--direction", "up"}, errors.ErrCodeInvalidDirection},
		{"negative speed", []string{"--zoom-speed", "-1"}, errors.ErrCodeInvalidOption},
		{"inverted scale limits", []string{"--min-scale", "4", "--max-scale", "2"}, errors.ErrCodeInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, f := parseViewFlags(t, tt.args...)
			_, err := f.options(cmd, fileConfig{}, nil)
			if errors.GetCode(err) != tt.code {
				t.Errorf("code = %q, want %q (err %v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestViewOptionsUnknownCurve(t *testing.T) {
	cmd, f := parseViewFlags(t, "--curve", "spiral")
	if _, err := f.options(cmd, fileConfig{}, nil); err == nil {
		t.Error("expected error for unknown curve")
	}
}

func TestSourceOpen(t *testing.T) {
	t.Setenv(envMongoURI, "")
	graphFile := writeFile(t, "g.json", `{"nodes":[{"id":"a"}],"edges":[]}`)

	tests := []struct {
		name      string
		args      []string
		flags     []string
		cfg       fileConfig
		code      errors.Code
		wantWatch bool
	}{
		{name: "no input", code: errors.ErrCodeInvalidInput},
		{name: "mongo without graph id", flags: []string{"--mongo-uri", "mongodb://localhost:1"}, code: errors.ErrCodeInvalidOption},
		{name: "file", args: []string{graphFile}},
		{name: "file with watch flag", args: []string{graphFile}, flags: []string{"--watch"}, wantWatch: true},
		{name: "file with watch config", args: []string{graphFile}, cfg: fileConfig{Serve: serveConfig{Watch: true}}, wantWatch: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sf sourceFlags
			cmd := &cobra.Command{Use: "test"}
			addSourceFlags(cmd, &sf)
			if err := cmd.Flags().Parse(tt.flags); err != nil {
				t.Fatal(err)
			}

			src, watch, err := sf.open(context.Background(), cmd, tt.args, tt.cfg, nil)
			if tt.code != "" {
				if errors.GetCode(err) != tt.code {
					t.Fatalf("code = %q, want %q (err %v)", errors.GetCode(err), tt.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer src.Close()
			if (watch != nil) != tt.wantWatch {
				t.Errorf("watch func present = %v, want %v", watch != nil, tt.wantWatch)
			}
			snap, err := src.Load(context.Background())
			if err != nil || len(snap.Nodes) != 1 {
				t.Errorf("Load = %d nodes, %v", len(snap.Nodes), err)
			}
		})
	}
}

func TestModelTable(t *testing.T) {
	m := graph.Model[graph.Attrs, graph.Attrs]{}
	for _, id := range []string{"alpha", "beta"} {
		m.Nodes = append(m.Nodes, graph.TransformedNode[graph.Attrs]{ID: id, X: 10, Y: 20, Width: 30, Height: 40})
	}
	out := modelTable(m)
	for _, want := range []string{"Node", "Width", "alpha", "beta", "30"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

// captureStdout points the package output at a buffer for the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRenderCommandSVG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(envRedisURL, "")
	out := captureStdout(t)

	input := writeFile(t, "deps.json", `{
  "nodes": [{"id": "app", "data": {"label": "App"}}, {"id": "lib"}],
  "edges": [{"source": "app", "target": "lib"}]
}`)
	output := filepath.Join(t.TempDir(), "deps.svg")

	if err := runCLI(t, "render", input, "-o", output, "--no-cache", "--curve", "linear"); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	svg := string(data)
	if !strings.HasPrefix(strings.TrimSpace(svg), "<svg") || !strings.Contains(svg, "App") {
		t.Errorf("unexpected svg:\n%s", svg)
	}
	if !strings.Contains(out.String(), output) {
		t.Errorf("output path not reported:\n%s", out.String())
	}
}

func TestLayoutCommandWritesModel(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(envRedisURL, "")
	out := captureStdout(t)

	input := writeFile(t, "g.yaml", "nodes:\n  - id: a\n  - id: b\nedges:\n  - source: a\n    target: b\n")
	output := filepath.Join(t.TempDir(), "g.layout.json")

	if err := runCLI(t, "layout", input, "-o", output); err != nil {
		t.Fatalf("layout: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	for _, want := range []string{`"id": "a"`, `"transform"`, `"path"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("model missing %s:\n%s", want, data)
		}
	}
	if !strings.Contains(out.String(), "2 nodes") {
		t.Errorf("stats missing:\n%s", out.String())
	}
}

func TestRenderCommandRejectsFormat(t *testing.T) {
	captureStdout(t)
	input := writeFile(t, "g.json", `{"nodes":[{"id":"a"}]}`)
	err := runCLI(t, "render", input, "-f", "gif", "--no-cache")
	if errors.GetCode(err) != errors.ErrCodeInvalidFormat {
		t.Errorf("code = %q (err %v)", errors.GetCode(err), err)
	}
}

func TestCachePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	out := captureStdout(t)

	if err := runCLI(t, "cache", "path"); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != filepath.Join(dir, appName) {
		t.Errorf("cache path = %q", got)
	}
}
