package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/graphview/pkg/cache"
	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/pipeline"
	"github.com/matzehuels/graphview/pkg/surface/svg"
	"github.com/matzehuels/graphview/pkg/view"
)

// defaultPNGScale is the rasterization scale for PNG output.
const defaultPNGScale = 2.0

// renderOpts holds the render command flags.
type renderOpts struct {
	output  string
	formats []string
	scale   float64
	fit     bool
	view    viewFlags
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: defaultPNGScale, fit: true}

	cmd := &cobra.Command{
		Use:   "render [graph.json|graph.yaml]",
		Short: "Lay out a graph and write SVG, PNG or PDF",
		Long: `Lay out a graph document and render it.

By default the picture is sized to the laid out graph. With --fit=false the
output shows the container (--width x --height) with the graph centered,
exactly as an interactive view would show it after mounting.

PNG and PDF output require rsvg-convert on the PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, json (comma-separated)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.fit, "fit", opts.fit, "size the output to the graph instead of the container")
	addViewFlags(cmd, &opts.view)

	return cmd
}

// basePath derives the output path without extension. Known format
// extensions are stripped from an explicit output.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath returns where format is written.
func outputPath(opts *renderOpts, input, format string) string {
	if opts.output != "" && len(opts.formats) == 1 && filepath.Ext(opts.output) != "" {
		return opts.output
	}
	return basePath(opts.output, input) + "." + format
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	vopts, err := opts.view.options(cmd, cfg, logger)
	if err != nil {
		return err
	}

	doc, err := graph.ReadDocumentFile(input)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded %s: %d nodes, %d edges", input, len(doc.Nodes), len(doc.Edges))

	store, err := opts.view.newLayoutCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	docHash, err := renderHash(cmd, doc, cfg.View, opts.fit)
	if err != nil {
		return err
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", filepath.Base(input)))
	spinner.Start()

	r := &renderer{cli: c, store: store, keyer: cache.NewDefaultKeyer(), docHash: docHash, doc: doc, opts: opts, vopts: vopts}
	defer r.close()

	var written []string
	allCached := true
	for _, format := range opts.formats {
		data, cached, err := r.artifact(ctx, format)
		if err != nil {
			spinner.StopWithError("Render failed")
			return fmt.Errorf("%s: %w", format, err)
		}
		allCached = allCached && cached

		path := outputPath(opts, input, format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			spinner.StopWithError("Write failed")
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Debugf("Generated %s: %d bytes", path, len(data))
		written = append(written, path)
	}
	spinner.Stop()

	printSuccess("Rendered %s", input)
	for _, p := range written {
		printFile(p)
	}
	printStats(len(doc.Nodes), len(doc.Edges), allCached)
	printNewline()
	printNextStep("Explore", appName+" explore "+input)
	return nil
}

// renderHash identifies a document together with every option that
// changes the rendered picture.
func renderHash(cmd *cobra.Command, doc graph.Document, file viewConfig, fit bool) (string, error) {
	var flags []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name != "output" && f.Name != "format" && f.Name != "no-cache" && f.Name != "redis-url" {
			flags = append(flags, f.Name+"="+f.Value.String())
		}
	})
	return cache.HashJSON(struct {
		Doc   graph.Document `json:"doc"`
		File  viewConfig     `json:"file"`
		Flags []string       `json:"flags"`
		Fit   bool           `json:"fit"`
	}{doc, file, flags, fit})
}

// renderer lays out the document at most once and serves every requested
// format from the result, consulting the artifact cache first.
type renderer struct {
	cli     *CLI
	store   cache.Cache
	keyer   cache.Keyer
	docHash string
	doc     graph.Document
	opts    *renderOpts
	vopts   view.Options

	view *view.View[graph.Attrs, graph.Attrs]
	svg  []byte
}

func (r *renderer) artifact(ctx context.Context, format string) ([]byte, bool, error) {
	key := r.keyer.ArtifactKey(r.docHash, cache.ArtifactKeyOpts{Format: format, Scale: r.scaleFor(format)})
	if data, ok, err := r.store.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}

	data, err := r.build(ctx, format)
	if err != nil {
		return nil, false, err
	}
	if err := r.store.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
		loggerFromContext(ctx).Warn("artifact cache write failed", "err", err)
	}
	return data, false, nil
}

func (r *renderer) scaleFor(format string) float64 {
	if format == pipeline.FormatPNG {
		return r.opts.scale
	}
	return 0
}

func (r *renderer) build(ctx context.Context, format string) ([]byte, error) {
	if err := r.mount(ctx); err != nil {
		return nil, err
	}
	switch format {
	case pipeline.FormatSVG:
		return r.svg, nil
	case pipeline.FormatPNG:
		return svg.ToPNG(ctx, r.svg, r.opts.scale)
	case pipeline.FormatPDF:
		return svg.ToPDF(ctx, r.svg)
	case pipeline.FormatJSON:
		var buf bytes.Buffer
		if err := graph.WriteModel(r.view.Model(), &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown format: %s", format)
}

func (r *renderer) mount(ctx context.Context) error {
	if r.view != nil {
		return nil
	}
	v, err := view.New(r.cli.newEngine(r.store), svg.DefaultTemplates(), r.vopts)
	if err != nil {
		return err
	}
	prog := newProgress(loggerFromContext(ctx))
	if err := v.Mount(ctx, r.doc.Nodes, r.doc.Edges); err != nil {
		_ = v.Close()
		return err
	}
	prog.done(fmt.Sprintf("Laid out %d nodes", len(r.doc.Nodes)))

	if m := v.Model(); r.opts.fit && m.Width > 0 && m.Height > 0 {
		v.Resize(m.Width, m.Height)
		v.Reset()
	}
	r.view = v
	r.svg = v.SVG()
	return nil
}

func (r *renderer) close() {
	if r.view != nil {
		_ = r.view.Close()
	}
}
