package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphview/pkg/geom"
	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/surface/svg"
	"github.com/matzehuels/graphview/pkg/view"
	"github.com/matzehuels/graphview/pkg/viewport"
)

// A terminal cell stands for cellWidth x cellHeight device pixels, which
// keeps the usual 1:2 cell aspect ratio.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
	chromeRows = 2 // header and footer
	panStep    = 0.1
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		flags viewFlags
		src   sourceFlags
	)

	cmd := &cobra.Command{
		Use:   "explore [graph.json|graph.yaml]",
		Short: "Pan and zoom a graph in the terminal",
		Long: `Pan and zoom a laid out graph in the terminal.

Scroll to zoom around the pointer and drag to pan. Arrow keys (or hjkl)
pan, + and - zoom around the center, c centers, r resets, q quits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd, args, &flags, &src)
		},
	}
	addViewFlags(cmd, &flags)
	addSourceFlags(cmd, &src)
	return cmd
}

func (c *CLI) runExplore(cmd *cobra.Command, args []string, flags *viewFlags, sf *sourceFlags) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts, err := flags.options(cmd, cfg, logger)
	if err != nil {
		return err
	}
	store, err := flags.newLayoutCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	src, watch, err := sf.open(ctx, cmd, args, cfg, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	v, err := view.New(c.newEngine(store), svg.DefaultTemplates(), opts)
	if err != nil {
		return err
	}
	defer v.Close()

	reactor := view.NewReactor(v, src)
	if err := reactor.Mount(ctx); err != nil {
		return err
	}

	title := "graph"
	if len(args) == 1 {
		title = args[0]
	}
	p := tea.NewProgram(newExploreModel(ctx, v, title),
		tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion())

	v.Subscribe(func(e view.Event) {
		if e == view.EventLayout {
			go p.Send(layoutMsg{})
		}
	})
	if watch != nil {
		go func() {
			if err := watch(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("watch stopped", "err", err)
			}
		}()
	}
	go func() { _ = reactor.Run(ctx) }()

	_, err = p.Run()
	return err
}

// layoutMsg tells the model that a new layout was committed.
type layoutMsg struct{}

// exploreModel is the bubbletea model of the terminal explorer. All view
// state lives in the view; the model only translates input.
type exploreModel struct {
	ctx   context.Context
	view  *view.View[graph.Attrs, graph.Attrs]
	title string
	cols  int
	rows  int
	sized bool
}

func newExploreModel(ctx context.Context, v *view.View[graph.Attrs, graph.Attrs], title string) exploreModel {
	return exploreModel{ctx: ctx, view: v, title: title}
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	v := m.view
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols = max(1, msg.Width)
		m.rows = max(1, msg.Height-chromeRows)
		v.Resize(float64(m.cols)*cellWidth, float64(m.rows)*cellHeight)
		if !m.sized {
			v.Reset()
			v.Center(m.ctx)
			m.sized = true
		}

	case tea.MouseMsg:
		p := devicePoint(msg.X, msg.Y-1)
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			v.Wheel(m.ctx, p, -1)
		case msg.Button == tea.MouseButtonWheelDown:
			v.Wheel(m.ctx, p, 1)
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			v.PointerDown(m.ctx, p)
		case msg.Action == tea.MouseActionMotion:
			v.PointerMove(m.ctx, p)
		case msg.Action == tea.MouseActionRelease:
			v.PointerUp(m.ctx)
		}

	case tea.KeyMsg:
		vb := v.ViewBox()
		dx, dy := vb.Width*panStep, vb.Height*panStep
		center := devicePoint(m.cols/2, m.rows/2)
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			v.PanBy(m.ctx, dx, 0)
		case "right", "l":
			v.PanBy(m.ctx, -dx, 0)
		case "up", "k":
			v.PanBy(m.ctx, 0, dy)
		case "down", "j":
			v.PanBy(m.ctx, 0, -dy)
		case "+", "=":
			v.Wheel(m.ctx, center, -1)
		case "-":
			v.Wheel(m.ctx, center, 1)
		case "c":
			v.Center(m.ctx)
		case "r":
			v.Reset()
			v.Center(m.ctx)
		}

	case layoutMsg:
	}
	return m, nil
}

func (m exploreModel) View() string {
	if !m.sized {
		return StyleDim.Render("laying out…")
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render(appName))
	b.WriteString(" ")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%s · %.0f%%", m.title, m.view.Scale()*100)))
	b.WriteString("\n")
	for _, line := range renderCanvas(m.view.Model(), m.view.ViewBox(), m.cols, m.rows) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(StyleDim.Render("scroll zoom · drag pan · arrows pan · +/- zoom · c center · r reset · q quit"))
	return b.String()
}

// devicePoint returns the device pixel at the center of cell (x, y).
func devicePoint(x, y int) geom.Point {
	return geom.Pt((float64(x)+0.5)*cellWidth, (float64(y)+0.5)*cellHeight)
}

// renderCanvas draws m as seen through vb onto a cols x rows character
// grid: edges as dotted polylines, nodes as boxes with centered labels.
func renderCanvas[N, E any](m graph.Model[N, E], vb viewport.ViewBox, cols, rows int) []string {
	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", cols))
	}
	if !vb.Valid() || cols <= 0 || rows <= 0 {
		return gridLines(grid)
	}

	toCell := func(p geom.Point) (float64, float64) {
		return (p.X - vb.X) / vb.Width * float64(cols), (p.Y - vb.Y) / vb.Height * float64(rows)
	}
	set := func(x, y int, r rune) {
		if y >= 0 && y < rows && x >= 0 && x < cols {
			grid[y][x] = r
		}
	}

	for _, e := range m.Edges {
		for i := 1; i < len(e.Points); i++ {
			x0, y0 := toCell(e.Points[i-1])
			x1, y1 := toCell(e.Points[i])
			n := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
			if n > 4*(cols+rows) {
				n = 4 * (cols + rows)
			}
			for s := 0; s <= n; s++ {
				t := 0.0
				if n > 0 {
					t = float64(s) / float64(n)
				}
				set(int(math.Floor(x0+(x1-x0)*t)), int(math.Floor(y0+(y1-y0)*t)), '·')
			}
		}
	}

	for _, n := range m.Nodes {
		b := n.Bounds()
		fx0, fy0 := toCell(geom.Pt(b.X, b.Y))
		fx1, fy1 := toCell(b.Max())
		x0, y0 := int(math.Floor(fx0)), int(math.Floor(fy0))
		x1, y1 := int(math.Ceil(fx1))-1, int(math.Ceil(fy1))-1
		if x1 < 0 || y1 < 0 || x0 >= cols || y0 >= rows {
			continue
		}
		label := []rune(nodeLabel(n))

		if x1-x0 < 2 || y1-y0 < 2 {
			for i, r := range label {
				if x0+i > x1 {
					break
				}
				set(x0+i, y0, r)
			}
			continue
		}

		for x := x0 + 1; x < x1; x++ {
			set(x, y0, '─')
			set(x, y1, '─')
		}
		for y := y0 + 1; y < y1; y++ {
			set(x0, y, '│')
			set(x1, y, '│')
			for x := x0 + 1; x < x1; x++ {
				set(x, y, ' ')
			}
		}
		set(x0, y0, '┌')
		set(x1, y0, '┐')
		set(x0, y1, '└')
		set(x1, y1, '┘')

		inner := x1 - x0 - 1
		if len(label) > inner {
			label = label[:inner]
		}
		start := x0 + 1 + (inner-len(label))/2
		mid := (y0 + y1) / 2
		for i, r := range label {
			set(start+i, mid, r)
		}
	}
	return gridLines(grid)
}

func gridLines(grid [][]rune) []string {
	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = string(row)
	}
	return lines
}

// nodeLabel returns the "label" entry of document data, or the ID.
func nodeLabel[N any](n graph.TransformedNode[N]) string {
	if attrs, ok := any(n.Data).(graph.Attrs); ok {
		return graph.Label(graph.Node[graph.Attrs]{ID: n.ID, Data: attrs})
	}
	return n.ID
}
