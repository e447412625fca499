package telemetry

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/planner"
)

// Scene is what PathsPlot draws.
type Scene struct {
	Bay          components.Rect
	Obstacles    []components.Rect
	Start, Goal  components.Pose
	Intermediate *components.Pose
	Planned      []components.Pose
	Driven       []components.Pose
}

var (
	colorBest     = color.RGBA{0, 80, 255, 255}
	colorMean     = color.RGBA{160, 160, 160, 255}
	colorPlanned  = color.RGBA{0, 80, 255, 255}
	colorDriven   = color.RGBA{220, 80, 0, 255}
	colorObstacle = color.RGBA{80, 80, 80, 160}
	colorBay      = color.RGBA{0, 160, 0, 60}
)

type marker struct {
	label string
	pose  components.Pose
	shape draw.GlyphDrawer
	c     color.Color
}

func poseXYs(poses []components.Pose) plotter.XYs {
	xy := make(plotter.XYs, len(poses))
	for i, p := range poses {
		xy[i].X, xy[i].Y = p.X, p.Y
	}
	return xy
}

func rectXYs(r components.Rect) plotter.XYs {
	x0, y0, x1, y1 := r.Bounds()
	return plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

// ConvergencePlot saves best and mean cost per generation as a PNG. Both
// curves use a log scale since the cost is a sum of squares.
func ConvergencePlot(path string, r *planner.Result) error {
	p := plot.New()
	p.Title.Text = "GA convergence"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Cost (L² + φ²)"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{}
	p.Add(plotter.NewGrid())

	best := make(plotter.XYs, 0, len(r.BestCost))
	for i, c := range r.BestCost {
		if c > 0 {
			best = append(best, plotter.XY{X: float64(i + 1), Y: c})
		}
	}
	if len(best) == 0 {
		return fmt.Errorf("no positive costs to plot")
	}
	mean := make(plotter.XYs, 0, len(r.MeanCost))
	for i, c := range r.MeanCost {
		if c > 0 {
			mean = append(mean, plotter.XY{X: float64(i + 1), Y: c})
		}
	}

	bestLine, err := plotter.NewLine(best)
	if err != nil {
		return fmt.Errorf("best line: %w", err)
	}
	bestLine.Color = colorBest
	bestLine.Width = vg.Points(1.5)
	p.Add(bestLine)
	p.Legend.Add("best", bestLine)

	if len(mean) > 0 {
		meanLine, err := plotter.NewLine(mean)
		if err != nil {
			return fmt.Errorf("mean line: %w", err)
		}
		meanLine.Color = colorMean
		meanLine.Width = vg.Points(1)
		p.Add(meanLine)
		p.Legend.Add("mean", meanLine)
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// PathsPlot saves a top-down view of the scene with the planned and driven
// paths as a PNG.
func PathsPlot(path string, s Scene) error {
	p := plot.New()
	p.Title.Text = "Parking paths"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	bay, err := plotter.NewPolygon(rectXYs(s.Bay))
	if err != nil {
		return fmt.Errorf("bay: %w", err)
	}
	bay.Color = colorBay
	bay.LineStyle.Width = 0
	p.Add(bay)
	p.Legend.Add("bay", bay)

	for i, o := range s.Obstacles {
		poly, err := plotter.NewPolygon(rectXYs(o))
		if err != nil {
			return fmt.Errorf("obstacle %d: %w", i, err)
		}
		poly.Color = colorObstacle
		poly.LineStyle.Width = 0
		p.Add(poly)
		if i == 0 {
			p.Legend.Add("obstacle", poly)
		}
	}

	if len(s.Planned) > 1 {
		line, err := plotter.NewLine(poseXYs(s.Planned))
		if err != nil {
			return fmt.Errorf("planned path: %w", err)
		}
		line.Color = colorPlanned
		line.Width = vg.Points(1.5)
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(line)
		p.Legend.Add("planned", line)
	}
	if len(s.Driven) > 1 {
		line, err := plotter.NewLine(poseXYs(s.Driven))
		if err != nil {
			return fmt.Errorf("driven path: %w", err)
		}
		line.Color = colorDriven
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("driven", line)
	}

	marks := []marker{
		{"start", s.Start, draw.CircleGlyph{}, color.RGBA{0, 140, 0, 255}},
		{"goal", s.Goal, draw.CrossGlyph{}, color.RGBA{220, 0, 0, 255}},
	}
	if s.Intermediate != nil {
		marks = append(marks, marker{"intermediate", *s.Intermediate, draw.TriangleGlyph{}, color.RGBA{140, 0, 140, 255}})
	}
	for _, m := range marks {
		sc, err := plotter.NewScatter(plotter.XYs{{X: m.pose.X, Y: m.pose.Y}})
		if err != nil {
			return fmt.Errorf("%s marker: %w", m.label, err)
		}
		sc.GlyphStyle.Shape = m.shape
		sc.GlyphStyle.Color = m.c
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add(m.label, sc)
	}

	return p.Save(10*vg.Inch, 6*vg.Inch, path)
}
