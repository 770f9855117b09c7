package components

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/jlammi/framix/internal/engine"
	"github.com/jlammi/framix/internal/errors"
	"github.com/jlammi/framix/internal/frame"
	"github.com/jlammi/framix/internal/resample"
)

func init() {
	engine.Register(engine.Registration{
		Type:        "plot",
		Description: "writes an HTML chart of frame means or a filter frequency response",
		New:         func() engine.Worker { return &plot{} },
	})
}

// plot is a terminal sink collecting data during the run and rendering one
// HTML chart when the stream ends. In "mean" mode it charts the mean
// sample value per frame; in "response" mode it treats the last received
// frame as a filter and charts its horizontal frequency response.
type plot struct {
	means    []float64
	numbers  []int64
	lastFil  []float32
	lastName string
}

func (*plot) Spec() engine.ComponentSpec {
	return engine.ComponentSpec{
		Inputs: []engine.PortSpec{{Name: engine.PortInput}},
		Params: engine.Schema{
			engine.StringParam("path", "plot.html", "output HTML file"),
			engine.StringParam("title", "framix", "chart title"),
			engine.EnumParam("mode", "mean", []string{"mean", "response"}, "chart type"),
			engine.IntRange("points", 512, 16, 65536, "frequency response resolution"),
		},
	}
}

func (p *plot) Process(env *engine.Env, inputs map[string]*frame.Frame) error {
	in := inputs[engine.PortInput]
	data := in.Data()

	sum := 0.0
	for _, v := range data {
		sum += float64(v)
	}
	p.means = append(p.means, sum/float64(len(data)))
	p.numbers = append(p.numbers, in.Number())

	if env.Config.String("mode") == "response" {
		// Keep the centre row of the most recent frame as the filter.
		shape := in.Shape()
		row := (shape.Y / 2) * shape.X * shape.Planes
		taps := make([]float32, shape.X)
		for x := 0; x < shape.X; x++ {
			taps[x] = data[row+x*shape.Planes]
		}
		p.lastFil = taps
		p.lastName = fmt.Sprintf("frame %d", in.Number())
	}
	return nil
}

func (p *plot) Drain(env *engine.Env) error {
	path := artifactPath(env.Config.String("path"))
	title := env.Config.String("title")

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	switch env.Config.String("mode") {
	case "response":
		if p.lastFil == nil {
			return errors.NewStd("no filter frame received, nothing to chart")
		}
		mags := resample.Response(p.lastFil, env.Config.Int("points"))
		xs := make([]string, len(mags))
		ys := make([]opts.LineData, len(mags))
		for i, m := range mags {
			xs[i] = fmt.Sprintf("%.3f", float64(i)/float64(2*(len(mags)-1)))
			ys[i] = opts.LineData{Value: m}
		}
		line.SetXAxis(xs).AddSeries(p.lastName, ys)
	default:
		xs := make([]string, len(p.means))
		ys := make([]opts.LineData, len(p.means))
		for i, m := range p.means {
			xs[i] = fmt.Sprintf("%d", p.numbers[i])
			ys[i] = opts.LineData{Value: m}
		}
		line.SetXAxis(xs).AddSeries("mean", ys)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Newf("creating chart directory: %w", err).
				Component("components").
				Category(errors.CategoryFileIO).
				Build()
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Newf("creating chart file: %w", err).
			Component("components").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer func() { _ = f.Close() }()

	if err := line.Render(f); err != nil {
		return errors.Newf("rendering chart: %w", err).
			Component("components").
			Category(errors.CategoryFileIO).
			Build()
	}
	env.Logger.Info("chart written", "path", path, "frames", len(p.means))
	return nil
}
