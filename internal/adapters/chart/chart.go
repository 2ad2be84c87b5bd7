package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// PNGRenderer implementa ports.ChartRenderer con gonum/plot.
// Dibuja los log-precios observados, la curva ajustada y una línea
// vertical en tc cuando cae dentro del rango visible.
type PNGRenderer struct {
	dir string
}

// NewPNGRenderer crea un renderer que escribe PNGs en el directorio dado.
func NewPNGRenderer(dir string) (*PNGRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chart.NewPNGRenderer: mkdir %q: %w", dir, err)
	}
	return &PNGRenderer{dir: dir}, nil
}

// Render escribe el gráfico de la serie con su fit y devuelve la ruta.
func (r *PNGRenderer) Render(series domain.PriceSeries, result domain.AnalysisResult) (string, error) {
	t := series.NormalizedTime()
	y := series.LogPrices()
	params := result.Best.Params

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s — %dd window  tc=%.4f beta=%.3f omega=%.2f R²=%.4f",
		series.Symbol, result.WindowDays, params.Tc, params.Beta, params.Omega, result.Best.R2)
	p.X.Label.Text = "normalized time"
	p.Y.Label.Text = "log(price)"

	observed := make(plotter.XYs, len(t))
	for i := range t {
		observed[i].X = t[i]
		observed[i].Y = y[i]
	}
	scatter, err := plotter.NewScatter(observed)
	if err != nil {
		return "", fmt.Errorf("chart.Render: scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	scatter.GlyphStyle.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}

	fitted := plotter.NewFunction(func(x float64) float64 {
		return domain.LPPL(x, params)
	})
	fitted.Samples = 500
	fitted.Width = vg.Points(1.5)
	fitted.Color = color.RGBA{R: 220, G: 60, B: 60, A: 255}

	p.Add(scatter, fitted)
	p.Legend.Add("log price", scatter)
	p.Legend.Add("LPPL fit", fitted)
	p.Legend.Top = true

	// Extender el eje X hasta tc cuando está cerca, para que la línea
	// vertical del tiempo crítico sea visible.
	xMax := 1.0
	if params.Tc > 1.0 && params.Tc <= 1.5 {
		xMax = params.Tc * 1.05
	}
	p.X.Max = xMax

	if params.Tc <= xMax {
		yMin, yMax := bounds(y)
		tcLine := plotter.XYs{
			{X: params.Tc, Y: yMin},
			{X: params.Tc, Y: yMax},
		}
		line, err := plotter.NewLine(tcLine)
		if err == nil {
			line.Width = vg.Points(1)
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
			line.Color = color.RGBA{R: 40, G: 40, B: 40, A: 255}
			p.Add(line)
			p.Legend.Add(fmt.Sprintf("tc (%s)", result.PredictedCrash.Format("2006-01-02")), line)
		}
	}

	name := fmt.Sprintf("%s_%dd_%s.png",
		sanitize(series.Symbol), result.WindowDays,
		time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(r.dir, name)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return "", fmt.Errorf("chart.Render: save %q: %w", path, err)
	}
	return path, nil
}

func bounds(values []float64) (min, max float64) {
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return
}

// sanitize quita los caracteres de símbolo que no sirven en un filename.
func sanitize(symbol string) string {
	out := make([]rune, 0, len(symbol))
	for _, c := range symbol {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
