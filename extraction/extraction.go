package extraction

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/hb9tf/spectrelay/sweep"
)

var (
	// Colors defining the gradient of the trace. The higher the index, the stronger the signal.
	colors = []color.RGBA{
		{0, 0, 255, 255},   // blue
		{0, 255, 255, 255}, // cyan
		{0, 200, 0, 255},   // green
		{255, 200, 0, 255}, // yellow
		{255, 0, 0, 255},   // red
	}

	gridColor           = color.RGBA{0, 0, 0, 255}       // black
	gridBackgroundColor = color.RGBA{255, 255, 255, 255} // white
	peakColor           = color.RGBA{108, 92, 231, 255}  // purple
)

const (
	gridMarginTop    = 20 // pixels
	gridMarginLeft   = 70 // pixels
	gridMarginBottom = 5  // pixels
	gridTickLen      = 10 // pixel
	gridMinStepX     = 100
	gridMinStepY     = 20
	peakMarkerSize   = 4
)

type ChartOptions struct {
	Width  int
	Height int

	AddGrid bool
	// Peaks is the number of strongest signals to mark on the trace.
	Peaks int
}

// GetColor determines the color of the trace based on the color gradient and a signal "level".
func GetColor(lvl uint16) color.RGBA {
	// Find the two gradient stops the level falls between and blend them
	// according to how far along we are between them.
	pos := float64(lvl) / math.MaxUint16 * float64(len(colors)-1)
	i := int(pos)
	if i >= len(colors)-1 {
		return colors[len(colors)-1]
	}
	fract := pos - float64(i)
	prevC, nextC := colors[i], colors[i+1]
	blend := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*fract))
	}
	return color.RGBA{
		blend(prevC.R, nextC.R),
		blend(prevC.G, nextC.G),
		blend(prevC.B, nextC.B),
		blend(prevC.A, nextC.A),
	}
}

// GetReadableFreq formats a frequency in Hz with an SI prefix, e.g. "433.92 MHz".
func GetReadableFreq(freq int64) string {
	fract, suffix := humanize.ComputeSI(float64(freq))
	return fmt.Sprintf("%.2f %sHz", fract, suffix)
}

func drawTick(canvas *image.RGBA, start image.Point, length int, horizontal bool) {
	for i := 0; i <= length; i++ {
		if horizontal {
			canvas.SetRGBA(start.X+i, start.Y, gridColor)
		} else {
			canvas.SetRGBA(start.X, start.Y+i, gridColor)
		}
	}
}

func drawLabel(canvas *image.RGBA, x, y int, label string) {
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(gridColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}

func findGridStepSize(step int, horizontal bool) int {
	gridMinStep := gridMinStepY
	if horizontal {
		gridMinStep = gridMinStepX
	}
	for step > gridMinStep {
		n := step / 2
		if n < gridMinStep {
			return step
		}
		step = n
	}
	return step
}

// drawLine draws a straight line between a and b, one pixel per step along the longer axis.
func drawLine(canvas *image.RGBA, a, b image.Point, c color.RGBA) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := int(math.Max(math.Abs(float64(dx)), math.Abs(float64(dy))))
	if steps == 0 {
		canvas.SetRGBA(a.X, a.Y, c)
		return
	}
	for i := 0; i <= steps; i++ {
		x := a.X + int(math.Round(float64(dx*i)/float64(steps)))
		y := a.Y + int(math.Round(float64(dy*i)/float64(steps)))
		canvas.SetRGBA(x, y, c)
	}
}

// DrawGrid adds a labelled frequency (X) and signal strength (Y) axis around source.
func DrawGrid(source *image.RGBA, lowFreq, highFreq float64, domain Domain) *image.RGBA {
	// Enlarge existing image.
	canvas := image.NewRGBA(image.Rectangle{
		Min: source.Bounds().Min,
		Max: image.Point{
			source.Bounds().Max.X + gridMarginLeft,
			source.Bounds().Max.Y + gridMarginTop + gridMarginBottom,
		},
	})
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{gridBackgroundColor}, canvas.Bounds().Min, draw.Src)
	r := canvas.Bounds()
	r.Min.X += gridMarginLeft
	r.Min.Y += gridMarginTop
	draw.Draw(canvas, r, source, source.Bounds().Min, draw.Src)

	width, height := source.Bounds().Dx(), source.Bounds().Dy()

	// Draw X ticks.
	xStep := findGridStepSize(width, true)
	for i := 0; i < width; i += xStep {
		drawTick(canvas, image.Point{
			canvas.Bounds().Min.X + gridMarginLeft + i,
			canvas.Bounds().Min.Y + gridMarginTop - gridTickLen,
		}, gridTickLen, false)
		freq := lowFreq + float64(i)*(highFreq-lowFreq)/float64(width)
		drawLabel(canvas, canvas.Bounds().Min.X+gridMarginLeft+i+5, canvas.Bounds().Min.Y+gridMarginTop-2, GetReadableFreq(int64(freq*1e6)))
	}

	// Draw Y ticks, strongest at the top.
	yStep := findGridStepSize(height, false)
	for i := 0; i < height; i += yStep {
		drawTick(canvas, image.Point{
			canvas.Bounds().Min.X + gridMarginLeft - gridTickLen,
			canvas.Bounds().Min.Y + gridMarginTop + i,
		}, gridTickLen, true)
		rssi := domain.Max - float64(i)*(domain.Max-domain.Min)/float64(height)
		drawLabel(canvas, canvas.Bounds().Min.X+5, canvas.Bounds().Min.Y+gridMarginTop+i+5, FormatDBm(rssi))
	}

	return canvas
}

// RenderChart draws samples as a line chart over the auto-scaled signal domain.
func RenderChart(samples []sweep.Sample, opts *ChartOptions) *image.RGBA {
	canvas := image.NewRGBA(image.Rectangle{
		Min: image.Point{0, 0},
		Max: image.Point{opts.Width, opts.Height},
	})
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{gridBackgroundColor}, image.Point{}, draw.Src)

	domain := AutoScale(samples)
	lowFreq, highFreq := 0.0, 0.0
	if len(samples) > 0 {
		lowFreq, highFreq = samples[0].Frequency, samples[len(samples)-1].Frequency
	}
	freqSpan := highFreq - lowFreq
	if freqSpan == 0 {
		freqSpan = 1
	}
	dbSpan := domain.Max - domain.Min

	toPixel := func(s sweep.Sample) image.Point {
		x := (s.Frequency - lowFreq) / freqSpan * float64(opts.Width-1)
		y := (domain.Max - s.SignalStrength) / dbSpan * float64(opts.Height-1)
		return image.Point{int(math.Round(x)), int(math.Round(y))}
	}
	level := func(rssi float64) uint16 {
		return uint16((rssi - domain.Min) / dbSpan * math.MaxUint16)
	}

	// Draw trace.
	for i := 1; i < len(samples); i++ {
		prev, curr := samples[i-1], samples[i]
		drawLine(canvas, toPixel(prev), toPixel(curr), GetColor(level(math.Max(prev.SignalStrength, curr.SignalStrength))))
	}
	if len(samples) == 1 {
		p := toPixel(samples[0])
		canvas.SetRGBA(p.X, p.Y, GetColor(level(samples[0].SignalStrength)))
	}

	// Mark peaks.
	for _, peak := range Peaks(samples, NoiseFloor, opts.Peaks) {
		p := toPixel(peak)
		drawLine(canvas, p.Add(image.Point{-peakMarkerSize, -peakMarkerSize}), p.Add(image.Point{peakMarkerSize, peakMarkerSize}), peakColor)
		drawLine(canvas, p.Add(image.Point{-peakMarkerSize, peakMarkerSize}), p.Add(image.Point{peakMarkerSize, -peakMarkerSize}), peakColor)
	}

	if opts.AddGrid {
		canvas = DrawGrid(canvas, lowFreq, highFreq, domain)
	}
	return canvas
}
