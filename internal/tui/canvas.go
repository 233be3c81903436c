package tui

import (
	"image"
	"image/color"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/murenne/ADVLite/internal/resource"
	"golang.org/x/image/draw"
)

// Stage coordinates are pixels of a 1920x1080 canvas, origin at the
// center, Y up.
const (
	designWidth  = 1920.0
	designHeight = 1080.0

	minVisibleAlpha = 0.05
	upperHalf       = '▀'
	keyWaitIcon     = '▼'
)

var (
	windowFill = tcell.NewRGBColor(16, 20, 36)
	windowEdge = tcell.NewRGBColor(90, 100, 140)
	nameColor  = tcell.NewRGBColor(255, 220, 120)
	textColor  = tcell.NewRGBColor(235, 235, 235)
)

// canvas maps stage coordinates onto terminal cells. Every color drawn is
// scaled by shade, which is the inverse of the screen fade.
type canvas struct {
	screen tcell.Screen
	w, h   int
	shade  float64
}

func (c *canvas) col(x float64) int { return int(float64(c.w)/2 + x*float64(c.w)/designWidth) }
func (c *canvas) row(y float64) int { return int(float64(c.h)/2 - y*float64(c.h)/designHeight) }

func (c *canvas) cells(wpx, hpx int) (int, int) {
	cols := max(int(float64(wpx)*float64(c.w)/designWidth), 1)
	rows := max(int(float64(hpx)*float64(c.h)/designHeight), 1)
	return cols, rows
}

func (c *canvas) rgb(r, g, b uint8, alpha float64) tcell.Color {
	k := alpha * c.shade
	return tcell.NewRGBColor(int32(float64(r)*k), int32(float64(g)*k), int32(float64(b)*k))
}

func (c *canvas) dim(col tcell.Color) tcell.Color {
	r, g, b := col.RGB()
	return c.rgb(uint8(r), uint8(g), uint8(b), 1)
}

func (c *canvas) set(x, y int, r rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.screen.SetContent(x, y, r, nil, style)
}

func (c *canvas) surface(s *surface) {
	if s.alpha < minVisibleAlpha {
		return
	}
	if p := s.content.Prefab; p != nil {
		c.prefab(s, p)
		return
	}
	if img := s.content.Image; img != nil {
		b := img.Bounds()
		cols, rows := c.cells(b.Dx(), b.Dy())
		c.image(img, c.col(s.x)-cols/2, c.row(s.y)-rows/2, cols, rows, s.alpha)
	}
}

// image draws img into a cols x rows box, two pixels per cell.
func (c *canvas) image(img image.Image, x0, y0, cols, rows int, alpha float64) {
	scaled := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			top := scaled.RGBAAt(i, 2*j)
			bottom := scaled.RGBAAt(i, 2*j+1)
			if top.A < 0x80 && bottom.A < 0x80 {
				continue
			}
			style := tcell.StyleDefault.
				Foreground(c.rgb(top.R, top.G, top.B, alpha)).
				Background(c.rgb(bottom.R, bottom.G, bottom.B, alpha))
			c.set(x0+i, y0+j, upperHalf, style)
		}
	}
}

func (c *canvas) prefab(s *surface, p *resource.PrefabDoc) {
	cols, rows := c.cells(p.Width, p.Height)
	x0, y0 := c.col(s.x)-cols/2, c.row(s.y)-rows/2

	fill, err := resource.ParseHexColor(p.Fill)
	if err != nil {
		fill = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	}
	a := s.alpha * float64(fill.A) / 255
	bg := c.rgb(fill.R, fill.G, fill.B, a)
	if fill.A > 0 {
		for j := 0; j < rows; j++ {
			for i := 0; i < cols; i++ {
				c.set(x0+i, y0+j, ' ', tcell.StyleDefault.Background(bg))
			}
		}
	}
	if s.content.Image != nil {
		c.image(s.content.Image, x0, y0, cols, rows, s.alpha)
	}
	if p.Caption != "" {
		fg := c.rgb(255, 255, 255, s.alpha)
		w := runewidth.StringWidth(p.Caption)
		c.text(x0+(cols-w)/2, y0+rows/2, p.Caption, tcell.StyleDefault.Foreground(fg).Background(bg))
	}
}

// text draws a single line and returns the column after it.
func (c *canvas) text(x, y int, s string, style tcell.Style) int {
	for _, r := range s {
		c.set(x, y, r, style)
		x += runewidth.RuneWidth(r)
	}
	return x
}

// window draws the dialogue panel across the bottom quarter, offset by the
// panel surface.
func (c *canvas) window(panel *surface, name, text string, keyWait bool) {
	rows := max(c.h/4, 4)
	dx := int(panel.x * float64(c.w) / designWidth)
	dy := -int(panel.y * float64(c.h) / designHeight)
	x0, y0 := 1+dx, c.h-rows-1+dy
	x1, y1 := c.w-2+dx, c.h-2+dy

	edge := tcell.StyleDefault.Foreground(c.dim(windowEdge)).Background(c.dim(windowFill))
	fill := tcell.StyleDefault.Background(c.dim(windowFill))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			r := ' '
			switch {
			case y == y0 || y == y1:
				r = tcell.RuneHLine
			case x == x0 || x == x1:
				r = tcell.RuneVLine
			}
			st := fill
			if r != ' ' {
				st = edge
			}
			c.set(x, y, r, st)
		}
	}
	c.set(x0, y0, tcell.RuneULCorner, edge)
	c.set(x1, y0, tcell.RuneURCorner, edge)
	c.set(x0, y1, tcell.RuneLLCorner, edge)
	c.set(x1, y1, tcell.RuneLRCorner, edge)

	if name != "" {
		c.text(x0+2, y0, " "+name+" ", fill.Foreground(c.dim(nameColor)).Bold(true))
	}
	body := fill.Foreground(c.dim(textColor))
	for i, line := range wrap(text, x1-x0-3) {
		if y0+1+i >= y1 {
			break
		}
		c.text(x0+2, y0+1+i, line, body)
	}
	if keyWait {
		c.set(x1-2, y1-1, keyWaitIcon, body)
	}
}

// wrap breaks text into lines no wider than width display columns. Explicit
// newlines are kept.
func wrap(text string, width int) []string {
	if width <= 0 || text == "" {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		var b strings.Builder
		w := 0
		for _, r := range para {
			rw := runewidth.RuneWidth(r)
			if w+rw > width {
				lines = append(lines, b.String())
				b.Reset()
				w = 0
			}
			b.WriteRune(r)
			w += rw
		}
		lines = append(lines, b.String())
	}
	return lines
}
