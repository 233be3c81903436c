package figure

import (
	"image"

	"golang.org/x/image/draw"
)

// Placement positions a figure inside its render target: an offset of the
// figure center from the target center, and a uniform scale.
type Placement struct {
	X, Y  float64
	Scale float64
}

// pose returns the rectangle part i occupies after applying every track.
func (c *Controller) pose(i int) image.Rectangle {
	p := &c.skel.Parts[i]
	dx, dy, sy := 0.0, 0.0, 1.0
	for t := range c.tracks {
		tr := &c.tracks[t]
		if tr.anim == nil || tr.anim.Part != p.Name {
			continue
		}
		w := tr.weight()
		dx += tr.anim.DX * w
		dy += tr.anim.DY * w
		if scale := tr.anim.ScaleY; scale != nil {
			sy *= 1 + (*scale-1)*w
		}
	}
	h := float64(p.H) * sy
	// squash around the vertical center of the part
	top := float64(p.Y) + (float64(p.H)-h)/2 + dy
	x0 := int(float64(p.X) + dx)
	y0 := int(top)
	return image.Rect(x0, y0, x0+p.W, y0+int(h+0.5))
}

// Render draws the posed figure into dst, replacing its previous contents.
func (c *Controller) Render(dst *image.RGBA, at Placement) {
	if c.canvas == nil {
		c.canvas = image.NewRGBA(image.Rect(0, 0, c.skel.Width, c.skel.Height))
	}
	clear(c.canvas.Pix)
	for i := range c.skel.Parts {
		r := c.pose(i).Intersect(c.canvas.Bounds())
		if r.Empty() {
			continue
		}
		draw.Draw(c.canvas, r, &image.Uniform{C: c.skel.Parts[i].fill}, image.Point{}, draw.Over)
	}

	clear(dst.Pix)
	scale := at.Scale
	if scale <= 0 {
		scale = 1
	}
	b := dst.Bounds()
	w := float64(c.skel.Width) * scale
	h := float64(c.skel.Height) * scale
	cx := float64(b.Min.X+b.Max.X)/2 + at.X
	cy := float64(b.Min.Y+b.Max.Y)/2 + at.Y
	dr := image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2))
	if dr.Empty() {
		return
	}
	draw.ApproxBiLinear.Scale(dst, dr, c.canvas, c.canvas.Bounds(), draw.Over, nil)
}
