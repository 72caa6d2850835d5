package chart

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// captionHeight is the strip above each panel holding its caption.
const captionHeight = 20

// Panel is one image of a composite, with the caption drawn above it.
type Panel struct {
	Caption string
	Image   image.Image
}

// Composite lays panels out left to right on a white canvas with pad pixels
// around and between them. The canvas is as tall as the tallest panel plus
// the caption strip. It returns nil when panels is empty.
func Composite(panels []Panel, pad int) image.Image {
	if len(panels) == 0 {
		return nil
	}

	width, height := pad, 0
	for _, p := range panels {
		b := p.Image.Bounds()
		width += b.Dx() + pad
		height = max(height, b.Dy())
	}
	height += captionHeight + 2*pad

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: canvas, Src: image.NewUniform(color.Black), Face: face}

	x := pad
	for _, p := range panels {
		b := p.Image.Bounds()
		top := pad + captionHeight
		draw.Draw(canvas, image.Rect(x, top, x+b.Dx(), top+b.Dy()), p.Image, b.Min, draw.Over)

		if p.Caption != "" {
			caption := fitCaption(dr, p.Caption, b.Dx())
			tw := dr.MeasureString(caption).Ceil()
			cx := x + (b.Dx()-tw)/2
			dr.Dot = fixed.Point26_6{X: fixed.I(cx), Y: fixed.I(pad + face.Metrics().Ascent.Ceil())}
			dr.DrawString(caption)
		}
		x += b.Dx() + pad
	}
	return canvas
}

// fitCaption shortens s rune by rune until it fits in width pixels.
func fitCaption(dr *font.Drawer, s string, width int) string {
	if dr.MeasureString(s).Ceil() <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		c := string(r) + "..."
		if dr.MeasureString(c).Ceil() <= width {
			return c
		}
	}
	return ""
}
