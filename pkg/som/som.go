// Package som draws set-of-mark annotations on page screenshots: an outlined
// box and a numeric label for every interactive region, so a vision model can
// refer to elements by id.
package som

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	"image/png"
	"math"
	"sort"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/entrhq/surfer/pkg/browser"
)

// Model input size of the scaled screenshot.
const (
	ModelWidth  = 1224
	ModelHeight = 765
)

const (
	outlineWidth = 2
	labelPadding = 2
)

var palette = []color.RGBA{
	{R: 230, G: 25, B: 75, A: 255},
	{R: 60, G: 140, B: 75, A: 255},
	{R: 0, G: 90, B: 200, A: 255},
	{R: 245, G: 130, B: 48, A: 255},
	{R: 145, G: 30, B: 180, A: 255},
	{R: 0, G: 150, B: 150, A: 255},
	{R: 200, G: 30, B: 160, A: 255},
	{R: 128, G: 100, B: 0, A: 255},
	{R: 0, G: 0, B: 128, A: 255},
	{R: 128, G: 0, B: 0, A: 255},
}

// Annotate decodes a PNG screenshot and draws a box and label for every rect of
// every region that intersects the image. It returns the annotated image and
// the ids that were drawn, sorted numerically.
func Annotate(screenshot []byte, regions map[string]browser.InteractiveRegion) (*image.RGBA, []string, error) {
	src, err := Decode(screenshot)
	if err != nil {
		return nil, nil, err
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	stddraw.Draw(canvas, bounds, src, bounds.Min, stddraw.Src)

	ids := SortIDs(keys(regions))
	var visible []string
	for i, id := range ids {
		c := palette[i%len(palette)]
		drawn := false
		for _, r := range regions[id].Rects {
			box := toRectangle(r)
			if !box.Overlaps(bounds) {
				continue
			}
			outline(canvas, box.Intersect(bounds), c)
			label(canvas, box, id, c)
			drawn = true
		}
		if drawn {
			visible = append(visible, id)
		}
	}
	return canvas, visible, nil
}

func keys(regions map[string]browser.InteractiveRegion) []string {
	out := make([]string, 0, len(regions))
	for id := range regions {
		out = append(out, id)
	}
	return out
}

// SortIDs orders element ids numerically; non-numeric ids sort after, lexically.
func SortIDs(ids []string) []string {
	sorted := append([]string(nil), ids...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, errA := strconv.Atoi(sorted[i])
		b, errB := strconv.Atoi(sorted[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return sorted[i] < sorted[j]
		}
	})
	return sorted
}

func toRectangle(r browser.Rect) image.Rectangle {
	x0 := int(math.Round(r.Left))
	y0 := int(math.Round(r.Top))
	x1 := int(math.Round(r.Left + r.Width))
	y1 := int(math.Round(r.Top + r.Height))
	return image.Rect(x0, y0, x1, y1)
}

func outline(dst *image.RGBA, box image.Rectangle, c color.Color) {
	fill := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+outlineWidth),
		image.Rect(box.Min.X, box.Max.Y-outlineWidth, box.Max.X, box.Max.Y),
		image.Rect(box.Min.X, box.Min.Y, box.Min.X+outlineWidth, box.Max.Y),
		image.Rect(box.Max.X-outlineWidth, box.Min.Y, box.Max.X, box.Max.Y),
	}
	for _, e := range edges {
		stddraw.Draw(dst, e.Intersect(dst.Bounds()), fill, image.Point{}, stddraw.Over)
	}
}

// label draws the id on a filled tag just above the box, or inside it when the
// box touches the top edge.
func label(dst *image.RGBA, box image.Rectangle, id string, c color.Color) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, id).Ceil()
	height := face.Metrics().Height.Ceil()

	tag := image.Rect(0, 0, textWidth+2*labelPadding, height+2*labelPadding)
	origin := image.Pt(box.Min.X, box.Min.Y-tag.Dy())
	if origin.Y < dst.Bounds().Min.Y {
		origin.Y = box.Min.Y
	}
	tag = tag.Add(origin).Intersect(dst.Bounds())
	if tag.Empty() {
		return
	}
	stddraw.Draw(dst, tag, image.NewUniform(c), image.Point{}, stddraw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(tag.Min.X+labelPadding, tag.Min.Y+labelPadding+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(id)
}

// Decode decodes a PNG screenshot.
func Decode(screenshot []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(screenshot))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return img, nil
}

// Scale resizes img to width x height.
func Scale(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
