package qrsvg

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var ErrRaster = errors.New("failed to rasterize qr document")

// Exporter produces the vector and raster forms of a composed document.
type Exporter struct{}

func NewExporter() Exporter {
	return Exporter{}
}

func (Exporter) AsVector(markup string) []byte {
	return []byte(markup)
}

// AsRaster renders markup to a PNG of the given width; the height follows the
// viewBox aspect ratio.
func (e Exporter) AsRaster(markup string, width int) ([]byte, error) {
	img, err := e.Rasterize(markup, width)
	if err != nil {
		return nil, err
	}
	return e.EncodePNG(img)
}

func (Exporter) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRaster, err)
	}
	return buf.Bytes(), nil
}

// Rasterize draws the geometry with oksvg, then paints the image and text
// elements oksvg does not render.
func (Exporter) Rasterize(markup string, width int) (*image.RGBA, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: width must be positive", ErrRaster)
	}
	vb, err := ParseViewBox(markup)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRaster, err)
	}

	icon, err := oksvg.ReadIconStream(strings.NewReader(markup), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRaster, err)
	}

	height := int(math.Round(float64(width) * vb.Height / vb.Width))
	if height <= 0 {
		height = 1
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	if err := paintOverlays(img, markup, vb, float64(width)/vb.Width); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRaster, err)
	}
	return img, nil
}

func paintOverlays(dst *image.RGBA, markup string, vb ViewBox, scale float64) error {
	dec := xml.NewDecoder(strings.NewReader(markup))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "image":
			paintImage(dst, se, vb, scale)
		case "text":
			var text strings.Builder
			for {
				inner, err := dec.Token()
				if err != nil {
					return err
				}
				if cd, ok := inner.(xml.CharData); ok {
					text.Write(cd)
				}
				if ee, ok := inner.(xml.EndElement); ok && ee.Name.Local == "text" {
					break
				}
			}
			paintText(dst, se, strings.TrimSpace(text.String()), vb, scale)
		}
	}
}

// paintImage draws a data-URI image fitted into its box. Elements that do not
// decode are skipped.
func paintImage(dst *image.RGBA, se xml.StartElement, vb ViewBox, scale float64) {
	href := attr(se, "href")
	if !strings.HasPrefix(href, "data:") {
		return
	}
	comma := strings.IndexByte(href, ',')
	if comma < 0 || !strings.HasSuffix(href[:comma], ";base64") {
		return
	}
	data, err := base64.StdEncoding.DecodeString(href[comma+1:])
	if err != nil {
		return
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return
	}

	x, y := attrFloat(se, "x"), attrFloat(se, "y")
	w, h := attrFloat(se, "width"), attrFloat(se, "height")
	if w <= 0 || h <= 0 {
		return
	}

	sb := src.Bounds()
	fit := math.Min(w/float64(sb.Dx()), h/float64(sb.Dy()))
	fw, fh := float64(sb.Dx())*fit, float64(sb.Dy())*fit
	left := (x + (w-fw)/2 - vb.MinX) * scale
	top := (y + (h-fh)/2 - vb.MinY) * scale
	rect := image.Rect(
		int(math.Round(left)), int(math.Round(top)),
		int(math.Round(left+fw*scale)), int(math.Round(top+fh*scale)),
	)
	draw.CatmullRom.Scale(dst, rect, src, sb, draw.Over, nil)
}

// paintText renders with the built-in bitmap face, scaled to font-size.
func paintText(dst *image.RGBA, se xml.StartElement, text string, vb ViewBox, scale float64) {
	if text == "" {
		return
	}
	fill, ok := parseHexColor(attr(se, "fill"))
	if !ok {
		fill = color.RGBA{A: 0xff}
	}
	fontSize := attrFloat(se, "font-size")
	if fontSize <= 0 {
		fontSize = captionFontSize
	}

	face := basicfont.Face7x13
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := ascent + metrics.Descent.Ceil()
	advance := font.MeasureString(face, text).Ceil()
	if advance <= 0 || lineHeight <= 0 {
		return
	}

	glyphs := image.NewRGBA(image.Rect(0, 0, advance, lineHeight))
	drawer := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(fill),
		Face: face,
		Dot:  fixed.P(0, ascent),
	}
	drawer.DrawString(text)

	k := fontSize * scale / float64(lineHeight)
	w, h := float64(advance)*k, float64(lineHeight)*k
	cx := (attrFloat(se, "x") - vb.MinX) * scale
	cy := (attrFloat(se, "y") - vb.MinY) * scale

	left := cx
	switch attr(se, "text-anchor") {
	case "middle":
		left = cx - w/2
	case "end":
		left = cx - w
	}
	top := cy - float64(ascent)*k
	if attr(se, "dominant-baseline") == "middle" {
		top = cy - h/2
	}

	rect := image.Rect(
		int(math.Round(left)), int(math.Round(top)),
		int(math.Round(left+w)), int(math.Round(top+h)),
	)
	draw.ApproxBiLinear.Scale(dst, rect, glyphs, glyphs.Bounds(), draw.Over, nil)
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func attrFloat(se xml.StartElement, name string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(attr(se, name)), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseHexColor(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}
