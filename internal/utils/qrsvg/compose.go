package qrsvg

import (
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// CaptionBand is the canvas height, in layout units, added below the
	// symbol when a caption is requested.
	CaptionBand = 40.0
	// LogoRatio sizes the logo square against min(viewBox width, height).
	LogoRatio = 0.2
	// BackdropPadding is added on every side of the logo, relative to its size.
	BackdropPadding = 0.1

	captionFontSize = 16.0
	closingTag      = "</svg>"
)

const (
	OverlayCaption = "caption"
	OverlayLogo    = "logo"
)

var (
	ErrNoRoot    = errors.New("document has no svg root")
	ErrNoViewBox = errors.New("document has no usable viewBox")
)

var (
	rootTagPattern = regexp.MustCompile(`<svg\b[^>]*>`)
	viewBoxPattern = regexp.MustCompile(`viewBox="([^"]*)"`)
	heightPattern  = regexp.MustCompile(`(\s)height="([0-9.]+)"`)
)

type ViewBox struct {
	MinX, MinY, Width, Height float64
}

func (v ViewBox) String() string {
	return fmtNum(v.MinX) + " " + fmtNum(v.MinY) + " " + fmtNum(v.Width) + " " + fmtNum(v.Height)
}

// Box is a square placed in viewBox coordinates.
type Box struct {
	X, Y, Size float64
}

// Degradation records an overlay that was skipped.
type Degradation struct {
	Overlay string
	Reason  string
}

func (d Degradation) String() string {
	return d.Overlay + ": " + d.Reason
}

type Overlay struct {
	Caption    string
	DarkColor  string
	LightColor string
	Logo       *LogoInput
}

type Composition struct {
	Markup       string
	CaptionAdded bool
	LogoAdded    bool
	Degradations []Degradation
}

func (c *Composition) degrade(overlay string, err error) {
	c.Degradations = append(c.Degradations, Degradation{Overlay: overlay, Reason: err.Error()})
}

// Composer lays caption and logo overlays on top of an encoded symbol. It
// only appends elements and rewrites the root viewBox; module geometry is left
// untouched.
type Composer struct {
	CaptionBand     float64
	LogoRatio       float64
	BackdropPadding float64
}

func NewComposer() Composer {
	return Composer{
		CaptionBand:     CaptionBand,
		LogoRatio:       LogoRatio,
		BackdropPadding: BackdropPadding,
	}
}

func (c Composer) Compose(markup string, ov Overlay) Composition {
	out := Composition{Markup: markup}
	caption := strings.TrimSpace(ov.Caption)
	if caption == "" && ov.Logo == nil {
		return out
	}

	vb, err := ParseViewBox(markup)
	if err == nil && strings.LastIndex(markup, closingTag) < 0 {
		err = fmt.Errorf("%w: missing %s", ErrNoRoot, closingTag)
	}
	if err != nil {
		if caption != "" {
			out.degrade(OverlayCaption, err)
		}
		if ov.Logo != nil {
			out.degrade(OverlayLogo, err)
		}
		return out
	}

	dark := ov.DarkColor
	if dark == "" {
		dark = DefaultDarkColor
	}
	light := ov.LightColor
	if light == "" {
		light = DefaultLightColor
	}

	var overlays strings.Builder
	if caption != "" {
		extended := vb
		extended.Height += c.CaptionBand
		out.Markup = resizeRoot(out.Markup, vb, extended)
		c.writeCaption(&overlays, caption, vb, dark)
		vb = extended
		out.CaptionAdded = true
	}

	if ov.Logo != nil {
		logo, err := LoadLogo(ov.Logo.Data, ov.Logo.MimeType)
		if err != nil {
			out.degrade(OverlayLogo, err)
		} else {
			c.writeLogo(&overlays, logo, c.LogoBox(vb), light)
			out.LogoAdded = true
		}
	}

	if overlays.Len() > 0 {
		i := strings.LastIndex(out.Markup, closingTag)
		out.Markup = out.Markup[:i] + overlays.String() + out.Markup[i:]
	}
	return out
}

// LogoBox centers a square of LogoRatio*min(w,h) in the viewBox.
func (c Composer) LogoBox(vb ViewBox) Box {
	size := math.Min(vb.Width, vb.Height) * c.LogoRatio
	return Box{
		X:    vb.MinX + (vb.Width-size)/2,
		Y:    vb.MinY + (vb.Height-size)/2,
		Size: size,
	}
}

// BackdropBox is the logo box grown by BackdropPadding on every side.
func (c Composer) BackdropBox(logo Box) Box {
	pad := logo.Size * c.BackdropPadding
	return Box{X: logo.X - pad, Y: logo.Y - pad, Size: logo.Size + 2*pad}
}

func (c Composer) writeCaption(b *strings.Builder, caption string, vb ViewBox, fill string) {
	fmt.Fprintf(b,
		`<text data-overlay="caption" x="%s" y="%s" text-anchor="middle" dominant-baseline="middle" font-family="Arial, Helvetica, sans-serif" font-size="%s" fill="%s">`,
		fmtNum(vb.MinX+vb.Width/2), fmtNum(vb.MinY+vb.Height+c.CaptionBand/2), fmtNum(captionFontSize), escape(fill))
	b.WriteString(escape(caption))
	b.WriteString("</text>")
}

func (c Composer) writeLogo(b *strings.Builder, logo *Logo, box Box, backdropFill string) {
	backdrop := c.BackdropBox(box)
	fmt.Fprintf(b, `<rect data-overlay="logo-backdrop" x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
		fmtNum(backdrop.X), fmtNum(backdrop.Y), fmtNum(backdrop.Size), fmtNum(backdrop.Size), escape(backdropFill))
	fmt.Fprintf(b, `<image data-overlay="logo" x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="xMidYMid meet" href="data:%s;base64,%s"/>`,
		fmtNum(box.X), fmtNum(box.Y), fmtNum(box.Size), fmtNum(box.Size),
		logo.MimeType, base64.StdEncoding.EncodeToString(logo.Data))
}

// ParseViewBox reads the viewBox of the root svg element.
func ParseViewBox(markup string) (ViewBox, error) {
	root := rootTagPattern.FindString(markup)
	if root == "" {
		return ViewBox{}, ErrNoRoot
	}
	m := viewBoxPattern.FindStringSubmatch(root)
	if m == nil {
		return ViewBox{}, ErrNoViewBox
	}
	fields := strings.FieldsFunc(m[1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return ViewBox{}, fmt.Errorf("%w: %q", ErrNoViewBox, m[1])
	}
	var vals [4]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return ViewBox{}, fmt.Errorf("%w: %q", ErrNoViewBox, m[1])
		}
		vals[i] = v
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return ViewBox{}, fmt.Errorf("%w: %q", ErrNoViewBox, m[1])
	}
	return ViewBox{MinX: vals[0], MinY: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// resizeRoot rewrites the root viewBox and scales a numeric height attribute
// by the same factor so the rendered aspect ratio follows the canvas.
func resizeRoot(markup string, from, to ViewBox) string {
	loc := rootTagPattern.FindStringIndex(markup)
	if loc == nil {
		return markup
	}
	root := markup[loc[0]:loc[1]]
	root = viewBoxPattern.ReplaceAllLiteralString(root, `viewBox="`+to.String()+`"`)
	root = heightPattern.ReplaceAllStringFunc(root, func(attr string) string {
		sub := heightPattern.FindStringSubmatch(attr)
		h, err := strconv.ParseFloat(sub[2], 64)
		if err != nil {
			return attr
		}
		return sub[1] + `height="` + fmtNum(h*to.Height/from.Height) + `"`
	})
	return markup[:loc[0]] + root + markup[loc[1]:]
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
