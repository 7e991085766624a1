package qrsvg

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Level is a QR error-correction tier.
type Level string

const (
	LevelL Level = "L"
	LevelM Level = "M"
	LevelQ Level = "Q"
	LevelH Level = "H"
)

const (
	DefaultMargin     = 4
	DefaultDarkColor  = "#000000"
	DefaultLightColor = "#ffffff"
)

var ErrEncode = errors.New("failed to encode qr symbol")

type EncodeOptions struct {
	Level      Level
	DarkColor  string
	LightColor string
	Margin     int
	PixelWidth int
}

// Encoder turns text into a standalone SVG symbol whose viewBox is measured in
// pixels of the requested width.
type Encoder interface {
	Encode(text string, opts EncodeOptions) (string, error)
}

type bitmapEncoder struct{}

func NewEncoder() Encoder {
	return bitmapEncoder{}
}

func (bitmapEncoder) Encode(text string, opts EncodeOptions) (string, error) {
	if opts.PixelWidth <= 0 {
		return "", fmt.Errorf("%w: pixel width must be positive", ErrEncode)
	}
	if opts.Margin < 0 {
		opts.Margin = DefaultMargin
	}
	if opts.DarkColor == "" {
		opts.DarkColor = DefaultDarkColor
	}
	if opts.LightColor == "" {
		opts.LightColor = DefaultLightColor
	}

	q, err := qrcode.New(text, recoveryLevel(opts.Level))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncode, err)
	}
	q.DisableBorder = true
	bitmap := q.Bitmap()

	cells := len(bitmap) + 2*opts.Margin
	cell, offset := modulePitch(opts.PixelWidth, cells)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		opts.PixelWidth, opts.PixelWidth, opts.PixelWidth, opts.PixelWidth)
	fmt.Fprintf(&b, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		opts.PixelWidth, opts.PixelWidth, escape(opts.LightColor))
	fmt.Fprintf(&b, `<path fill="%s" d="`, escape(opts.DarkColor))

	// one subpath per horizontal run of dark modules
	for y, row := range bitmap {
		top := offset + float64(y+opts.Margin)*cell
		bottom := top + cell
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			start := x
			for x < len(row) && row[x] {
				x++
			}
			left := offset + float64(start+opts.Margin)*cell
			right := offset + float64(x+opts.Margin)*cell
			fmt.Fprintf(&b, "M%s %sH%sV%sH%sZ",
				fmtNum(left), fmtNum(top), fmtNum(right), fmtNum(bottom), fmtNum(left))
		}
	}
	b.WriteString(`"/></svg>`)
	return b.String(), nil
}

// modulePitch snaps modules to whole pixels and centers the symbol, leaving
// the remainder as extra quiet zone. Symbols wider than the canvas fall back
// to a fractional pitch.
func modulePitch(width, cells int) (cell, offset float64) {
	whole := width / cells
	if whole < 1 {
		return float64(width) / float64(cells), 0
	}
	return float64(whole), float64((width - whole*cells) / 2)
}

func recoveryLevel(level Level) qrcode.RecoveryLevel {
	switch level {
	case LevelL:
		return qrcode.Low
	case LevelQ:
		return qrcode.High
	case LevelH:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// fmtNum renders layout units with at most three decimals so output stays
// byte-stable across platforms.
func fmtNum(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
