package qrsvg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

var SupportedLogoTypes = []string{"image/png", "image/jpeg"}

var (
	ErrUnsupportedLogo = errors.New("unsupported logo type")
	ErrUnreadableLogo  = errors.New("unreadable logo image")
)

// LogoInput is an uploaded logo as received, before any checks.
type LogoInput struct {
	Data     []byte
	MimeType string
}

type Logo struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// LoadLogo checks that the declared and sniffed types are supported raster
// formats and that the bytes decode.
func LoadLogo(data []byte, declared string) (*Logo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnreadableLogo)
	}

	if declared != "" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedLogo, declared)
		}
		if !slices.Contains(SupportedLogoTypes, mediaType) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedLogo, mediaType)
		}
	}

	detected := mimetype.Detect(data)
	mimeType := ""
	for _, t := range SupportedLogoTypes {
		if detected.Is(t) {
			mimeType = t
			break
		}
	}
	if mimeType == "" {
		return nil, fmt.Errorf("%w: detected %s", ErrUnsupportedLogo, detected.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableLogo, err)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: zero-sized image", ErrUnreadableLogo)
	}

	return &Logo{
		Data:     data,
		MimeType: mimeType,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}
