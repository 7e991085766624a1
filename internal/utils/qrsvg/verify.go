package qrsvg

import (
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

var ErrVerify = errors.New("composed qr code does not decode to its target")

// Verifier decodes a rendered symbol to confirm overlays left it readable.
type Verifier struct{}

func NewVerifier() Verifier {
	return Verifier{}
}

func (Verifier) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", err
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", err
	}
	return result.GetText(), nil
}

func (v Verifier) Verify(img image.Image, want string) error {
	got, err := v.Decode(img)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerify, err)
	}
	if got != want {
		return fmt.Errorf("%w: decoded %q", ErrVerify, got)
	}
	return nil
}
