package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

const (
	QRSizeSmall  = "small"
	QRSizeMedium = "medium"
	QRSizeLarge  = "large"

	QRTypeTable   = "TABLE"
	QRTypeTakeout = "TAKEOUT"
	QRTypeSpecial = "SPECIAL"

	QRFormatSVG = "svg"
	QRFormatPNG = "png"

	QRDesignClassic = "classic"
)

var (
	MessageSuccessGetQRCodes = "qr codes retrieved successfully"

	MessageFailedCreateQRCode   = "failed to create qr code"
	MessageFailedPreviewQRCode  = "failed to generate qr code preview"
	MessageFailedGetQRCodes     = "failed to retrieve qr codes"
	MessageFailedDownloadQRCode = "failed to download qr code"

	ErrQRValidation    = errors.New("invalid qr code request")
	ErrQREncoding      = errors.New("failed to encode qr code")
	ErrQRRender        = errors.New("failed to render qr code")
	ErrQRCodeNotFound  = errors.New("qr code not found")
	ErrQRStore         = errors.New("qr code store failure")
	ErrInvalidQRFormat = errors.New("format must be svg or png")
)

// qrSizeWidths maps a size class to the raster width in pixels.
var qrSizeWidths = map[string]int{
	QRSizeSmall:  200,
	QRSizeMedium: 300,
	QRSizeLarge:  400,
}

// QRSizeWidth returns the pixel width for a size class, falling back to medium.
func QRSizeWidth(size string) int {
	if w, ok := qrSizeWidths[size]; ok {
		return w
	}
	return qrSizeWidths[QRSizeMedium]
}

type (
	// QRCodeRequest is the create/preview form. Logo is bound from the "logo"
	// multipart file by the handler.
	QRCodeRequest struct {
		Design          string                `json:"design" form:"design" validate:"omitempty,max=50"`
		PrimaryColor    string                `json:"primaryColor" form:"primaryColor" validate:"required,rgbcolor"`
		BackgroundColor string                `json:"backgroundColor" form:"backgroundColor" validate:"required,rgbcolor"`
		Size            string                `json:"size" form:"size" validate:"required,oneof=small medium large"`
		ErrorLevel      string                `json:"errorLevel" form:"errorLevel" validate:"required,oneof=L M Q H"`
		Type            string                `json:"type" form:"type" validate:"required,oneof=TABLE TAKEOUT SPECIAL"`
		TableNumber     string                `json:"tableNumber" form:"tableNumber" validate:"required_if=Type TABLE,max=20"`
		CustomText      string                `json:"customText" form:"customText" validate:"max=60"`
		HasLogo         bool                  `json:"hasLogo" form:"hasLogo"`
		Logo            *multipart.FileHeader `json:"-" form:"-"`
		MenuID          string                `json:"menuId" form:"menuId" validate:"omitempty,max=100"`
		CustomURL       string                `json:"customUrl" form:"customUrl" validate:"omitempty,url"`
	}

	QRStyleResponse struct {
		Design          string  `json:"design"`
		PrimaryColor    string  `json:"primaryColor"`
		BackgroundColor string  `json:"backgroundColor"`
		Size            string  `json:"size"`
		ErrorLevel      string  `json:"errorLevel"`
		HasLogo         bool    `json:"hasLogo"`
		CustomText      *string `json:"customText,omitempty"`
	}

	QRCodeResponse struct {
		ID           string          `json:"id"`
		RestaurantID string          `json:"restaurantId"`
		Type         string          `json:"type"`
		TableNumber  *string         `json:"tableNumber,omitempty"`
		MenuID       *string         `json:"menuId,omitempty"`
		CustomURL    *string         `json:"customUrl,omitempty"`
		TargetURL    string          `json:"targetUrl"`
		Style        QRStyleResponse `json:"style"`
		LogoURL      string          `json:"logoUrl,omitempty"`
		SVGString    string          `json:"svgString"`
		Scans        int64           `json:"scans"`
		CreatedAt    time.Time       `json:"createdAt"`
	}

	CreateQRCodeResponse struct {
		Success      bool           `json:"success"`
		QRCode       QRCodeResponse `json:"qrCode"`
		SVGString    string         `json:"svgString"`
		Degradations []string       `json:"degradations,omitempty"`
	}

	PreviewQRCodeResponse struct {
		SVGString    string   `json:"svgString"`
		SVGDataURL   string   `json:"svgDataUrl"`
		PNGDataURL   string   `json:"pngDataUrl"`
		Width        int      `json:"width"`
		Degradations []string `json:"degradations,omitempty"`
	}

	QRCodeDownload struct {
		FileName    string
		ContentType string
		Content     []byte
	}
)
