package entities

import (
	"github.com/google/uuid"
)

type QRCode struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	RestaurantID string    `gorm:"index;not null" json:"restaurant_id"`
	Type         string    `gorm:"not null" json:"type"` // TABLE, TAKEOUT, SPECIAL
	TableNumber  *string   `json:"table_number,omitempty"`
	MenuID       *string   `json:"menu_id,omitempty"`
	CustomURL    *string   `json:"custom_url,omitempty"`
	TargetURL    string    `gorm:"not null" json:"target_url"`
	SVGString    string    `gorm:"type:text;not null" json:"svg_string"`
	Style        QRStyle   `gorm:"embedded;embeddedPrefix:style_" json:"style"`
	LogoURL      string    `json:"logo_url,omitempty"`
	Scans        int64     `gorm:"not null" json:"scans"`

	Timestamp
}

type QRStyle struct {
	Design          string  `json:"design"`
	PrimaryColor    string  `json:"primary_color"`
	BackgroundColor string  `json:"background_color"`
	Size            string  `json:"size"`        // small, medium, large
	ErrorLevel      string  `json:"error_level"` // L, M, Q, H
	HasLogo         bool    `json:"has_logo"`
	CustomText      *string `json:"custom_text,omitempty"`
}
