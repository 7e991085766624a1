package qrcode

import (
	"Go-QR-Studio/domain"
	"Go-QR-Studio/entities"
	"Go-QR-Studio/internal/utils/qrsvg"
	"Go-QR-Studio/internal/utils/storage"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// commitStrategy is the only step where preview and create differ.
type commitStrategy interface {
	commit(ctx context.Context, restaurantID string, req domain.QRCodeRequest, r *rendering) (*entities.QRCode, error)
}

type previewCommit struct{}

func (previewCommit) commit(context.Context, string, domain.QRCodeRequest, *rendering) (*entities.QRCode, error) {
	return nil, nil
}

type persistCommit struct {
	repo    QRCodeRepository
	storage storage.Storage
}

func (p persistCommit) commit(ctx context.Context, restaurantID string, req domain.QRCodeRequest, r *rendering) (*entities.QRCode, error) {
	now := time.Now()
	qrCode := &entities.QRCode{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Type:         req.Type,
		TableNumber:  optional(req.TableNumber),
		MenuID:       optional(req.MenuID),
		CustomURL:    optional(req.CustomURL),
		TargetURL:    r.target,
		SVGString:    r.markup,
		Style: entities.QRStyle{
			Design:          req.Design,
			PrimaryColor:    req.PrimaryColor,
			BackgroundColor: req.BackgroundColor,
			Size:            req.Size,
			ErrorLevel:      string(r.level),
			HasLogo:         req.HasLogo,
			CustomText:      optional(req.CustomText),
		},
		Scans: 0,
		Timestamp: entities.Timestamp{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	var logoKey string
	if r.logoAdded && p.storage != nil {
		key, err := p.storage.UploadFile(ctx, "qr-"+qrCode.ID.String(), req.Logo, logoFolder, storage.AllowImage...)
		if err != nil {
			r.degrade(qrsvg.OverlayLogo, fmt.Errorf("upload: %w", err))
		} else {
			logoKey = key
			qrCode.LogoURL = p.storage.GetPublicLinkKey(key)
		}
	}

	if err := p.repo.CreateQRCode(ctx, qrCode); err != nil {
		if logoKey != "" {
			if delErr := p.storage.DeleteFile(ctx, logoKey); delErr != nil {
				log.Errorf("failed to remove orphaned logo %s: %v", logoKey, delErr)
			}
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrQRStore, err)
	}
	return qrCode, nil
}
