package qrcode

import (
	"Go-QR-Studio/entities"
	"context"

	"gorm.io/gorm"
)

type (
	QRCodeRepository interface {
		CreateQRCode(ctx context.Context, qrCode *entities.QRCode) error
		GetQRCodeByRestaurantAndID(ctx context.Context, restaurantID, id string) (*entities.QRCode, error)
		GetQRCodesByRestaurant(ctx context.Context, restaurantID string) ([]*entities.QRCode, error)
		IncrementScans(ctx context.Context, restaurantID, id string) (int64, error)
	}

	qrCodeRepository struct {
		db *gorm.DB
	}
)

func NewQRCodeRepository(db *gorm.DB) QRCodeRepository {
	return &qrCodeRepository{db: db}
}

func (r *qrCodeRepository) CreateQRCode(ctx context.Context, qrCode *entities.QRCode) error {
	return r.db.WithContext(ctx).Create(qrCode).Error
}

func (r *qrCodeRepository) GetQRCodeByRestaurantAndID(ctx context.Context, restaurantID, id string) (*entities.QRCode, error) {
	var qrCode entities.QRCode
	if err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND id = ?", restaurantID, id).
		First(&qrCode).Error; err != nil {
		return nil, err
	}
	return &qrCode, nil
}

func (r *qrCodeRepository) GetQRCodesByRestaurant(ctx context.Context, restaurantID string) ([]*entities.QRCode, error) {
	var qrCodes []*entities.QRCode
	if err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at desc").
		Find(&qrCodes).Error; err != nil {
		return nil, err
	}
	return qrCodes, nil
}

// IncrementScans bumps the counter in a single UPDATE and reports how many
// rows matched the restaurant scope.
func (r *qrCodeRepository) IncrementScans(ctx context.Context, restaurantID, id string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entities.QRCode{}).
		Where("restaurant_id = ? AND id = ?", restaurantID, id).
		UpdateColumn("scans", gorm.Expr("scans + ?", 1))
	return res.RowsAffected, res.Error
}
