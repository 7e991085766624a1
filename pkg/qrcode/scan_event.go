package qrcode

import (
	"Go-QR-Studio/domain"
	"context"
	"fmt"
)

type (
	// ScanEvent is emitted once a stored code has been fetched for download.
	ScanEvent struct {
		RestaurantID string
		QRCodeID     string
	}

	// ScanCounter is the atomic increment capability of the record store.
	ScanCounter interface {
		IncrementScans(ctx context.Context, restaurantID, id string) (int64, error)
	}

	ScanRecorder interface {
		Record(ctx context.Context, event ScanEvent) error
	}

	scanRecorder struct {
		counter ScanCounter
	}
)

func NewScanRecorder(counter ScanCounter) ScanRecorder {
	return &scanRecorder{counter: counter}
}

func (r *scanRecorder) Record(ctx context.Context, event ScanEvent) error {
	n, err := r.counter.IncrementScans(ctx, event.RestaurantID, event.QRCodeID)
	if err != nil {
		return fmt.Errorf("%w: increment scans: %v", domain.ErrQRStore, err)
	}
	if n == 0 {
		return domain.ErrQRCodeNotFound
	}
	return nil
}
