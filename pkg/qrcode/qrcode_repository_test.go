package qrcode_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Go-QR-Studio/pkg/qrcode"
)

func newMockRepository(t *testing.T) (qrcode.QRCodeRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return qrcode.NewQRCodeRepository(db), mock
}

func TestQRCodeRepository_GetQRCodeByRestaurantAndID(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "qr_codes" WHERE .*restaurant_id = \$1 AND id = \$2.*"qr_codes"."deleted_at" IS NULL`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "restaurant_id", "type", "target_url", "svg_string", "scans"}).
						AddRow(id, "r1", "TAKEOUT", "https://app.test", "<svg/>", 3))
			},
		},
		{
			name: "out of scope",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "qr_codes" WHERE .*restaurant_id = \$1 AND id = \$2`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			wantErr: gorm.ErrRecordNotFound,
		},
		{
			name: "store failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "qr_codes"`).WillReturnError(errors.New("connection reset"))
			},
			wantErr: errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			tt.setup(mock)

			got, err := repo.GetQRCodeByRestaurantAndID(context.Background(), "r1", id.String())
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, gorm.ErrRecordNotFound) {
					assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
				}
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, id, got.ID)
				assert.Equal(t, int64(3), got.Scans)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQRCodeRepository_GetQRCodesByRestaurant(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "qr_codes" WHERE .*restaurant_id = \$1.*ORDER BY created_at desc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "restaurant_id", "created_at"}).
			AddRow(uuid.New(), "r1", now).
			AddRow(uuid.New(), "r1", now.Add(-time.Hour)))

	got, err := repo.GetQRCodesByRestaurant(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQRCodeRepository_IncrementScans(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
	}{
		{"matching record", 1},
		{"no matching record", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			mock.ExpectExec(`UPDATE "qr_codes" SET "scans"=scans \+ \$1 WHERE .*restaurant_id = \$2 AND id = \$3`).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			n, err := repo.IncrementScans(context.Background(), "r1", uuid.NewString())
			require.NoError(t, err)
			assert.Equal(t, tt.affected, n)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
