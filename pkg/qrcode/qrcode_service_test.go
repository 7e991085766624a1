package qrcode_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Go-QR-Studio/domain"
	"Go-QR-Studio/entities"
	"Go-QR-Studio/internal/utils/storage"
	"Go-QR-Studio/pkg/menu"
	"Go-QR-Studio/pkg/qrcode"
)

type memoryRepository struct {
	mu        sync.Mutex
	records   map[string]*entities.QRCode
	createErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{records: map[string]*entities.QRCode{}}
}

func (m *memoryRepository) CreateQRCode(_ context.Context, qrCode *entities.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	stored := *qrCode
	m.records[qrCode.ID.String()] = &stored
	return nil
}

func (m *memoryRepository) GetQRCodeByRestaurantAndID(_ context.Context, restaurantID, id string) (*entities.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.RestaurantID != restaurantID {
		return nil, gorm.ErrRecordNotFound
	}
	out := *rec
	return &out, nil
}

func (m *memoryRepository) GetQRCodesByRestaurant(_ context.Context, restaurantID string) ([]*entities.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.QRCode
	for _, rec := range m.records {
		if rec.RestaurantID == restaurantID {
			c := *rec
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRepository) IncrementScans(_ context.Context, restaurantID, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.RestaurantID != restaurantID {
		return 0, nil
	}
	rec.Scans++
	return 1, nil
}

func (m *memoryRepository) scans(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id].Scans
}

type memoryStorage struct {
	mu      sync.Mutex
	uploads []string
	deletes []string
}

func (m *memoryStorage) UploadFile(_ context.Context, fileName string, file *multipart.FileHeader, folder string, _ ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := folder + "/" + fileName + ".png"
	m.uploads = append(m.uploads, key)
	return key, nil
}

func (m *memoryStorage) DeleteFile(_ context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, objectKey)
	return nil
}

func (m *memoryStorage) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

func (m *memoryStorage) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, "https://cdn.test/")
}

var _ storage.Storage = (*memoryStorage)(nil)

func newTestService(repo qrcode.QRCodeRepository, store storage.Storage) qrcode.QRCodeService {
	return qrcode.NewQRCodeService(repo, menu.NewMenuLookup(), store, qrcode.Options{
		BaseURL:           "https://app.test",
		Verify:            true,
		RenderConcurrency: 2,
	})
}

func baseRequest() domain.QRCodeRequest {
	return domain.QRCodeRequest{
		Design:          "classic",
		PrimaryColor:    "#1a1a1a",
		BackgroundColor: "#ffffff",
		Size:            domain.QRSizeMedium,
		ErrorLevel:      "M",
		Type:            domain.QRTypeTakeout,
	}
}

func logoHeader(t *testing.T, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="logo"; filename="logo"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["logo"][0]
}

func logoPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 0xd0, G: 0x20, B: 0x20, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngWidth(t *testing.T, data []byte) int {
	t.Helper()
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width
}

func decodeDataURL(t *testing.T, url, mimeType string) []byte {
	t.Helper()
	prefix := "data:" + mimeType + ";base64,"
	require.True(t, strings.HasPrefix(url, prefix))
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	require.NoError(t, err)
	return data
}

func TestQRCodeService_PreviewAndCreateAgree(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)

	req := baseRequest()
	req.Size = domain.QRSizeLarge
	req.CustomURL = "https://custom.example/promo"

	preview, err := svc.PreviewQRCode(ctx, "r1", req)
	require.NoError(t, err)
	assert.Equal(t, 400, preview.Width)
	assert.Equal(t, 400, pngWidth(t, decodeDataURL(t, preview.PNGDataURL, "image/png")))
	assert.Equal(t, preview.SVGString, string(decodeDataURL(t, preview.SVGDataURL, "image/svg+xml")))
	assert.Empty(t, repo.records, "preview must not persist")

	created, err := svc.CreateQRCode(ctx, "r1", req)
	require.NoError(t, err)
	assert.True(t, created.Success)
	assert.Equal(t, preview.SVGString, created.SVGString)
	assert.Equal(t, created.SVGString, created.QRCode.SVGString)

	download, err := svc.DownloadQRCode(ctx, "r1", created.QRCode.ID, domain.QRFormatPNG)
	require.NoError(t, err)
	assert.Equal(t, 400, pngWidth(t, download.Content))
	assert.Equal(t, "image/png", download.ContentType)
}

func TestQRCodeService_CreateIsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)

	first, err := svc.CreateQRCode(ctx, "r1", baseRequest())
	require.NoError(t, err)
	second, err := svc.CreateQRCode(ctx, "r1", baseRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.QRCode.ID, second.QRCode.ID)
	assert.Equal(t, first.SVGString, second.SVGString)

	list, err := svc.GetQRCodes(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	other, err := svc.GetQRCodes(ctx, "r2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestQRCodeService_ConcurrentDownloadsCountEveryScan(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)

	created, err := svc.CreateQRCode(ctx, "r1", baseRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(0), created.QRCode.Scans)

	const n = 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			format := domain.QRFormatSVG
			if i%2 == 1 {
				format = domain.QRFormatPNG
			}
			_, err := svc.DownloadQRCode(ctx, "r1", created.QRCode.ID, format)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(n), repo.scans(created.QRCode.ID))
}

func TestQRCodeService_LogoUpgradesLowestLevel(t *testing.T) {
	ctx := context.Background()
	store := &memoryStorage{}
	svc := newTestService(newMemoryRepository(), store)

	req := baseRequest()
	req.ErrorLevel = "L"
	req.HasLogo = true
	req.Logo = logoHeader(t, "image/png", logoPNG(t))
	req.CustomURL = "https://custom.example/promo"

	created, err := svc.CreateQRCode(ctx, "r1", req)
	require.NoError(t, err)
	assert.Equal(t, "H", created.QRCode.Style.ErrorLevel)
	assert.Contains(t, created.SVGString, `data-overlay="logo"`)
	assert.Empty(t, created.Degradations)

	require.Len(t, store.uploads, 1)
	assert.Equal(t, "qr-logos/qr-"+created.QRCode.ID+".png", store.uploads[0])
	assert.Equal(t, "https://cdn.test/"+store.uploads[0], created.QRCode.LogoURL)
}

func TestQRCodeService_MenuTargetScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepository(), nil)

	req := baseRequest()
	req.MenuID = "m1"

	created, err := svc.CreateQRCode(ctx, "r1", req)
	require.NoError(t, err)
	assert.Equal(t, "https://app.test/menu/m1", created.QRCode.TargetURL)
	require.NotNil(t, created.QRCode.MenuID)
	assert.Nil(t, created.QRCode.CustomURL)
	assert.Contains(t, created.SVGString, `viewBox="0 0 300 300"`)
	assert.NotContains(t, created.SVGString, "<text")

	download, err := svc.DownloadQRCode(ctx, "r1", created.QRCode.ID, domain.QRFormatPNG)
	require.NoError(t, err)
	assert.Equal(t, 300, pngWidth(t, download.Content))
}

func TestQRCodeService_CaptionScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepository(), nil)

	req := baseRequest()
	req.CustomURL = "https://custom.example/promo"
	req.MenuID = "m1"
	req.CustomText = "Scan Me!"

	created, err := svc.CreateQRCode(ctx, "r1", req)
	require.NoError(t, err)
	assert.Equal(t, "https://custom.example/promo", created.QRCode.TargetURL)
	assert.Nil(t, created.QRCode.MenuID, "only one target reference is kept")
	assert.Contains(t, created.SVGString, `viewBox="0 0 300 340"`)
	assert.Contains(t, created.SVGString, `x="150" y="320" text-anchor="middle"`)
	assert.Contains(t, created.SVGString, `fill="#1a1a1a">Scan Me!</text>`)
}

func TestQRCodeService_UnsupportedLogoDegrades(t *testing.T) {
	ctx := context.Background()
	store := &memoryStorage{}
	svc := newTestService(newMemoryRepository(), store)

	tests := []struct {
		name string
		logo *multipart.FileHeader
	}{
		{"svg logo", logoHeader(t, "image/svg+xml", []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`))},
		{"gif logo", logoHeader(t, "image/gif", []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"))},
		{"missing file", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			req.HasLogo = true
			req.Logo = tt.logo

			created, err := svc.CreateQRCode(ctx, "r1", req)
			require.NoError(t, err)
			assert.NotContains(t, created.SVGString, "<image")
			assert.NotContains(t, created.SVGString, "logo-backdrop")
			assert.NotEmpty(t, created.Degradations)

			preview, err := svc.PreviewQRCode(ctx, "r1", req)
			require.NoError(t, err)
			assert.Equal(t, created.SVGString, preview.SVGString)
		})
	}
	assert.Empty(t, store.uploads)
}

func TestQRCodeService_DownloadOutOfScope(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)

	created, err := svc.CreateQRCode(ctx, "r1", baseRequest())
	require.NoError(t, err)

	tests := []struct {
		name         string
		restaurantID string
		id           string
		format       string
		wantErr      error
	}{
		{"other restaurant", "r2", created.QRCode.ID, domain.QRFormatSVG, domain.ErrQRCodeNotFound},
		{"unknown id", "r1", "00000000-0000-0000-0000-000000000000", domain.QRFormatSVG, domain.ErrQRCodeNotFound},
		{"malformed id", "r1", "not-a-uuid", domain.QRFormatSVG, domain.ErrQRCodeNotFound},
		{"bad format", "r1", created.QRCode.ID, "gif", domain.ErrInvalidQRFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.DownloadQRCode(ctx, tt.restaurantID, tt.id, tt.format)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, int64(0), repo.scans(created.QRCode.ID))
}

func TestQRCodeService_DownloadSVG(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepository(), nil)

	created, err := svc.CreateQRCode(ctx, "r1", baseRequest())
	require.NoError(t, err)

	download, err := svc.DownloadQRCode(ctx, "r1", created.QRCode.ID, "")
	require.NoError(t, err)
	assert.Equal(t, created.SVGString, string(download.Content))
	assert.Equal(t, "image/svg+xml", download.ContentType)
	assert.Equal(t, fmt.Sprintf("qr-%s.svg", created.QRCode.ID), download.FileName)
}

func TestQRCodeService_LongTargetAcrossSizesAndLevels(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepository(), nil)
	longURL := "https://custom.example/promo?" + strings.Repeat("campaign=autumn&", 9)

	for _, size := range []string{domain.QRSizeSmall, domain.QRSizeMedium, domain.QRSizeLarge} {
		for _, level := range []string{"L", "M", "Q", "H"} {
			t.Run(size+"-"+level, func(t *testing.T) {
				req := baseRequest()
				req.Size = size
				req.ErrorLevel = level
				req.CustomURL = longURL

				preview, err := svc.PreviewQRCode(ctx, "r1", req)
				require.NoError(t, err)
				assert.Empty(t, preview.Degradations)
				assert.Equal(t, domain.QRSizeWidth(size), pngWidth(t, decodeDataURL(t, preview.PNGDataURL, "image/png")))

				req.CustomText = "Scan Me!"
				req.HasLogo = true
				req.Logo = logoHeader(t, "image/png", logoPNG(t))
				created, err := svc.CreateQRCode(ctx, "r1", req)
				require.NoError(t, err)
				assert.Equal(t, longURL, created.QRCode.TargetURL)
			})
		}
	}
}

func TestQRCodeService_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("store failure", func(t *testing.T) {
		repo := newMemoryRepository()
		repo.createErr = errors.New("disk full")
		_, err := newTestService(repo, nil).CreateQRCode(ctx, "r1", baseRequest())
		assert.ErrorIs(t, err, domain.ErrQRStore)
	})

	t.Run("store failure removes uploaded logo", func(t *testing.T) {
		repo := newMemoryRepository()
		repo.createErr = errors.New("db down")
		store := &memoryStorage{}

		req := baseRequest()
		req.ErrorLevel = "H"
		req.HasLogo = true
		req.Logo = logoHeader(t, "image/png", logoPNG(t))

		_, err := newTestService(repo, store).CreateQRCode(ctx, "r1", req)
		assert.ErrorIs(t, err, domain.ErrQRStore)
		require.Len(t, store.uploads, 1)
		assert.Equal(t, store.uploads, store.deletes)
	})

	t.Run("text too long to encode", func(t *testing.T) {
		req := baseRequest()
		req.ErrorLevel = "H"
		req.CustomURL = "https://custom.example/" + strings.Repeat("a", 4000)
		_, err := newTestService(newMemoryRepository(), nil).PreviewQRCode(ctx, "r1", req)
		assert.ErrorIs(t, err, domain.ErrQREncoding)
	})
}
