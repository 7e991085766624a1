package qrcode

import (
	"Go-QR-Studio/domain"
	"Go-QR-Studio/entities"
	"Go-QR-Studio/internal/utils/qrsvg"
	"Go-QR-Studio/internal/utils/storage"
	"Go-QR-Studio/pkg/menu"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const logoFolder = "qr-logos"

type (
	QRCodeService interface {
		PreviewQRCode(ctx context.Context, restaurantID string, req domain.QRCodeRequest) (domain.PreviewQRCodeResponse, error)
		CreateQRCode(ctx context.Context, restaurantID string, req domain.QRCodeRequest) (domain.CreateQRCodeResponse, error)
		DownloadQRCode(ctx context.Context, restaurantID string, id string, format string) (domain.QRCodeDownload, error)
		GetQRCodes(ctx context.Context, restaurantID string) ([]domain.QRCodeResponse, error)
	}

	Options struct {
		// BaseURL prefixes menu links and is the fallback target.
		BaseURL string
		// Verify decodes every composed raster before it is returned or stored.
		Verify bool
		// RenderConcurrency caps parallel rasterizations; <= 0 means GOMAXPROCS.
		RenderConcurrency int
	}

	qrCodeService struct {
		qrCodeRepository QRCodeRepository
		storage          storage.Storage
		targets          TargetResolver
		scans            ScanRecorder
		encoder          qrsvg.Encoder
		composer         qrsvg.Composer
		exporter         qrsvg.Exporter
		verifier         qrsvg.Verifier
		pool             *renderPool
		verify           bool
	}

	// rendering is the output of the shared composition pipeline.
	rendering struct {
		target       string
		level        qrsvg.Level
		width        int
		markup       string
		png          []byte
		logoAdded    bool
		degradations []qrsvg.Degradation
	}
)

func NewQRCodeService(qrCodeRepository QRCodeRepository, menus menu.MenuLookup, store storage.Storage, opts Options) QRCodeService {
	return &qrCodeService{
		qrCodeRepository: qrCodeRepository,
		storage:          store,
		targets:          NewTargetResolver(opts.BaseURL, menus),
		scans:            NewScanRecorder(qrCodeRepository),
		encoder:          qrsvg.NewEncoder(),
		composer:         qrsvg.NewComposer(),
		exporter:         qrsvg.NewExporter(),
		verifier:         qrsvg.NewVerifier(),
		pool:             newRenderPool(opts.RenderConcurrency),
		verify:           opts.Verify,
	}
}

func (s *qrCodeService) PreviewQRCode(ctx context.Context, restaurantID string, req domain.QRCodeRequest) (domain.PreviewQRCodeResponse, error) {
	r, _, err := s.run(ctx, restaurantID, req, previewCommit{})
	if err != nil {
		return domain.PreviewQRCodeResponse{}, err
	}

	return domain.PreviewQRCodeResponse{
		SVGString:    r.markup,
		SVGDataURL:   dataURL("image/svg+xml", []byte(r.markup)),
		PNGDataURL:   dataURL("image/png", r.png),
		Width:        r.width,
		Degradations: degradationStrings(r.degradations),
	}, nil
}

func (s *qrCodeService) CreateQRCode(ctx context.Context, restaurantID string, req domain.QRCodeRequest) (domain.CreateQRCodeResponse, error) {
	r, qrCode, err := s.run(ctx, restaurantID, req, persistCommit{repo: s.qrCodeRepository, storage: s.storage})
	if err != nil {
		return domain.CreateQRCodeResponse{}, err
	}

	return domain.CreateQRCodeResponse{
		Success:      true,
		QRCode:       toQRCodeResponse(qrCode),
		SVGString:    qrCode.SVGString,
		Degradations: degradationStrings(r.degradations),
	}, nil
}

func (s *qrCodeService) DownloadQRCode(ctx context.Context, restaurantID string, id string, format string) (domain.QRCodeDownload, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = domain.QRFormatSVG
	}
	if format != domain.QRFormatSVG && format != domain.QRFormatPNG {
		return domain.QRCodeDownload{}, domain.ErrInvalidQRFormat
	}

	qrCode, err := s.getQRCode(ctx, restaurantID, id)
	if err != nil {
		return domain.QRCodeDownload{}, err
	}

	if err := s.scans.Record(ctx, ScanEvent{RestaurantID: restaurantID, QRCodeID: qrCode.ID.String()}); err != nil {
		return domain.QRCodeDownload{}, err
	}

	res := domain.QRCodeDownload{
		FileName: fmt.Sprintf("qr-%s.%s", qrCode.ID.String(), format),
	}
	if format == domain.QRFormatSVG {
		res.ContentType = "image/svg+xml"
		res.Content = s.exporter.AsVector(qrCode.SVGString)
		return res, nil
	}

	err = s.pool.Do(ctx, func() error {
		out, err := s.exporter.AsRaster(qrCode.SVGString, domain.QRSizeWidth(qrCode.Style.Size))
		res.Content = out
		return err
	})
	if err != nil {
		return domain.QRCodeDownload{}, fmt.Errorf("%w: %v", domain.ErrQRRender, err)
	}
	res.ContentType = "image/png"
	return res, nil
}

func (s *qrCodeService) GetQRCodes(ctx context.Context, restaurantID string) ([]domain.QRCodeResponse, error) {
	qrCodes, err := s.qrCodeRepository.GetQRCodesByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQRStore, err)
	}

	res := make([]domain.QRCodeResponse, 0, len(qrCodes))
	for _, qrCode := range qrCodes {
		res = append(res, toQRCodeResponse(qrCode))
	}
	return res, nil
}

func (s *qrCodeService) getQRCode(ctx context.Context, restaurantID, id string) (*entities.QRCode, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrQRCodeNotFound
	}

	qrCode, err := s.qrCodeRepository.GetQRCodeByRestaurantAndID(ctx, restaurantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrQRCodeNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrQRStore, err)
	}
	return qrCode, nil
}

// run renders req and hands the result to commit. Preview and create differ
// only in the strategy passed here.
func (s *qrCodeService) run(ctx context.Context, restaurantID string, req domain.QRCodeRequest, commit commitStrategy) (*rendering, *entities.QRCode, error) {
	req = normalizeRequest(req)

	r, err := s.render(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	qrCode, err := commit.commit(ctx, restaurantID, req, r)
	if err != nil {
		return nil, nil, err
	}

	for _, d := range r.degradations {
		log.Warnf("qr code for restaurant %s rendered without %s", restaurantID, d)
	}
	return r, qrCode, nil
}

func (r *rendering) degrade(overlay string, err error) {
	r.degradations = append(r.degradations, qrsvg.Degradation{Overlay: overlay, Reason: err.Error()})
}

func (s *qrCodeService) render(ctx context.Context, req domain.QRCodeRequest) (*rendering, error) {
	r := &rendering{
		target: s.targets.Resolve(req.CustomURL, req.MenuID),
		level:  effectiveLevel(qrsvg.Level(req.ErrorLevel), req.HasLogo),
		width:  domain.QRSizeWidth(req.Size),
	}

	base, err := s.encoder.Encode(r.target, qrsvg.EncodeOptions{
		Level:      r.level,
		DarkColor:  req.PrimaryColor,
		LightColor: req.BackgroundColor,
		Margin:     qrsvg.DefaultMargin,
		PixelWidth: r.width,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQREncoding, err)
	}

	overlay := qrsvg.Overlay{
		Caption:    req.CustomText,
		DarkColor:  req.PrimaryColor,
		LightColor: req.BackgroundColor,
	}
	if req.HasLogo {
		logo, err := readLogo(req)
		if err != nil {
			r.degrade(qrsvg.OverlayLogo, err)
		} else {
			overlay.Logo = logo
		}
	}

	comp := s.composer.Compose(base, overlay)
	r.degradations = append(r.degradations, comp.Degradations...)

	var img *image.RGBA
	err = s.pool.Do(ctx, func() error {
		var err error
		img, err = s.exporter.Rasterize(comp.Markup, r.width)
		if err != nil || !s.verify {
			return err
		}
		verifyErr := s.verifier.Verify(img, r.target)
		if verifyErr == nil {
			return nil
		}

		// overlays are only blamed when the plain symbol decodes on its own
		baseImg, err := s.exporter.Rasterize(base, r.width)
		if err != nil {
			return err
		}
		if err := s.verifier.Verify(baseImg, r.target); err != nil {
			log.Warnf("skipping scan check for %q: plain symbol does not decode: %v", r.target, err)
			return nil
		}

		if comp.LogoAdded {
			r.degrade(qrsvg.OverlayLogo, verifyErr)
			overlay.Logo = nil
			comp = s.composer.Compose(base, overlay)
			img, err = s.exporter.Rasterize(comp.Markup, r.width)
			if err != nil {
				return err
			}
			if verifyErr = s.verifier.Verify(img, r.target); verifyErr == nil {
				return nil
			}
		}
		if comp.CaptionAdded {
			r.degrade(qrsvg.OverlayCaption, verifyErr)
		}
		comp = qrsvg.Composition{Markup: base}
		img = baseImg
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrQRRender, err)
	}

	r.png, err = s.exporter.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQRRender, err)
	}
	r.markup = comp.Markup
	r.logoAdded = comp.LogoAdded
	return r, nil
}

// effectiveLevel raises the lowest tier to H when a logo will cover modules.
func effectiveLevel(level qrsvg.Level, hasLogo bool) qrsvg.Level {
	switch level {
	case qrsvg.LevelL, qrsvg.LevelM, qrsvg.LevelQ, qrsvg.LevelH:
	default:
		level = qrsvg.LevelM
	}
	if hasLogo && level == qrsvg.LevelL {
		return qrsvg.LevelH
	}
	return level
}

// normalizeRequest keeps exactly one target reference and drops fields that do
// not apply to the code type.
func normalizeRequest(req domain.QRCodeRequest) domain.QRCodeRequest {
	req.CustomURL = strings.TrimSpace(req.CustomURL)
	req.MenuID = strings.TrimSpace(req.MenuID)
	req.CustomText = strings.TrimSpace(req.CustomText)
	if req.CustomURL != "" {
		req.MenuID = ""
	}
	if req.Type != domain.QRTypeTable {
		req.TableNumber = ""
	}
	if req.Design == "" {
		req.Design = domain.QRDesignClassic
	}
	req.ErrorLevel = string(effectiveLevel(qrsvg.Level(req.ErrorLevel), req.HasLogo))
	return req
}

func readLogo(req domain.QRCodeRequest) (*qrsvg.LogoInput, error) {
	if req.Logo == nil {
		return nil, errors.New("no logo file uploaded")
	}
	f, err := req.Logo.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &qrsvg.LogoInput{Data: data, MimeType: req.Logo.Header.Get("Content-Type")}, nil
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func degradationStrings(ds []qrsvg.Degradation) []string {
	if len(ds) == 0 {
		return nil
	}
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toQRCodeResponse(qrCode *entities.QRCode) domain.QRCodeResponse {
	return domain.QRCodeResponse{
		ID:           qrCode.ID.String(),
		RestaurantID: qrCode.RestaurantID,
		Type:         qrCode.Type,
		TableNumber:  qrCode.TableNumber,
		MenuID:       qrCode.MenuID,
		CustomURL:    qrCode.CustomURL,
		TargetURL:    qrCode.TargetURL,
		Style: domain.QRStyleResponse{
			Design:          qrCode.Style.Design,
			PrimaryColor:    qrCode.Style.PrimaryColor,
			BackgroundColor: qrCode.Style.BackgroundColor,
			Size:            qrCode.Style.Size,
			ErrorLevel:      qrCode.Style.ErrorLevel,
			HasLogo:         qrCode.Style.HasLogo,
			CustomText:      qrCode.Style.CustomText,
		},
		LogoURL:   qrCode.LogoURL,
		SVGString: qrCode.SVGString,
		Scans:     qrCode.Scans,
		CreatedAt: qrCode.CreatedAt,
	}
}
