package handlers

import (
	"Go-QR-Studio/domain"
	"Go-QR-Studio/internal/api/presenters"
	"Go-QR-Studio/pkg/qrcode"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	QRCodeHandler interface {
		CreateQRCode(c *fiber.Ctx) error
		PreviewQRCode(c *fiber.Ctx) error
		DownloadQRCode(c *fiber.Ctx) error
		GetQRCodes(c *fiber.Ctx) error
	}

	qrCodeHandler struct {
		qrCodeService qrcode.QRCodeService
		validator     *validator.Validate
	}
)

func NewQRCodeHandler(qrCodeService qrcode.QRCodeService, validator *validator.Validate) QRCodeHandler {
	return &qrCodeHandler{
		qrCodeService: qrCodeService,
		validator:     validator,
	}
}

func (h *qrCodeHandler) CreateQRCode(c *fiber.Ctx) error {
	req := new(domain.QRCodeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.bindLogoAndValidate(c, req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateQRCode, err)
	}

	res, err := h.qrCodeService.CreateQRCode(c.Context(), c.Params("restaurantId"), *req)
	if err != nil {
		return presenters.ErrorResponse(c, qrStatus(err), domain.MessageFailedCreateQRCode, err)
	}

	return c.Status(fiber.StatusOK).JSON(res)
}

func (h *qrCodeHandler) PreviewQRCode(c *fiber.Ctx) error {
	req := new(domain.QRCodeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.bindLogoAndValidate(c, req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedPreviewQRCode, err)
	}

	res, err := h.qrCodeService.PreviewQRCode(c.Context(), c.Params("restaurantId"), *req)
	if err != nil {
		return presenters.ErrorResponse(c, qrStatus(err), domain.MessageFailedPreviewQRCode, err)
	}

	return c.Status(fiber.StatusOK).JSON(res)
}

func (h *qrCodeHandler) DownloadQRCode(c *fiber.Ctx) error {
	res, err := h.qrCodeService.DownloadQRCode(
		c.Context(),
		c.Params("restaurantId"),
		c.Params("id"),
		c.Query("format", domain.QRFormatSVG),
	)
	if err != nil {
		return presenters.ErrorResponse(c, qrStatus(err), domain.MessageFailedDownloadQRCode, err)
	}

	c.Attachment(res.FileName)
	c.Set(fiber.HeaderContentType, res.ContentType)
	return c.Status(fiber.StatusOK).Send(res.Content)
}

func (h *qrCodeHandler) GetQRCodes(c *fiber.Ctx) error {
	res, err := h.qrCodeService.GetQRCodes(c.Context(), c.Params("restaurantId"))
	if err != nil {
		return presenters.ErrorResponse(c, qrStatus(err), domain.MessageFailedGetQRCodes, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetQRCodes)
}

func (h *qrCodeHandler) bindLogoAndValidate(c *fiber.Ctx, req *domain.QRCodeRequest) error {
	if file, err := c.FormFile("logo"); err == nil {
		req.Logo = file
	}

	if err := h.validator.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrQRValidation, err)
	}
	return nil
}

func qrStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrQRCodeNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrQRValidation), errors.Is(err, domain.ErrInvalidQRFormat):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
