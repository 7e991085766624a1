package routes

import (
	"Go-QR-Studio/internal/api/handlers"
	"Go-QR-Studio/internal/middleware"
	"Go-QR-Studio/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App           *fiber.App
	QRCodeHandler handlers.QRCodeHandler
	Middleware    middleware.Middleware
	JWTService    jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.GuestRoute()
	c.QRCodes()
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong, its works. test"})
	})
}

func (c *Config) QRCodes() {
	qrCodes := c.App.Group("/api/v1/restaurants/:restaurantId/qr-codes", c.Middleware.AuthMiddleware(c.JWTService))
	{
		qrCodes.Post("", c.QRCodeHandler.CreateQRCode)
		qrCodes.Get("", c.QRCodeHandler.GetQRCodes)
		qrCodes.Put("/preview", c.QRCodeHandler.PreviewQRCode)
		qrCodes.Get("/:id/download", c.QRCodeHandler.DownloadQRCode)
	}
}
