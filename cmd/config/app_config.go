package config

import (
	"Go-QR-Studio/internal/api/handlers"
	"Go-QR-Studio/internal/api/routes"
	"Go-QR-Studio/internal/middleware"
	"Go-QR-Studio/internal/utils"
	"Go-QR-Studio/internal/utils/storage"
	"Go-QR-Studio/pkg/jwt"
	"Go-QR-Studio/pkg/menu"
	"Go-QR-Studio/pkg/qrcode"
	"context"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
		BodyLimit:         8 * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Jakarta",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	store, err := storage.NewStorage(context.Background())
	if err != nil {
		return nil, err
	}
	if store == nil {
		log.Info("STORAGE_DRIVER not set, uploaded logos are kept only inside the svg")
	}
	renderConcurrency, _ := strconv.Atoi(utils.GetConfig("RENDER_CONCURRENCY"))

	// Repository
	qrCodeRepository := qrcode.NewQRCodeRepository(db)

	// Service
	jwtService := jwt.NewJWTService(utils.GetConfig("JWT_SECRET"))
	qrCodeService := qrcode.NewQRCodeService(qrCodeRepository, menu.NewMenuLookup(), store, qrcode.Options{
		BaseURL:           utils.GetConfig("APP_URL"),
		Verify:            utils.GetConfig("QR_VERIFY") == "true",
		RenderConcurrency: renderConcurrency,
	})

	// Handler
	qrCodeHandler := handlers.NewQRCodeHandler(qrCodeService, validator)

	// routes
	routesConfig := routes.Config{
		App:           app,
		QRCodeHandler: qrCodeHandler,
		Middleware:    middlewares,
		JWTService:    jwtService,
	}
	routesConfig.Setup()
	return app, nil
}
