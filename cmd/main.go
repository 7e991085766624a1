package main

import (
	"Go-QR-Studio/cmd/config"
	migration "Go-QR-Studio/cmd/database/migrate"
	"Go-QR-Studio/internal/utils"
	"fmt"
	"log"

	"github.com/spf13/pflag"
)

func main() {
	migrate := pflag.Bool("migrate", false, "run database migrations before serving")
	pflag.Parse()

	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if *migrate {
		if err := migration.Migrate(db); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	app, err := config.NewApp(db)
	if err != nil {
		log.Fatalf("failed to build app: %v", err)
	}

	if err := app.Listen(fmt.Sprintf(":%s", utils.GetConfig("APP_PORT"))); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
