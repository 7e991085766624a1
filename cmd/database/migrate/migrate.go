package migration

import (
	"Go-QR-Studio/entities"
	"fmt"
	"log"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	if err := db.AutoMigrate(&entities.QRCode{}); err != nil {
		log.Fatalf("Error migrating qr code database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
