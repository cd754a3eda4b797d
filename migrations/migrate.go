package migrations

import (
	"log"

	"gorm.io/gorm"

	"chak-property-server/models"
)

// Migrate creates or updates the payment tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.PaymentRecord{}, &models.CallbackLog{}); err != nil {
		return err
	}
	log.Println("Payment tables migrated")
	return nil
}
