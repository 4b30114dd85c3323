package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table the review engine owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Application{},
		&ApplicationField{},
		&ApplicationInventor{},
		&Suggestion{},
		&StatusUpdate{},
		&ReviewDecision{},
		&StageHistory{},
		&Notification{},
	)
}
