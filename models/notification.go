package models

import "time"

// Notification is an in-app message addressed to a user or, for recipients
// without an account (inventors), to an e-mail address.
type Notification struct {
	NotificationID uint      `gorm:"primaryKey;autoIncrement;column:notification_id" json:"notification_id"`
	UserID         *string   `gorm:"column:user_id;type:varchar(64);index" json:"user_id,omitempty"`
	Email          *string   `gorm:"column:email;type:varchar(255)" json:"email,omitempty"`
	ApplicationID  string    `gorm:"column:application_id;type:varchar(36)" json:"application_id"`
	EventKey       string    `gorm:"column:event_key;type:varchar(64)" json:"event_key"`
	Title          string    `gorm:"column:title;type:varchar(255)" json:"title"`
	Message        string    `gorm:"column:message;type:text" json:"message"`
	IsRead         bool      `gorm:"column:is_read" json:"is_read"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
