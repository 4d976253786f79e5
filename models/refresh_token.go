package models

import (
	"time"
)

type RefreshToken struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UserID         string    `gorm:"type:uuid;not null;index" json:"userId"`
	User           User      `gorm:"foreignKey:UserID" json:"-"`
	Token          string    `gorm:"size:512;not null;uniqueIndex" json:"token"`
	ExpirationDate time.Time `gorm:"not null;index" json:"expiry"`
}
