package models

import (
	"time"

	"gorm.io/gorm"
)

// Chemical is a trackable chemical type. MinLevel is the low-stock alert
// threshold, stored exactly as entered (gallons in the UI) and compared
// directly against the ounce balance.
type Chemical struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;size:255;uniqueIndex"`
	Unit      string    `json:"unit" gorm:"not null;default:'Oz'"`
	MinLevel  float64   `json:"min_level" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ch *Chemical) BeforeCreate(tx *gorm.DB) error {
	ch.CreatedAt = time.Now()
	ch.UpdatedAt = time.Now()
	return nil
}

func (ch *Chemical) BeforeUpdate(tx *gorm.DB) error {
	ch.UpdatedAt = time.Now()
	return nil
}
