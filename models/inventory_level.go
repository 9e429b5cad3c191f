package models

import (
	"time"

	"gorm.io/gorm"
)

// InventoryLevel is the running balance for one chemical at one branch.
// CurrentAmount is on-site stock, InTransitAmount is the paired truck
// inventory; both are ounce-denominated and never negative.
type InventoryLevel struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ChemicalID      uint      `json:"chemical_id" gorm:"not null;uniqueIndex:idx_levels_chemical_location"`
	Location        string    `json:"location" gorm:"not null;size:32;uniqueIndex:idx_levels_chemical_location"`
	CurrentAmount   float64   `json:"current_amount" gorm:"not null;default:0"`
	InTransitAmount float64   `json:"in_transit_amount" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Chemical *Chemical `json:"chemical,omitempty" gorm:"foreignKey:ChemicalID"`
}

func (l *InventoryLevel) BeforeCreate(tx *gorm.DB) error {
	l.CreatedAt = time.Now()
	l.UpdatedAt = time.Now()
	return nil
}

func (l *InventoryLevel) BeforeUpdate(tx *gorm.DB) error {
	l.UpdatedAt = time.Now()
	return nil
}
