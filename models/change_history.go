package models

import (
	"time"

	"gorm.io/gorm"
)

// Change kinds recorded in the ledger.
const (
	ChangeWithdrawn      = "withdrawn"
	ChangeTruckInventory = "truckInventory"
	ChangeAudit          = "audit"
	ChangeNewInventory   = "newInventory"
)

var changeTypeLabels = map[string]string{
	ChangeWithdrawn:      "Product Used",
	ChangeTruckInventory: "Transfer to Truck Inventory",
	ChangeAudit:          "Inventory Audit",
	ChangeNewInventory:   "New Inventory",
}

// IsValidChangeType reports whether the tag is a recognized change kind.
func IsValidChangeType(changeType string) bool {
	_, ok := changeTypeLabels[changeType]
	return ok
}

// ChangeTypeLabel maps a raw change-kind tag to its display label. Unknown
// tags pass through unchanged.
func ChangeTypeLabel(changeType string) string {
	if label, ok := changeTypeLabels[changeType]; ok {
		return label
	}
	return changeType
}

// ChangeHistory is an append-only ledger entry. Amount is the signed ounce
// delta applied to the (chemical, location) balance; a truck transfer writes
// two rows sharing one submission (branch negative, truck positive).
type ChangeHistory struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ChemicalID    uint      `json:"chemical_id" gorm:"not null;index"`
	Location      string    `json:"location" gorm:"not null;size:32;index"`
	Amount        float64   `json:"amount" gorm:"not null"`
	Type          string    `json:"type" gorm:"not null;size:32"`
	UserEmail     string    `json:"user_email" gorm:"not null;size:255"`
	UserName      string    `json:"user_name" gorm:"size:255"`
	AttachmentURL string    `json:"attachment_url" gorm:"type:text"`
	AttachmentKey string    `json:"-" gorm:"size:255"`
	CreatedAt     time.Time `json:"created_at" gorm:"index"`

	Chemical *Chemical `json:"chemical,omitempty" gorm:"foreignKey:ChemicalID"`
}

func (h *ChangeHistory) BeforeCreate(tx *gorm.DB) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	return nil
}
