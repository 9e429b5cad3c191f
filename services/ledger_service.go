package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"chemtrack-backend/models"
	"chemtrack-backend/storage"

	"gorm.io/gorm"
)

// Validation failures surfaced as client errors at the controller boundary.
var (
	ErrUnknownChemical   = errors.New("chemical not found")
	ErrUnknownLocation   = errors.New("unknown location")
	ErrInvalidChangeType = errors.New("invalid change type")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInsufficientStock = errors.New("insufficient stock: balance cannot go below zero")
	ErrNoBalanceRow      = errors.New("no balance row for chemical at location")
	ErrInvalidFile       = errors.New("invalid attachment file")
)

// ChangeInput is one submitted ledger change.
type ChangeInput struct {
	ChemicalID uint
	Location   string // branch or "<branch>-truck"
	Amount     float64
	Unit       string // "Oz" or "Gal"
	Type       string
	Direction  string // "add" or "remove", audits only
	UserEmail  string
	UserName   string
	Attachment *multipart.FileHeader
}

// LedgerService applies inventory changes. Balance check, balance write and
// history insert(s) run in one database transaction, so a submission either
// commits completely or not at all, and concurrent submissions cannot
// overwrite each other's updates.
type LedgerService struct {
	db    *gorm.DB
	blobs storage.Store
}

func NewLedgerService(db *gorm.DB, blobs storage.Store) *LedgerService {
	return &LedgerService{db: db, blobs: blobs}
}

// signedDelta applies the sign policy to an ounce-normalized amount:
// withdrawals negate, audits negate only on "remove", transfers use the
// positive magnitude, everything else stores the amount as entered.
func signedDelta(amountOz float64, changeType, direction string) float64 {
	switch changeType {
	case models.ChangeWithdrawn:
		return -amountOz
	case models.ChangeAudit:
		if direction == "remove" {
			return -amountOz
		}
		return amountOz
	case models.ChangeTruckInventory:
		return math.Abs(amountOz)
	default:
		return amountOz
	}
}

// ApplyChange validates and commits one submission, returning the history
// rows it produced (two for a truck transfer, one otherwise).
func (s *LedgerService) ApplyChange(ctx context.Context, in ChangeInput) ([]models.ChangeHistory, error) {
	if !models.IsValidChangeType(in.Type) {
		return nil, ErrInvalidChangeType
	}
	if !models.IsKnownLocation(in.Location) {
		return nil, ErrUnknownLocation
	}
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var chemical models.Chemical
	if err := s.db.WithContext(ctx).First(&chemical, in.ChemicalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownChemical
		}
		return nil, err
	}

	delta := signedDelta(models.ToOunces(in.Amount, in.Unit), in.Type, in.Direction)

	// Upload before touching balances so an attachment failure aborts the
	// whole submission with nothing committed.
	attachmentURL, attachmentKey, err := s.uploadReceipt(ctx, in.Attachment, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var rows []models.ChangeHistory

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		baseLocation := models.BaseLocation(in.Location)

		var level models.InventoryLevel
		if err := tx.Where("chemical_id = ? AND location = ?", in.ChemicalID, baseLocation).
			First(&level).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoBalanceRow
			}
			return err
		}

		switch {
		case in.Type == models.ChangeTruckInventory:
			// Transfer branch -> truck: debit on-site, credit in-transit,
			// one paired history row per side. The destination is always the
			// base branch's truck, whichever suffix was selected.
			magnitude := delta
			if err := adjustBalance(tx, level.ID, "current_amount", -magnitude); err != nil {
				return err
			}
			if err := adjustBalance(tx, level.ID, "in_transit_amount", magnitude); err != nil {
				return err
			}
			rows = []models.ChangeHistory{
				s.historyRow(in, baseLocation, -magnitude, attachmentURL, attachmentKey, now),
				s.historyRow(in, models.TruckLocation(baseLocation), magnitude, attachmentURL, attachmentKey, now),
			}
		case models.IsTruckLocation(in.Location):
			if err := adjustBalance(tx, level.ID, "in_transit_amount", delta); err != nil {
				return err
			}
			rows = []models.ChangeHistory{
				s.historyRow(in, in.Location, delta, attachmentURL, attachmentKey, now),
			}
		default:
			if err := adjustBalance(tx, level.ID, "current_amount", delta); err != nil {
				return err
			}
			rows = []models.ChangeHistory{
				s.historyRow(in, in.Location, delta, attachmentURL, attachmentKey, now),
			}
		}

		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if txErr != nil {
		// The balance write rolled back; remove the now-orphaned object.
		if attachmentKey != "" {
			s.blobs.Delete(ctx, attachmentKey)
		}
		return nil, txErr
	}

	return rows, nil
}

// adjustBalance applies a signed delta to one balance column with the
// non-negative guard folded into the UPDATE itself, making the check atomic
// under concurrent writers.
func adjustBalance(tx *gorm.DB, levelID uint, column string, delta float64) error {
	res := tx.Model(&models.InventoryLevel{}).
		Where(fmt.Sprintf("id = ? AND %s + ? >= 0", column), levelID, delta).
		Updates(map[string]interface{}{
			column:       gorm.Expr(fmt.Sprintf("%s + ?", column), delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (s *LedgerService) historyRow(in ChangeInput, location string, amount float64, url, key string, at time.Time) models.ChangeHistory {
	return models.ChangeHistory{
		ChemicalID:    in.ChemicalID,
		Location:      location,
		Amount:        amount,
		Type:          in.Type,
		UserEmail:     in.UserEmail,
		UserName:      in.UserName,
		AttachmentURL: url,
		AttachmentKey: key,
		CreatedAt:     at,
	}
}

// AttachReceipt uploads a file for an existing history row and stores a fresh
// signed URL on it.
func (s *LedgerService) AttachReceipt(ctx context.Context, historyID uint, file *multipart.FileHeader) (*models.ChangeHistory, error) {
	var row models.ChangeHistory
	if err := s.db.WithContext(ctx).First(&row, historyID).Error; err != nil {
		return nil, err
	}

	url, key, err := s.uploadReceipt(ctx, file, historyID)
	if err != nil {
		return nil, err
	}

	row.AttachmentURL = url
	row.AttachmentKey = key
	if err := s.db.WithContext(ctx).Model(&row).
		Updates(map[string]interface{}{"attachment_url": url, "attachment_key": key}).Error; err != nil {
		s.blobs.Delete(ctx, key)
		return nil, err
	}
	return &row, nil
}

// RefreshAttachmentURL re-signs the stored object key; signed URLs expire
// after an hour.
func (s *LedgerService) RefreshAttachmentURL(ctx context.Context, historyID uint) (string, error) {
	var row models.ChangeHistory
	if err := s.db.WithContext(ctx).First(&row, historyID).Error; err != nil {
		return "", err
	}
	if row.AttachmentKey == "" {
		return "", gorm.ErrRecordNotFound
	}

	url, err := s.blobs.SignedURL(ctx, row.AttachmentKey, storage.SignedURLTTL)
	if err != nil {
		return "", err
	}
	if err := s.db.WithContext(ctx).Model(&row).Update("attachment_url", url).Error; err != nil {
		return "", err
	}
	return url, nil
}

const maxReceiptSize = 10 * 1024 * 1024

var allowedReceiptExts = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true,
}

func validateReceipt(file *multipart.FileHeader) error {
	if file.Size > maxReceiptSize {
		return fmt.Errorf("%w: file exceeds 10MB limit", ErrInvalidFile)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedReceiptExts[ext] {
		return fmt.Errorf("%w: only pdf, png and jpeg receipts are accepted", ErrInvalidFile)
	}
	if strings.Contains(file.Filename, "..") {
		return fmt.Errorf("%w: bad file name", ErrInvalidFile)
	}
	return nil
}

// uploadReceipt stores the file under "<id>-<millis>.<ext>" and returns a
// 1-hour signed download URL plus the object key. A nil file is a no-op.
func (s *LedgerService) uploadReceipt(ctx context.Context, file *multipart.FileHeader, historyID uint) (string, string, error) {
	if file == nil {
		return "", "", nil
	}
	if err := validateReceipt(file); err != nil {
		return "", "", err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	key := fmt.Sprintf("%d-%d%s", historyID, time.Now().UnixMilli(), ext)

	f, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	if err := s.blobs.Put(ctx, key, f, file.Header.Get("Content-Type")); err != nil {
		return "", "", fmt.Errorf("uploading receipt: %w", err)
	}

	url, err := s.blobs.SignedURL(ctx, key, storage.SignedURLTTL)
	if err != nil {
		// Don't leave an unreferenced object behind.
		s.blobs.Delete(ctx, key)
		return "", "", fmt.Errorf("signing receipt url: %w", err)
	}
	return url, key, nil
}
