package controllers

import (
	"errors"
	"strconv"

	"chemtrack-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HistoryController serves the change-history views and per-row receipt
// operations.
type HistoryController struct {
	db      *gorm.DB
	history *services.HistoryService
	ledger  *services.LedgerService
}

func NewHistoryController(db *gorm.DB, history *services.HistoryService, ledger *services.LedgerService) *HistoryController {
	return &HistoryController{db: db, history: history, ledger: ledger}
}

// List returns change history newest-first with running totals. Query
// parameters: chemical_id (optional), location ("all", a branch, or a truck
// sub-location).
func (hc *HistoryController) List(c *fiber.Ctx) error {
	chemicalID, err := strconv.ParseUint(c.Query("chemical_id", "0"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid chemical_id",
		})
	}

	entries, err := hc.history.List(c.Context(), uint(chemicalID), c.Query("location", "all"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to load change history",
		})
	}

	return c.JSON(fiber.Map{
		"history": entries,
	})
}

// AttachReceipt uploads a receipt for an existing history row.
func (hc *HistoryController) AttachReceipt(c *fiber.Ctx) error {
	historyID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid history ID",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	row, err := hc.ledger.AttachReceipt(c.Context(), uint(historyID), file)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{
				"error": "History record not found",
			})
		}
		if errors.Is(err, services.ErrInvalidFile) {
			return c.Status(400).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to upload file",
		})
	}

	return c.Status(201).JSON(fiber.Map{
		"change": row,
	})
}

// GetReceiptURL re-signs the stored receipt and returns a fresh 1-hour URL.
func (hc *HistoryController) GetReceiptURL(c *fiber.Ctx) error {
	historyID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid history ID",
		})
	}

	url, err := hc.ledger.RefreshAttachmentURL(c.Context(), uint(historyID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{
				"error": "No attachment for this record",
			})
		}
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to sign attachment URL",
		})
	}

	return c.JSON(fiber.Map{
		"attachment_url": url,
	})
}
