package controllers

import (
	"errors"
	"strconv"

	"chemtrack-backend/models"
	"chemtrack-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// InventoryController exposes the ledger workflow and the level views.
type InventoryController struct {
	db     *gorm.DB
	ledger *services.LedgerService
	hub    *services.Hub
}

func NewInventoryController(db *gorm.DB, ledger *services.LedgerService, hub *services.Hub) *InventoryController {
	return &InventoryController{db: db, ledger: ledger, hub: hub}
}

// ChangeRequest is the form payload for one ledger submission. Sent as
// multipart/form-data so a receipt can ride along.
type ChangeRequest struct {
	ChemicalID uint    `json:"chemical_id" form:"chemical_id"`
	Location   string  `json:"location" form:"location"`
	Amount     float64 `json:"amount" form:"amount"`
	Unit       string  `json:"unit" form:"unit"`
	Type       string  `json:"type" form:"type"`
	Direction  string  `json:"change_direction" form:"change_direction"`
}

// RecordChange applies one inventory change and broadcasts the committed rows.
func (ic *InventoryController) RecordChange(c *fiber.Ctx) error {
	var req ChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	input := services.ChangeInput{
		ChemicalID: req.ChemicalID,
		Location:   req.Location,
		Amount:     req.Amount,
		Unit:       req.Unit,
		Type:       req.Type,
		Direction:  req.Direction,
		UserEmail:  c.Locals("user_email").(string),
		UserName:   localsString(c, "user_name"),
	}

	if file, err := c.FormFile("attachment"); err == nil {
		input.Attachment = file
	}

	rows, err := ic.ledger.ApplyChange(c.Context(), input)
	if err != nil {
		return ledgerError(c, err)
	}

	ic.hub.BroadcastChanges(rows)

	return c.Status(201).JSON(fiber.Map{
		"changes": rows,
	})
}

// LocationLevel is one branch's balances for the combined levels view.
type LocationLevel struct {
	Current        float64 `json:"current"`
	InTransit      float64 `json:"in_transit"`
	CurrentDisplay string  `json:"current_display"`
	TruckDisplay   string  `json:"truck_display"`
	LowStock       bool    `json:"low_stock"`
}

// ChemicalLevels is one chemical with its per-branch balances.
type ChemicalLevels struct {
	ID        uint                     `json:"id"`
	Name      string                   `json:"name"`
	Unit      string                   `json:"unit"`
	MinLevel  float64                  `json:"min_level"`
	Inventory map[string]LocationLevel `json:"inventory"`
}

// GetLevels returns every chemical with its balances at every branch, the
// data behind the levels table.
func (ic *InventoryController) GetLevels(c *fiber.Ctx) error {
	combined, err := ic.combinedLevels()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to load inventory levels",
		})
	}

	return c.JSON(fiber.Map{
		"levels": combined,
	})
}

// ChartSeries is one chemical's gallon-denominated bars for the levels chart.
type ChartSeries struct {
	ChemicalID uint            `json:"chemical_id"`
	Name       string          `json:"name"`
	Locations  []ChartBarGroup `json:"locations"`
}

// ChartBarGroup is the stacked branch/truck pair for one location.
type ChartBarGroup struct {
	Location      string  `json:"location"`
	Label         string  `json:"label"`
	BranchGallons float64 `json:"branch_gallons"`
	TruckGallons  float64 `json:"truck_gallons"`
}

// GetChart returns gallon series per chemical and location. An optional
// chemical_id query narrows to one chemical.
func (ic *InventoryController) GetChart(c *fiber.Ctx) error {
	chemicalID, _ := strconv.ParseUint(c.Query("chemical_id", "0"), 10, 32)

	combined, err := ic.combinedLevels()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to load chart data",
		})
	}

	series := make([]ChartSeries, 0, len(combined))
	for _, chem := range combined {
		if chemicalID != 0 && chem.ID != uint(chemicalID) {
			continue
		}
		s := ChartSeries{ChemicalID: chem.ID, Name: chem.Name}
		for _, location := range models.BranchLocations() {
			level := chem.Inventory[location]
			s.Locations = append(s.Locations, ChartBarGroup{
				Location:      location,
				Label:         models.LocationLabel(location),
				BranchGallons: models.ToGallons(level.Current),
				TruckGallons:  models.ToGallons(level.InTransit),
			})
		}
		series = append(series, s)
	}

	return c.JSON(fiber.Map{
		"series": series,
	})
}

func (ic *InventoryController) combinedLevels() ([]ChemicalLevels, error) {
	var chemicals []models.Chemical
	if err := ic.db.Order("name ASC").Find(&chemicals).Error; err != nil {
		return nil, err
	}

	var levels []models.InventoryLevel
	if err := ic.db.Find(&levels).Error; err != nil {
		return nil, err
	}

	byChemical := make(map[uint]map[string]models.InventoryLevel)
	for _, level := range levels {
		if byChemical[level.ChemicalID] == nil {
			byChemical[level.ChemicalID] = make(map[string]models.InventoryLevel)
		}
		byChemical[level.ChemicalID][level.Location] = level
	}

	combined := make([]ChemicalLevels, 0, len(chemicals))
	for _, chem := range chemicals {
		entry := ChemicalLevels{
			ID:        chem.ID,
			Name:      chem.Name,
			Unit:      chem.Unit,
			MinLevel:  chem.MinLevel,
			Inventory: make(map[string]LocationLevel, len(models.BranchLocations())),
		}
		for _, location := range models.BranchLocations() {
			level := byChemical[chem.ID][location]
			entry.Inventory[location] = LocationLevel{
				Current:        level.CurrentAmount,
				InTransit:      level.InTransitAmount,
				CurrentDisplay: models.FormatAmount(level.CurrentAmount),
				TruckDisplay:   models.FormatAmount(level.InTransitAmount),
				// Threshold is stored as entered and compared against the
				// ounce balance.
				LowStock: level.CurrentAmount <= chem.MinLevel,
			}
		}
		combined = append(combined, entry)
	}
	return combined, nil
}

// ledgerError maps service errors to client responses. Validation failures
// get specific statuses; anything else is a generic failure.
func ledgerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInsufficientStock):
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnknownChemical), errors.Is(err, services.ErrNoBalanceRow):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnknownLocation),
		errors.Is(err, services.ErrInvalidChangeType),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidFile):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update inventory"})
	}
}

func localsString(c *fiber.Ctx, key string) string {
	if v, ok := c.Locals(key).(string); ok {
		return v
	}
	return ""
}
