package controllers

import (
	"strings"

	"chemtrack-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ChemicalController manages the chemical catalog.
type ChemicalController struct {
	db *gorm.DB
}

func NewChemicalController(db *gorm.DB) *ChemicalController {
	return &ChemicalController{db: db}
}

// CreateChemicalRequest is the catalog creation payload. MinLevel is entered
// in gallons in the UI and stored as-is.
type CreateChemicalRequest struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	MinLevel float64 `json:"min_level"`
}

// Create adds a chemical type and seeds a zero balance row at every branch.
// Both steps share one transaction so the catalog can never end up
// partially seeded.
func (cc *ChemicalController) Create(c *fiber.Ctx) error {
	var req CreateChemicalRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Chemical name is required",
		})
	}
	if req.MinLevel < 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "Minimum level cannot be negative",
		})
	}
	if req.Unit == "" {
		req.Unit = models.UnitOunces
	}
	if req.Unit != models.UnitOunces {
		return c.Status(400).JSON(fiber.Map{
			"error": "Only the Oz unit is supported",
		})
	}

	var existing models.Chemical
	if err := cc.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return c.Status(409).JSON(fiber.Map{
			"error": "A chemical with this name already exists",
		})
	}

	chemical := models.Chemical{
		Name:     req.Name,
		Unit:     req.Unit,
		MinLevel: req.MinLevel,
	}

	err := cc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chemical).Error; err != nil {
			return err
		}
		for _, location := range models.BranchLocations() {
			level := models.InventoryLevel{
				ChemicalID:      chemical.ID,
				Location:        location,
				CurrentAmount:   0,
				InTransitAmount: 0,
			}
			if err := tx.Create(&level).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to add chemical",
		})
	}

	return c.Status(201).JSON(fiber.Map{
		"chemical": chemical,
	})
}

// List returns the catalog ordered by name.
func (cc *ChemicalController) List(c *fiber.Ctx) error {
	var chemicals []models.Chemical
	if err := cc.db.Order("name ASC").Find(&chemicals).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to load chemicals",
		})
	}

	return c.JSON(fiber.Map{
		"chemicals": chemicals,
	})
}
