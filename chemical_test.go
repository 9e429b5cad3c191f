package main

import (
	"testing"

	"chemtrack-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestCreateChemicalSeedsAllBranches(t *testing.T) {
	env := setupTestApp()
	token := testSessionToken()

	req := jsonRequest("POST", "/api/chemicals",
		map[string]interface{}{"name": "Hydrochloric Acid", "min_level": 2.0}, token)
	resp, err := env.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	var chemical models.Chemical
	assert.NoError(t, env.db.Where("name = ?", "Hydrochloric Acid").First(&chemical).Error)
	assert.Equal(t, models.UnitOunces, chemical.Unit)
	assert.Equal(t, 2.0, chemical.MinLevel)

	// Exactly one zero-valued balance row per branch, no history
	var levels []models.InventoryLevel
	env.db.Where("chemical_id = ?", chemical.ID).Order("location ASC").Find(&levels)
	assert.Len(t, levels, 3)

	seen := make(map[string]bool)
	for _, level := range levels {
		assert.Equal(t, 0.0, level.CurrentAmount)
		assert.Equal(t, 0.0, level.InTransitAmount)
		seen[level.Location] = true
	}
	for _, location := range models.BranchLocations() {
		assert.True(t, seen[location], location)
	}

	var historyCount int64
	env.db.Model(&models.ChangeHistory{}).Where("chemical_id = ?", chemical.ID).Count(&historyCount)
	assert.Equal(t, int64(0), historyCount)
}

func TestCreateChemicalValidation(t *testing.T) {
	env := setupTestApp()
	token := testSessionToken()

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
	}{
		{"Missing name", map[string]interface{}{"min_level": 1.0}, 400},
		{"Blank name", map[string]interface{}{"name": "   ", "min_level": 1.0}, 400},
		{"Negative threshold", map[string]interface{}{"name": "Chlorine", "min_level": -1.0}, 400},
		{"Unsupported unit", map[string]interface{}{"name": "Chlorine", "unit": "Liters"}, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.app.Test(jsonRequest("POST", "/api/chemicals", tt.body, token))
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestCreateChemicalDuplicateName(t *testing.T) {
	env := setupTestApp()
	token := testSessionToken()
	createTestChemical(env.db, "Muriatic Acid", 1)

	resp, err := env.app.Test(jsonRequest("POST", "/api/chemicals",
		map[string]interface{}{"name": "Muriatic Acid", "min_level": 1.0}, token))
	assert.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestListChemicals(t *testing.T) {
	env := setupTestApp()
	token := testSessionToken()
	createTestChemical(env.db, "Sodium Hypochlorite", 4)
	createTestChemical(env.db, "Hydrochloric Acid", 2)

	resp, err := env.app.Test(jsonRequest("GET", "/api/chemicals", nil, token))
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decodeBody(resp)
	chemicals := body["chemicals"].([]interface{})
	assert.Len(t, chemicals, 2)

	first := chemicals[0].(map[string]interface{})
	assert.Equal(t, "Hydrochloric Acid", first["name"])
}
