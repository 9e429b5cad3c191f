package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	"chemtrack-backend/controllers"
	"chemtrack-backend/models"
	"chemtrack-backend/routes"
	"chemtrack-backend/services"
	"chemtrack-backend/storage"
	"chemtrack-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testGoogleSecret = "google-test-secret"

// setupTestDB creates an in-memory test database
func setupTestDB() *gorm.DB {
	db, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	db.AutoMigrate(&models.Chemical{}, &models.InventoryLevel{}, &models.ChangeHistory{})
	return db
}

// testEnv bundles the app under test with its backing stores
type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	blobs *storage.MemoryStore
}

// setupTestApp wires the full route surface against in-memory stores. The
// Google verifier is switched to a locally-signed test key.
func setupTestApp() *testEnv {
	db := setupTestDB()
	blobs := storage.NewMemory()

	hub := services.NewHub()
	go hub.Run()

	ledgerService := services.NewLedgerService(db, blobs)
	historyService := services.NewHistoryService(db)

	verifier := utils.NewGoogleVerifier("")
	verifier.KeyFunc = func(token *jwt.Token) (interface{}, error) {
		return []byte(testGoogleSecret), nil
	}

	app := fiber.New()
	routes.SetupAuthRoutes(app, controllers.NewAuthController(verifier, "encorelm.com"))
	routes.SetupChemicalRoutes(app, controllers.NewChemicalController(db))
	routes.SetupInventoryRoutes(app, controllers.NewInventoryController(db, ledgerService, hub))
	routes.SetupHistoryRoutes(app, controllers.NewHistoryController(db, historyService, ledgerService))

	return &testEnv{app: app, db: db, blobs: blobs}
}

// signTestGoogleToken creates an ID token the test verifier accepts
func signTestGoogleToken(email, name string) string {
	claims := jwt.MapClaims{
		"iss":   "accounts.google.com",
		"email": email,
		"name":  name,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte(testGoogleSecret))
	return signed
}

// testSessionToken issues a session token for the default test user
func testSessionToken() string {
	token, _ := utils.GenerateJWT("tester@encorelm.com", "Test User")
	return token
}

// createTestChemical inserts a chemical with zero balances at every branch
func createTestChemical(db *gorm.DB, name string, minLevel float64) models.Chemical {
	chemical := models.Chemical{Name: name, Unit: models.UnitOunces, MinLevel: minLevel}
	db.Create(&chemical)
	for _, location := range models.BranchLocations() {
		db.Create(&models.InventoryLevel{ChemicalID: chemical.ID, Location: location})
	}
	return chemical
}

// setLevel overwrites the stored balances for one (chemical, location) pair
func setLevel(db *gorm.DB, chemicalID uint, location string, current, inTransit float64) {
	db.Model(&models.InventoryLevel{}).
		Where("chemical_id = ? AND location = ?", chemicalID, location).
		Updates(map[string]interface{}{"current_amount": current, "in_transit_amount": inTransit})
}

// getLevel reads back the stored balances for one (chemical, location) pair
func getLevel(db *gorm.DB, chemicalID uint, location string) models.InventoryLevel {
	var level models.InventoryLevel
	db.Where("chemical_id = ? AND location = ?", chemicalID, location).First(&level)
	return level
}

// jsonRequest builds an authenticated JSON request
func jsonRequest(method, path string, body interface{}, token string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// changeForm builds a multipart ledger submission; fileName may be empty for
// submissions without an attachment
func changeForm(fields map[string]string, fileField, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		w.WriteField(key, value)
	}
	if fileName != "" {
		part, _ := w.CreateFormFile(fileField, fileName)
		part.Write(fileContent)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

// submitChange posts one ledger change through the API
func submitChange(env *testEnv, token string, fields map[string]string) (*http.Response, error) {
	buf, contentType := changeForm(fields, "", "", nil)
	req := httptest.NewRequest("POST", "/api/inventory/changes", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	return env.app.Test(req)
}

// decodeBody decodes a JSON response body into a map
func decodeBody(resp *http.Response) map[string]interface{} {
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	json.Unmarshal(data, &out)
	return out
}
