package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chemtrack-backend/models"
	"chemtrack-backend/services"

	"github.com/stretchr/testify/assert"
)

var receiptPDF = []byte("%PDF-1.4 fake receipt")

// submitChangeWithFile posts one ledger change with a receipt attached
func submitChangeWithFile(env *testEnv, token string, fields map[string]string, fileName string, content []byte) (int, map[string]interface{}) {
	buf, contentType := changeForm(fields, "attachment", fileName, content)
	req := httptest.NewRequest("POST", "/api/inventory/changes", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req)
	if err != nil {
		return 0, nil
	}
	return resp.StatusCode, decodeBody(resp)
}

func TestChangeWithAttachment(t *testing.T) {
	env := setupTestApp()
	token := testSessionToken()
	chemical := createTestChemical(env.db, "Hydrochloric Acid", 2)

	status, body := submitChangeWithFile(env, token, map[string]string{
		"chemical_id": fmt.Sprint(chemical.ID),
		"location":    models.LocationPhxN,
		"amount":      "2",
		"unit":        models.UnitGallons,
		"type":        models.ChangeNewInventory,
	}, "receipt.pdf", receiptPDF)
	assert.Equal(t, 201, status)

	changes := body["changes"].([]interface{})
	assert.Len(t, changes, 1)
	url := changes[0].(map[string]interface{})["attachment_url"].(string)
	assert.True(t, strings.HasPrefix(url, "https://blobs.test/"), url)

	assert.Equal(t, 1, env.blobs.Len())

	var row models.ChangeHistory
	assert.NoError(t, env.db.First(&row).Error)
	assert.NotEmpty(t, row.AttachmentKey)
	stored, ok := env.blobs.Get(row.AttachmentKey)
	assert.True(t, ok)
	assert.Equal(t, receiptPDF, stored)
}

func TestTransferSharesAttachment(t *testing.T) {
	env := setupTestApp()
	token := testSessionToken()
	chemical := createTestChemical(env.db, "Sodium Hypochlorite", 4)
	setLevel(env.db, chemical.ID, models.LocationPhxSW, 300, 0)

	status, body := submitChangeWithFile(env, token, map[string]string{
		"chemical_id": fmt.Sprint(chemical.ID),
		"location":    models.LocationPhxSW,
		"amount":      "50",
		"unit":        models.UnitOunces,
		"type":        models.ChangeTruckInventory,
	}, "transfer.jpg", []byte("jpeg-bytes"))
	assert.Equal(t, 201, status)

	// One uploaded object referenced from both paired rows
	changes := body["changes"].([]interface{})
	assert.Len(t, changes, 2)
	first := changes[0].(map[string]interface{})["attachment_url"].(string)
	second := changes[1].(map[string]interface{})["attachment_url"].(string)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.blobs.Len())
}

func TestAttachmentBadExtensionRejected(t *testing.T) {
	env := setupTestApp()
	token := testSessionToken()
	chemical := createTestChemical(env.db, "Hydrochloric Acid", 2)
	setLevel(env.db, chemical.ID, models.LocationPhxN, 100, 0)

	status, _ := submitChangeWithFile(env, token, map[string]string{
		"chemical_id": fmt.Sprint(chemical.ID),
		"location":    models.LocationPhxN,
		"amount":      "10",
		"unit":        models.UnitOunces,
		"type":        models.ChangeWithdrawn,
	}, "malware.exe", []byte("nope"))
	assert.Equal(t, 400, status)

	assert.Equal(t, 0, env.blobs.Len())
	level := getLevel(env.db, chemical.ID, models.LocationPhxN)
	assert.Equal(t, 100.0, level.CurrentAmount)

	var historyCount int64
	env.db.Model(&models.ChangeHistory{}).Count(&historyCount)
	assert.Equal(t, int64(0), historyCount)
}

func TestAttachReceiptToExistingRow(t *testing.T) {
	env := setupTestApp()
	token := testSessionToken()
	chemical := createTestChemical(env.db, "Hydrochloric Acid", 2)

	resp, err := submitChange(env, token, map[string]string{
		"chemical_id": fmt.Sprint(chemical.ID),
		"location":    models.LocationPhxN,
		"amount":      "64",
		"unit":        models.UnitOunces,
		"type":        models.ChangeNewInventory,
	})
	assert.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	var row models.ChangeHistory
	assert.NoError(t, env.db.First(&row).Error)
	assert.Empty(t, row.AttachmentURL)

	buf, contentType := changeForm(nil, "file", "late-receipt.png", []byte("png-bytes"))
	req := httptest.NewRequest("POST", fmt.Sprintf("/api/history/%d/attachment", row.ID), buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = env.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	change := decodeBody(resp)["change"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(change["attachment_url"].(string), "https://blobs.test/"))
	assert.Equal(t, 1, env.blobs.Len())

	assert.NoError(t, env.db.First(&row, row.ID).Error)
	assert.NotEmpty(t, row.AttachmentKey)
}

func TestAttachReceiptMissingRow(t *testing.T) {
	env := setupTestApp()
	token := testSessionToken()

	buf, contentType := changeForm(nil, "file", "receipt.pdf", receiptPDF)
	req := httptest.NewRequest("POST", "/api/history/9999/attachment", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, 0, env.blobs.Len())
}

func TestRefreshAttachmentURL(t *testing.T) {
	env := setupTestApp()
	token := testSessionToken()
	chemical := createTestChemical(env.db, "Hydrochloric Acid", 2)

	status, body := submitChangeWithFile(env, token, map[string]string{
		"chemical_id": fmt.Sprint(chemical.ID),
		"location":    models.LocationPhxN,
		"amount":      "64",
		"unit":        models.UnitOunces,
		"type":        models.ChangeNewInventory,
	}, "receipt.pdf", receiptPDF)
	assert.Equal(t, 201, status)
	rowID := body["changes"].([]interface{})[0].(map[string]interface{})["id"].(float64)

	resp, err := env.app.Test(jsonRequest("GET",
		fmt.Sprintf("/api/history/%d/attachment", int(rowID)), nil, token))
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	url := decodeBody(resp)["attachment_url"].(string)
	assert.True(t, strings.HasPrefix(url, "https://blobs.test/"))
}

func TestRefreshAttachmentURLWithoutAttachment(t *testing.T) {
	env := setupTestApp()
	token := testSessionToken()
	chemical := createTestChemical(env.db, "Hydrochloric Acid", 2)

	resp, err := submitChange(env, token, map[string]string{
		"chemical_id": fmt.Sprint(chemical.ID),
		"location":    models.LocationPhxN,
		"amount":      "64",
		"unit":        models.UnitOunces,
		"type":        models.ChangeNewInventory,
	})
	assert.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	var row models.ChangeHistory
	assert.NoError(t, env.db.First(&row).Error)

	resp, err = env.app.Test(jsonRequest("GET",
		fmt.Sprintf("/api/history/%d/attachment", row.ID), nil, token))
	assert.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

// failingStore rejects every upload, standing in for an unreachable backend.
type failingStore struct{}

func (failingStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	return errors.New("bucket unreachable")
}

func (failingStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "", errors.New("bucket unreachable")
}

func (failingStore) Delete(ctx context.Context, key string) error {
	return nil
}

// buildFileHeader fabricates a multipart file header without an HTTP request
func buildFileHeader(t *testing.T, fileName string, content []byte) *multipart.FileHeader {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	assert.NoError(t, err)
	part.Write(content)
	w.Close()

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	assert.NoError(t, err)
	return form.File["file"][0]
}

func TestUploadFailureAbortsSubmission(t *testing.T) {
	db := setupTestDB()
	ledger := services.NewLedgerService(db, failingStore{})

	chemical := createTestChemical(db, "Hydrochloric Acid", 2)
	setLevel(db, chemical.ID, models.LocationPhxN, 100, 0)

	_, err := ledger.ApplyChange(context.Background(), services.ChangeInput{
		ChemicalID: chemical.ID,
		Location:   models.LocationPhxN,
		Amount:     10,
		Unit:       models.UnitOunces,
		Type:       models.ChangeWithdrawn,
		UserEmail:  "tester@encorelm.com",
		Attachment: buildFileHeader(t, "receipt.pdf", receiptPDF),
	})
	assert.Error(t, err)

	// Nothing committed: the balance and the history are untouched
	level := getLevel(db, chemical.ID, models.LocationPhxN)
	assert.Equal(t, 100.0, level.CurrentAmount)

	var historyCount int64
	db.Model(&models.ChangeHistory{}).Count(&historyCount)
	assert.Equal(t, int64(0), historyCount)
}

func TestRejectedSubmissionCleansUpBlob(t *testing.T) {
	env := setupTestApp()
	token := testSessionToken()
	chemical := createTestChemical(env.db, "Hydrochloric Acid", 2)
	setLevel(env.db, chemical.ID, models.LocationPhxN, 10, 0)

	status, _ := submitChangeWithFile(env, token, map[string]string{
		"chemical_id": fmt.Sprint(chemical.ID),
		"location":    models.LocationPhxN,
		"amount":      "50",
		"unit":        models.UnitOunces,
		"type":        models.ChangeWithdrawn,
	}, "receipt.pdf", receiptPDF)
	assert.Equal(t, 422, status)

	// The uploaded object was deleted when the transaction rolled back
	assert.Equal(t, 0, env.blobs.Len())
	level := getLevel(env.db, chemical.ID, models.LocationPhxN)
	assert.Equal(t, 10.0, level.CurrentAmount)
}
