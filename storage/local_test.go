package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	assert.NoError(t, err)

	ctx := context.Background()
	err = store.Put(ctx, "1-1700000000000.pdf", strings.NewReader("receipt"), "application/pdf")
	assert.NoError(t, err)

	url, err := store.SignedURL(ctx, "1-1700000000000.pdf", 0)
	assert.NoError(t, err)
	assert.Equal(t, "/uploads/receipts/1-1700000000000.pdf", url)

	assert.NoError(t, store.Delete(ctx, "1-1700000000000.pdf"))

	_, err = store.SignedURL(ctx, "1-1700000000000.pdf", 0)
	assert.Error(t, err)

	// Deleting a missing object is not an error
	assert.NoError(t, store.Delete(ctx, "1-1700000000000.pdf"))
}

func TestValidKey(t *testing.T) {
	assert.NoError(t, validKey("5-1700000000000.png"))
	assert.Error(t, validKey(""))
	assert.Error(t, validKey("../escape.pdf"))
	assert.Error(t, validKey("nested/key.pdf"))
	assert.Error(t, validKey("back\\slash.pdf"))
}

func TestMemoryStoreSignedURLRequiresObject(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, err := store.SignedURL(ctx, "missing.pdf", 0)
	assert.Error(t, err)

	assert.NoError(t, store.Put(ctx, "9-1700000000000.jpg", strings.NewReader("jpeg"), "image/jpeg"))
	url, err := store.SignedURL(ctx, "9-1700000000000.jpg", 0)
	assert.NoError(t, err)
	assert.Contains(t, url, "9-1700000000000.jpg")
}
