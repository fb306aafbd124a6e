package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractPublicID(t *testing.T) {
	assert.Equal(t, "fedlearn/1700-weights.h5", ExtractPublicID("https://res.cloudinary.com/demo/raw/upload/v1712/fedlearn/1700-weights.h5"))
	assert.Equal(t, "vendor/w.json", ExtractPublicID("https://res.cloudinary.com/demo/raw/upload/vendor/w.json"))
	assert.Equal(t, "", ExtractPublicID("https://res.cloudinary.com/demo/raw/other/w.json"))
	assert.Equal(t, "", ExtractPublicID("::bad"))
}

func TestPublicIDDropsDirectoryAndExtension(t *testing.T) {
	now := time.Unix(0, 42)
	assert.Equal(t, "42-weights", PublicID("../tmp/weights.h5", now))
}
