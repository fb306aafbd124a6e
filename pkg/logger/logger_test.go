package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLogsJSONWithCode(t *testing.T) {
	var buf bytes.Buffer
	setup(&buf, true)

	For(SESSION).Info("session expired", "user_id", 3)
	For(SESSION).Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "session expired", rec["msg"])
	assert.Equal(t, "SESSION", rec["code"])
	assert.EqualValues(t, 3, rec["user_id"])
}
