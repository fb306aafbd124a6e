package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type driveInput struct {
	ClientID  string `validate:"required"`
	ModelsURL string `validate:"gdrive_folder"`
}

type metricsInput struct {
	Metrics map[string]float64 `validate:"dive,keys,required,endkeys,gte=0,lte=1"`
}

func newValidate(t *testing.T) *validator.Validate {
	v := validator.New()
	require.NoError(t, Register(v))
	return v
}

func TestIsDriveFolderURL(t *testing.T) {
	assert.True(t, IsDriveFolderURL("https://drive.google.com/drive/folders/1AbC-d_E"))
	assert.True(t, IsDriveFolderURL("https://drive.google.com/folders/xyz"))
	assert.False(t, IsDriveFolderURL("https://drive.google.com/file/d/xyz"))
	assert.False(t, IsDriveFolderURL("http://drive.google.com/drive/folders/xyz"))
	assert.False(t, IsDriveFolderURL("https://drive.google.com/drive/folders/a b"))
}

func TestDriveFolderTagAllowsEmpty(t *testing.T) {
	v := newValidate(t)

	assert.NoError(t, v.Struct(driveInput{ClientID: "id"}))

	err := v.Struct(driveInput{ClientID: "id", ModelsURL: "https://example.com/folder"})
	require.Error(t, err)
	assert.Equal(t, "Models folder must be a Google Drive folder URL", FormatValidationError(err))
}

func TestRequiredMessage(t *testing.T) {
	err := newValidate(t).Struct(driveInput{})
	require.Error(t, err)
	assert.Equal(t, "Client ID is required", FormatValidationError(err))
}

func TestMetricRangeMessageNamesMetric(t *testing.T) {
	v := newValidate(t)

	assert.NoError(t, v.Struct(metricsInput{Metrics: map[string]float64{"accuracy": 0.9, "recall": 0}}))

	err := v.Struct(metricsInput{Metrics: map[string]float64{"accuracy": 1.5}})
	require.Error(t, err)
	assert.Equal(t, "accuracy must be between 0 and 1", FormatValidationError(err))
}
