package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyDocumentReturnsDefaults(t *testing.T) {

	got, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestLoadPartialDocumentFillsMissingFieldsWithDefaults(t *testing.T) {

	got, err := Load([]byte("minIslandSize: 4\n"))
	require.NoError(t, err)

	assert.Equal(t, 4, got.MinIslandSize)
	assert.Equal(t, float32(DefaultSleepThreshold), got.SleepThreshold)
	assert.Equal(t, float32(DefaultDilationFactor), got.DilationFactor)
}

func TestLoadFullDocumentOverridesEveryField(t *testing.T) {

	doc := []byte(`
sleepThreshold: 0.25
sleepLinearThreshold: 0.5
dilationFactor: 0.05
minIslandSize: 16
`)
	got, err := Load(doc)
	require.NoError(t, err)

	assert.Equal(t, Tunables{
		SleepThreshold:       0.25,
		SleepLinearThreshold: 0.5,
		DilationFactor:       0.05,
		MinIslandSize:        16,
	}, got)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {

	_, err := Load([]byte("not: valid: yaml: at: all"))
	assert.Error(t, err)
}
