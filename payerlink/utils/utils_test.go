package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aurelianware/payerlink/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	const key = "PLX_UTILS_TEST_FROM_ENV"
	assert.Equal(t, "fallback", FromEnv(key, "fallback"))

	assert.Nil(t, conf.SetEnv(t, key, "configured"))
	defer func() { assert.Nil(t, conf.UnsetEnv(t, key)) }()
	assert.Equal(t, "configured", FromEnv(key, "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	const key = "PLX_UTILS_TEST_INT"
	assert.Equal(t, 42, GetEnvInt(key, 42))

	assert.Nil(t, conf.SetEnv(t, key, "17"))
	assert.Equal(t, 17, GetEnvInt(key, 42))

	assert.Nil(t, conf.SetEnv(t, key, "not-a-number"))
	assert.Equal(t, 42, GetEnvInt(key, 42))
	assert.Nil(t, conf.UnsetEnv(t, key))
}

func TestGetEnvFloat(t *testing.T) {
	const key = "PLX_UTILS_TEST_FLOAT"
	assert.Equal(t, 0.8, GetEnvFloat(key, 0.8))

	assert.Nil(t, conf.SetEnv(t, key, "0.92"))
	assert.Equal(t, 0.92, GetEnvFloat(key, 0.8))
	assert.Nil(t, conf.UnsetEnv(t, key))
}

func TestContainsString(t *testing.T) {
	sa := []string{"Patient", "Coverage", "Claim"}
	assert.True(t, ContainsString(sa, "Coverage"))
	assert.False(t, ContainsString(sa, "Encounter"))
	assert.False(t, ContainsString(nil, "Patient"))
}

func TestCloseFileAndLogError(t *testing.T) {
	assert.NotPanics(t, func() { CloseFileAndLogError(nil) })

	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	CloseFileAndLogError(f)
	// Double close hits the logging branch without panicking.
	assert.NotPanics(t, func() { CloseFileAndLogError(f) })
}
