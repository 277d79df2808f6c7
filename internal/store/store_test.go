package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parkscout-nyc/parkscout/internal/config"
)

func testStoreConfig(path string) config.StoreConfig {
	return config.StoreConfig{Driver: "sqlite", Path: path}
}

func testStoreConfigDriver(driver string) config.StoreConfig {
	return config.StoreConfig{Driver: driver}
}

func TestValidateDataset(t *testing.T) {
	assert.NoError(t, validateDataset("signs"))
	assert.NoError(t, validateDataset("meters"))
	assert.NoError(t, validateDataset("violations"))
	assert.Error(t, validateDataset("runs"))
	assert.Error(t, validateDataset(""))
}
