package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	expected := []string{"serve", "import", "signs", "meters", "violations", "trends", "history", "status"}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "command %s not registered", name)
	}
}

func TestQueryFlagsRegistered(t *testing.T) {
	for _, name := range []string{"lat", "lon", "radius", "sort", "format", "out"} {
		assert.NotNil(t, signsCmd.Flags().Lookup(name), "flag %s missing", name)
	}
}

func TestMetersNearestFlags(t *testing.T) {
	nearest, _, err := metersCmd.Find([]string{"nearest"})
	require.NoError(t, err)
	assert.Equal(t, "nearest", nearest.Name())
	assert.NotNil(t, nearest.Flags().Lookup("lat"))
	assert.Nil(t, nearest.Flags().Lookup("radius"))
}
