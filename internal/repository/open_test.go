package repository

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jinwoo290350/PaiLOCAL/internal/config"
)

func TestOpen_Memory(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory

	repo, closeFn, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryLocationRepository{}, repo)
	assert.NoError(t, closeFn(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "redis"

	_, _, err := Open(context.Background(), cfg, zerolog.Nop())
	assert.EqualError(t, err, `unknown store driver "redis"`)
}
