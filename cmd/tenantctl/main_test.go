package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tenantctl/internal/config"
	"github.com/custodia-labs/tenantctl/internal/core/domain"
)

func TestBuildServices(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Session.TeardownTimeout = time.Second

	s, err := buildServices(cfg)

	require.NoError(t, err)
	require.NotNil(t, s.Session)
	assert.Equal(t, domain.StateDisconnected, s.Session.GetState().State)
	assert.NotNil(t, s.Prompts)
	assert.NotNil(t, s.Metrics)
}
