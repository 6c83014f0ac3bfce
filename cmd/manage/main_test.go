package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/blogicum/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StoreDriver:    config.StoreMemory,
		SessionBackend: config.SessionMemory,
		SessionTTL:     time.Hour,
	}
}

func TestRunUsage(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorIs(t, run(nil, memoryConfig(), zerolog.Nop(), &out), errUsage)
	assert.ErrorIs(t, run([]string{"frobnicate"}, memoryConfig(), zerolog.Nop(), &out), errUsage)
	assert.ErrorIs(t, run([]string{"createuser", "-username", "bob"}, memoryConfig(), zerolog.Nop(), &out), errUsage)
}

func TestRunCreateUser(t *testing.T) {
	var out bytes.Buffer

	err := run([]string{"createuser", "-username", "admin", "-password", "long-enough-pass", "-staff"},
		memoryConfig(), zerolog.Nop(), &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "created user admin")
	assert.Contains(t, out.String(), "staff=true")
}

func TestRunCreateUserRejectsShortPassword(t *testing.T) {
	var out bytes.Buffer

	err := run([]string{"createuser", "-username", "admin", "-password", "short"}, memoryConfig(), zerolog.Nop(), &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "password1")
}

func TestRunMigrateInMemory(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, run([]string{"migrate"}, memoryConfig(), zerolog.Nop(), &out))
	assert.Contains(t, out.String(), "schema is up to date")
}

func TestRunReindexNeedsSearch(t *testing.T) {
	var out bytes.Buffer

	err := run([]string{"reindex"}, memoryConfig(), zerolog.Nop(), &out)

	assert.ErrorContains(t, err, "ELASTICSEARCH_ADDR")
}
