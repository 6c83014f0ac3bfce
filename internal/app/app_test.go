package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/blogicum/internal/config"
)

func memoryConfig(t *testing.T) *config.Config {
	return &config.Config{
		GinMode:        "test",
		StoreDriver:    config.StoreMemory,
		SessionBackend: config.SessionMemory,
		SessionTTL:     time.Hour,
		MediaDir:       t.TempDir(),
	}
}

func TestInitializeInMemory(t *testing.T) {
	a, err := Initialize(memoryConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.Nil(t, a.Cache)
	assert.Nil(t, a.Search)
	require.NotNil(t, a.Router)

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.StoreDriver = "sqlite"

	_, err := Open(cfg, zerolog.Nop())

	assert.Error(t, err)
}
