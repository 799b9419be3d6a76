package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/store"
	"github.com/stretchr/testify/require"
)

// downStore fails every ping with a driver-style message.
type downStore struct {
	store.Store
}

func (downStore) Ping(context.Context) error {
	return errors.New("dial tcp 10.0.0.5:5432: connect: connection refused (user=clubhouse)")
}

func TestReadyzHidesDatabaseError(t *testing.T) {
	rec := httptest.NewRecorder()
	ReadyzHandler(time.Now(), "test", downStore{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"error"`)
	require.Contains(t, rec.Body.String(), `"status":"degraded"`)
	require.NotContains(t, rec.Body.String(), "10.0.0.5")
	require.NotContains(t, rec.Body.String(), "clubhouse)")
}
