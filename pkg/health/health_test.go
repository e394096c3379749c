package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, endpoint http.HandlerFunc) (int, statusResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestReadiness_ManualGate(t *testing.T) {
	h := New()

	assert.False(t, h.IsReady())
	code, resp := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", resp.Status)

	h.SetReady(true)
	assert.True(t, h.IsReady())
	code, resp = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestLiveness_Passing(t *testing.T) {
	h := New()
	h.AddLivenessCheck("noop", time.Second, func(context.Context) error { return nil })

	code, resp := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
}

func TestCheck_FailureThreshold(t *testing.T) {
	c := newCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})
	ctx := context.Background()

	c.run(ctx)
	c.run(ctx)
	assert.True(t, c.healthy.Load(), "two failures stay under the threshold")

	c.run(ctx)
	assert.False(t, c.healthy.Load(), "third consecutive failure flips unhealthy")

	msg, failed := c.failure()
	require.True(t, failed)
	assert.Equal(t, "connection refused", msg)
}

func TestCheck_RecoversAfterSuccess(t *testing.T) {
	healthy := false
	c := newCheck("db", time.Second, func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("down")
	})
	ctx := context.Background()

	for range failureThreshold {
		c.run(ctx)
	}
	require.False(t, c.healthy.Load())

	healthy = true
	c.run(ctx)
	assert.True(t, c.healthy.Load())
}

func TestReadiness_FailingCheck(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("down")
	})
	h.SetReady(true)

	// Drive the check past its failure threshold without Start.
	h.readiness[0].run(context.Background())
	h.readiness[0].run(context.Background())
	h.readiness[0].run(context.Background())

	assert.False(t, h.IsReady())
	code, resp := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, resp.Checks, "db")
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
