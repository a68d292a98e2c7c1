package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/sobulik/fundec/internal/logger"
)

func TestServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewPrometheus(reg, "")
	collector.RecordDispatch(1, 40, false)

	s, err := Serve("127.0.0.1:0", reg, logger.NewTest(t))
	require.NoError(t, err)

	get := func(path string) string {
		resp, err := http.Get("http://" + s.Addr() + path) //nolint:noctx // test helper
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		return string(body)
	}

	require.Equal(t, "OK\n", get("/health"))
	require.Contains(t, get("/metrics"), `fundec_coordinator_chunks_dispatched_total{kind="remote"} 1`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}

func TestServe_BadAddress(t *testing.T) {
	_, err := Serve("not-an-address", nil, logger.NewNop())
	require.Error(t, err)
}
