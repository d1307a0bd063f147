package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/shipsort/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var _ core.Observer = (*Metrics)(nil)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/runs/{runID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+id, nil))
	}

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodGet, "/runs/{runID}", "404"))
	require.Equal(t, 3.0, got)
	require.Equal(t, 0.0, testutil.ToFloat64(m.requestInFlight))
}

func TestObserver(t *testing.T) {
	r := require.New(t)
	m := New()

	m.RunCompleted(core.Summary{Total: 5, PostOffice: 1, HasDistrict: 3, NoDistrict: 1}, 10*time.Millisecond)
	m.RunFailed(core.ErrMissingColumn)
	m.Exported(core.HasDistrict, time.Millisecond)

	r.Equal(3.0, testutil.ToFloat64(m.rowsClassified.WithLabelValues(string(core.HasDistrict))))
	r.Equal(1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("ok", "")))
	r.Equal(1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("error", "COL001")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	r.Equal(http.StatusOK, rec.Code)
	r.True(strings.Contains(rec.Body.String(), "shipsort_export_duration_seconds"))
}
