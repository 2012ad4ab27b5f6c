package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const synth = `x, y, and z extents
2 1 1

1
2
<Objects>
house.blend
1
$Wall
#
2
$Roof
#
`

func newTestHandler(t *testing.T, opts []Option, engineOpts ...lattice.Option) (http.Handler, *Server) {
	t.Helper()
	engineOpts = append([]lattice.Option{lattice.WithoutFallback()}, engineOpts...)
	eng, err := lattice.New(engineOpts...)
	require.NoError(t, err)
	s := NewServer(eng, opts...)
	return s.Handler(), s
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

var houseObjects = lattice.WithObjects(domain.Object{Name: "Wall"}, domain.Object{Name: "Roof"})

func TestPlan_Report(t *testing.T) {
	h, _ := newTestHandler(t, nil, houseObjects)
	w := do(h, "POST", "/plan", synth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report domain.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Placed)
	require.Len(t, report.Commands, 2)
	assert.Equal(t, "Roof", report.Commands[1].Object.Name)
	assert.Equal(t, 10.0, report.Commands[1].Position.X)
}

func TestPlan_Lines(t *testing.T) {
	h, _ := newTestHandler(t, nil, houseObjects)

	w := do(h, "POST", "/plan?format=text", synth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Wall @ (0, 0, 0)\nRoof @ (10, 0, 0)\n", w.Body.String())
	assert.Equal(t, "2", w.Header().Get("X-Lattice-Placed"))

	w = do(h, "POST", "/plan?format=jsonl", synth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))
	assert.Equal(t, 2, strings.Count(w.Body.String(), "\n"))

	w = do(h, "POST", "/plan?format=xml", synth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlan_FormatValidatedAgainstSpec(t *testing.T) {
	h, _ := newTestHandler(t, nil, houseObjects)

	w := do(h, "POST", "/plan?format=report", synth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	for _, format := range []string{"xml", "REPORT"} {
		w = do(h, "POST", "/plan?format="+format, synth)
		require.Equal(t, http.StatusBadRequest, w.Code, format)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "invalid request", resp.Kind)
		assert.Contains(t, resp.Error, "format")
	}
}

func TestServeSpec(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	w := do(h, "GET", "/openapi.yaml", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "operationId: plan")
	assert.Contains(t, w.Body.String(), "/fmt:")
}

func TestPlan_Errors(t *testing.T) {
	h, _ := newTestHandler(t, nil, houseObjects)

	t.Run("FormatError", func(t *testing.T) {
		w := do(h, "POST", "/plan", "x, y, and z extents\n1 two 3\n")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, domain.ErrMalformedExtents.Error(), resp.Kind)
		assert.Equal(t, 2, resp.Line)
		assert.Equal(t, "1 two 3", resp.Found)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		w := do(h, "POST", "/plan", strings.Replace(synth, "\n2\n<Objects>", "\n9\n<Objects>", 1))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), domain.ErrIndexOutOfRange.Error())
	})

	t.Run("TooLarge", func(t *testing.T) {
		small, _ := newTestHandler(t, []Option{WithMaxBodyBytes(16)}, houseObjects)
		w := do(small, "POST", "/plan", synth)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestPlan_NothingFound(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	w := do(h, "POST", "/plan", synth)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Report)
	assert.Equal(t, []string{"Wall", "Roof"}, resp.Report.Missing)
}

func TestValidateAndFormat(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	w := do(h, "POST", "/validate", synth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"issues": null}`, w.Body.String())

	w = do(h, "POST", "/validate", strings.Replace(synth, "\n2\n<Objects>", "\n7\n<Objects>", 1))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "index-out-of-range")

	w = do(h, "POST", "/fmt", "preamble\n"+synth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "x, y, and z extents\n2 1 1\n")
	assert.NotContains(t, w.Body.String(), "preamble")
}

func TestHealthInfoMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	h, _ := newTestHandler(t, []Option{WithMetrics(reg)}, houseObjects, lattice.WithLifecycleHooks(metrics.Hooks()))

	w := do(h, "GET", "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(h, "GET", "/info", "")
	assert.Contains(t, w.Body.String(), lattice.Version)

	do(h, "POST", "/plan?format=text", synth)
	w = do(h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `lattice_placements_total{group="1"} 1`)
	assert.Contains(t, w.Body.String(), "lattice_documents_parsed_total 1")

	w = do(h, "OPTIONS", "/plan", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsRouteOnlyWhenConfigured(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	w := do(h, "GET", "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscribeEvents(t *testing.T) {
	streams := NewStreamManager()
	eng, err := lattice.New(lattice.WithoutFallback(), houseObjects, lattice.WithLifecycleHooks(streams.Hooks()))
	require.NoError(t, err)
	s := NewServer(eng)
	s.Streams = streams

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	require.Eventually(t, func() bool { return streams.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	planResp, err := http.Post(srv.URL+"/plan", "text/plain", strings.NewReader(synth))
	require.NoError(t, err)
	planResp.Body.Close()

	var types []string
	for lines.Scan() && len(types) < 3 {
		text := lines.Text()
		if !strings.HasPrefix(text, "data: {") {
			continue
		}
		var ev domain.EventBase
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(text, "data: ")), &ev))
		types = append(types, string(ev.Type))
	}
	assert.Equal(t, []string{"parsed", "resolved", "plane"}, types)
}

func TestStreamManager_Unsubscribe(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe()
	sm.Broadcast("one")
	assert.Equal(t, "one", <-ch)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, sm.Subscribers())
	sm.Broadcast("ignored")
}
