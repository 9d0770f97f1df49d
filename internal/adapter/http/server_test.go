package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	httpadapter "github.com/couchcryptid/rainfall-ews/internal/adapter/http"
	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/couchcryptid/rainfall-ews/internal/model"
	"github.com/couchcryptid/rainfall-ews/internal/observability"
	"github.com/couchcryptid/rainfall-ews/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rainClassifier scores danger as RR_Lag1 / 100, capped at 1.
type rainClassifier struct {
	rrIndex int
	err     error
}

func (c rainClassifier) PredictProba(row []float64) ([]float64, error) {
	if c.err != nil {
		return nil, c.err
	}
	p := min(row[c.rrIndex]/100, 1)
	return []float64{1 - p, p}, nil
}

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

var testSchema = domain.FeatureSchema{
	"TAVG", "RH_AVG", "SS", "FF_AVG",
	"RR_Lag1", "RR_Lag2", "RR_Lag3",
	"RR_Roll3_Mean", "RR_Roll3_Max",
}

func testAssets(clf domain.Classifier) *model.Assets {
	importances := make([]model.Importance, len(testSchema))
	for i, name := range testSchema {
		importances[i] = model.Importance{Feature: name, Weight: float64(i+1) / 45}
	}
	return &model.Assets{
		Schema:      testSchema,
		Threshold:   0.35,
		Classifier:  clf,
		Importances: importances,
	}
}

func newTestServer(t *testing.T, assets *model.Assets) *httpadapter.Server {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	analyzer := pipeline.New(assets, "Stasiun Klimatologi Citeko, Bogor", slog.Default(), metrics)
	return httpadapter.NewServer(":0", analyzer, metrics, slog.Default(), httpadapter.WithRand(fixedRand(0.5)))
}

func newReadyServer(t *testing.T) *httpadapter.Server {
	t.Helper()
	return newTestServer(t, testAssets(rainClassifier{rrIndex: 4}))
}

func do(srv http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func formValues(rr, rh, tavg string) url.Values {
	return url.Values{"rr": {rr}, "rh_avg": {rh}, "tavg": {tavg}}
}

// --- health, readiness, metrics ---

func TestHealthzReturns200(t *testing.T) {
	rec := do(newReadyServer(t), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(newReadyServer(t), httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(newTestServer(t, nil), httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "model assets are not loaded", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newReadyServer(t), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- dashboard ---

func TestIndex_Idle(t *testing.T) {
	rec := do(newReadyServer(t), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc := parseHTML(t, rec)
	assert.Equal(t, "idle", doc.Find("main").AttrOr("data-state", ""))
	assert.Equal(t, 1, doc.Find("#idle").Length())
	assert.Equal(t, "0.00", doc.Find("input#rr").AttrOr("value", ""))
	assert.Equal(t, "80.00", doc.Find("input#rh_avg").AttrOr("value", ""))
	assert.Equal(t, "24.00", doc.Find("input#tavg").AttrOr("value", ""))
	assert.Equal(t, 0, doc.Find("#status").Length())
}

func TestIndex_Scenario(t *testing.T) {
	rec := do(newReadyServer(t), httptest.NewRequest(http.MethodGet, "/?scenario=rainy", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	assert.Equal(t, "70.00", doc.Find("input#rr").AttrOr("value", ""))
	assert.Equal(t, "95.50", doc.Find("input#rh_avg").AttrOr("value", ""))
	assert.Equal(t, "21.50", doc.Find("input#tavg").AttrOr("value", ""))
	assert.Contains(t, doc.Find("#notice").Text(), "Hari Hujan")
}

func TestIndex_UnknownScenario(t *testing.T) {
	rec := do(newReadyServer(t), httptest.NewRequest(http.MethodGet, "/?scenario=snow", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	doc := parseHTML(t, rec)
	assert.Contains(t, doc.Find("#notice").Text(), "unknown scenario")
	assert.Equal(t, "0.00", doc.Find("input#rr").AttrOr("value", ""))
}

func TestAnalyze_Danger(t *testing.T) {
	rec := do(newReadyServer(t), postForm("/analyze", formValues("60", "97", "21")))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	assert.Equal(t, "result", doc.Find("main").AttrOr("data-state", ""))
	status := doc.Find("#status")
	assert.Equal(t, domain.StatusDanger, status.AttrOr("data-status", ""))
	assert.True(t, status.HasClass("danger-theme"))
	assert.Contains(t, doc.Find("#probability").Text(), "60.00%")
	assert.Equal(t, "Terdeteksi", strings.TrimSpace(doc.Find("#anomaly").Text()))
	assert.Equal(t, 4, doc.Find("#community li").Length())
	assert.Equal(t, 3, doc.Find("#agency li").Length())
	assert.Equal(t, 8, doc.Find("#importance .bar-row").Length())
	assert.Equal(t, "RR_Roll3_Max", doc.Find("#importance .label").First().Text())
	assert.Equal(t, 24, doc.Find("#trend circle").Length())
	assert.Equal(t, 5, doc.Find("#radar text").Length())
	assert.NotEmpty(t, doc.Find("#radar polygon.profile").AttrOr("points", ""))
	assert.Equal(t, "60", doc.Find("#report-form input[name=rr]").AttrOr("value", ""))
}

func TestAnalyze_Safe(t *testing.T) {
	rec := do(newReadyServer(t), postForm("/analyze", formValues("2,5", "70", "27")))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	status := doc.Find("#status")
	assert.Equal(t, domain.StatusSafe, status.AttrOr("data-status", ""))
	assert.True(t, status.HasClass("safe-theme"))
	assert.Contains(t, doc.Find("#probability").Text(), "2.50%")
	assert.Equal(t, 3, doc.Find("#community li").Length())
	assert.Equal(t, 2, doc.Find("#agency li").Length())
}

func TestAnalyze_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
	}{
		{"missing field", url.Values{"rr": {"10"}, "rh_avg": {"80"}}},
		{"not a number", formValues("lots", "80", "24")},
		{"rain out of range", formValues("600", "80", "24")},
		{"humidity out of range", formValues("10", "120", "24")},
		{"temperature out of range", formValues("10", "80", "5")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newReadyServer(t), postForm("/analyze", tt.values))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			doc := parseHTML(t, rec)
			assert.Equal(t, "error", doc.Find("main").AttrOr("data-state", ""))
			assert.Contains(t, doc.Find("#error").Text(), "invalid observation")
			assert.Equal(t, 0, doc.Find("#status").Length())
		})
	}
}

func TestAnalyze_PredictionFailure(t *testing.T) {
	srv := newTestServer(t, testAssets(rainClassifier{err: errors.New("model exploded")}))

	rec := do(srv, postForm("/analyze", formValues("10", "80", "24")))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	doc := parseHTML(t, rec)
	assert.Equal(t, "error", doc.Find("main").AttrOr("data-state", ""))
	assert.Contains(t, doc.Find("#error").Text(), "model exploded")
}

// --- report ---

func TestReport(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.January, 14, 16, 30, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	rec := do(newReadyServer(t), postForm("/report", formValues("60", "97", "21")))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Laporan_EWS_20250114_1630.txt"`, rec.Header().Get("Content-Disposition"))

	body := rec.Body.String()
	assert.Contains(t, body, "Tanggal Generate : 14-01-2025 16:30\n")
	assert.Contains(t, body, "- Curah Hujan Hari Ini : 60.0 mm\n")
	assert.Contains(t, body, "- Status           : BAHAYA / SIAGA\n")
	assert.Contains(t, body, "- Probabilitas     : 60.00%\n")
	assert.Contains(t, body, "- Threshold Model  : 0.35\n")
}

func TestReport_InvalidInput(t *testing.T) {
	rec := do(newReadyServer(t), postForm("/report", formValues("-5", "80", "24")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- JSON API ---

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPredictAPI(t *testing.T) {
	rec := do(newReadyServer(t), postJSON("/api/v1/predict", `{"rr": 0, "rh_avg": 80, "tavg": 24}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AlertID     string  `json:"alert_id"`
		Status      string  `json:"status"`
		Probability float64 `json:"probability"`
		Threshold   float64 `json:"threshold"`
		IsDanger    bool    `json:"is_danger"`
		Features    []struct {
			Name  string  `json:"name"`
			Value float64 `json:"value"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.NotEmpty(t, body.AlertID)
	assert.Equal(t, domain.StatusSafe, body.Status)
	assert.False(t, body.IsDanger)
	assert.InDelta(t, 0.35, body.Threshold, 0)

	want := []float64{24, 80, 6, 2, 0, 0, 0, 0, 0}
	require.Len(t, body.Features, len(want))
	for i, f := range body.Features {
		assert.Equal(t, testSchema[i], f.Name)
		assert.InDelta(t, want[i], f.Value, 0, f.Name)
	}
}

func TestPredictAPI_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"rr":`, http.StatusBadRequest},
		{"unknown field", `{"rr": 1, "rh_avg": 80, "tavg": 24, "wind": 3}`, http.StatusBadRequest},
		{"out of range", `{"rr": 1, "rh_avg": 180, "tavg": 24}`, http.StatusBadRequest},
		{"missing fields", `{"tavg": 24}`, http.StatusBadRequest},
		{"null field", `{"rr": null, "rh_avg": 80, "tavg": 24}`, http.StatusBadRequest},
		{"empty object", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newReadyServer(t), postJSON("/api/v1/predict", tt.body))
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

type countingDispatcher struct {
	mu    sync.Mutex
	count int
}

func (d *countingDispatcher) Dispatch(_ context.Context, _ domain.Alert) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	return nil
}

func TestPredictAPI_MissingFieldsAreNotDefaulted(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	alerts := &countingDispatcher{}
	analyzer := pipeline.New(testAssets(rainClassifier{rrIndex: 4}), "Citeko", slog.Default(), metrics,
		pipeline.WithDispatcher(alerts))
	srv := httpadapter.NewServer(":0", analyzer, metrics, slog.Default())

	rec := do(srv, postJSON("/api/v1/predict", `{"tavg": 24}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "rr")
	assert.Contains(t, body["error"], "rh_avg")
	assert.NotContains(t, body["error"], "tavg")
	assert.Zero(t, alerts.count, "no alert for incomplete input")

	rec = do(srv, postJSON("/api/v1/predict", `{"rr": 0, "rh_avg": 0, "tavg": 24}`))
	assert.Equal(t, http.StatusOK, rec.Code, "explicit zeros are valid")
	assert.Equal(t, 1, alerts.count)
}

func TestPredictAPI_PredictionFailure(t *testing.T) {
	srv := newTestServer(t, testAssets(rainClassifier{err: fmt.Errorf("row has 3 features")}))

	rec := do(srv, postJSON("/api/v1/predict", `{"rr": 1, "rh_avg": 80, "tavg": 24}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "prediction failed")
}

func TestModelAPI(t *testing.T) {
	rec := do(newReadyServer(t), httptest.NewRequest(http.MethodGet, "/api/v1/model", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Features    []string           `json:"features"`
		Threshold   float64            `json:"threshold"`
		Importances []model.Importance `json:"importances"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string(testSchema), body.Features)
	assert.InDelta(t, 0.35, body.Threshold, 0)
	assert.Len(t, body.Importances, len(testSchema))
}

func TestModelAPI_NotLoaded(t *testing.T) {
	rec := do(newTestServer(t, nil), httptest.NewRequest(http.MethodGet, "/api/v1/model", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGzip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	rec := do(newReadyServer(t), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}
