package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/property-advisor/internal/advisor"
	"github.com/sells-group/property-advisor/internal/artifact"
	"github.com/sells-group/property-advisor/internal/config"
	"github.com/sells-group/property-advisor/internal/model"
	"github.com/sells-group/property-advisor/internal/present"
	"github.com/sells-group/property-advisor/internal/store"
)

var testServerConfig = config.ServerConfig{
	AllowedOrigins: []string{"*"},
	RateLimitRPS:   100,
	RateLimitBurst: 100,
}

func testInsightsConfig(t *testing.T) config.InsightsConfig {
	return config.InsightsConfig{FiguresDir: t.TempDir(), TopFeatures: 5, Model: "reg_pipeline"}
}

func newTestRouter(t *testing.T, adv *advisor.Advisor) http.Handler {
	t.Helper()
	s := &server{advisor: adv, insights: store.NewStatic(), cfg: testInsightsConfig(t)}
	return buildRouter(s, testServerConfig)
}

func postJSON(t *testing.T, h http.Handler, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apiError {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, testAdvisor(t))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestRouter_Options(t *testing.T) {
	h := newTestRouter(t, testAdvisor(t))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/options", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var opts present.Options
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &opts))
	assert.Equal(t, present.Cities, opts.Cities)
	assert.Equal(t, 3, opts.BHK.Default)
	assert.Equal(t, 2500, opts.SizeSqFt.Default)
}

func TestRouter_Analyze(t *testing.T) {
	h := newTestRouter(t, testAdvisor(t))

	rr := postJSON(t, h, "/api/v1/analyze", mumbaiInput())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got present.Analysis
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
	require.NotNil(t, got.Result)
	assert.GreaterOrEqual(t, got.Result.Confidence, 0.0)
	assert.LessOrEqual(t, got.Result.Confidence, 1.0)
	assert.Equal(t, present.Recommendation(got.Result), got.Recommendation)
	assert.True(t, strings.HasPrefix(got.Forecast, "₹ "), got.Forecast)
	assert.True(t, strings.HasSuffix(got.Forecast, " Lakhs"), got.Forecast)
}

func TestRouter_Analyze_Deterministic(t *testing.T) {
	h := newTestRouter(t, testAdvisor(t))

	var results []*model.InferenceResult
	for range 2 {
		rr := postJSON(t, h, "/api/v1/analyze", mumbaiInput())
		require.Equal(t, http.StatusOK, rr.Code)
		var got present.Analysis
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		results = append(results, got.Result)
	}
	assert.Equal(t, results[0], results[1])
}

func TestRouter_Analyze_UnknownCity(t *testing.T) {
	h := newTestRouter(t, testAdvisor(t))

	in := mumbaiInput()
	in.City = "Atlantis"
	rr := postJSON(t, h, "/api/v1/analyze", in)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	apiErr := decodeError(t, rr)
	assert.Equal(t, string(advisor.UnsupportedCategory), apiErr.Kind)
	assert.Equal(t, string(advisor.StageClassification), apiErr.Stage)
	assert.Contains(t, apiErr.Message, "city")
}

func postRaw(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

const mumbaiJSON = `"state": "Maharashtra", "city": "Mumbai", "property_type": "Apartment",
	"year_built": 2010, "furnished_status": "Furnished", "public_transport_accessibility": "High",
	"parking_space": "Yes", "security": "Yes", "owner_type": "Owner"`

func TestRouter_Analyze_InvalidInput(t *testing.T) {
	h := newTestRouter(t, testAdvisor(t))

	rr := postRaw(t, h, "/api/v1/analyze", `{`+mumbaiJSON+`, "bhk": 9, "size_sqft": 50}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	apiErr := decodeError(t, rr)
	assert.Equal(t, kindInvalidInput, apiErr.Kind)
	assert.Equal(t, []string{
		"bhk must be between 1 and 6",
		"size_sqft must be between 500 and 10000",
	}, apiErr.Problems)
	assert.Contains(t, apiErr.Message, "Please check your input")
}

func TestRouter_Analyze_IgnoresDerivedFields(t *testing.T) {
	h := newTestRouter(t, testAdvisor(t))

	analyze := func(body string) *model.InferenceResult {
		rr := postRaw(t, h, "/api/v1/analyze", body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var got present.Analysis
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		return got.Result
	}

	plain := analyze(`{` + mumbaiJSON + `, "bhk": 3, "size_sqft": 2500}`)
	withDerived := analyze(`{` + mumbaiJSON + `, "bhk": 3, "size_sqft": 2500, "age_of_property": 99, "price_per_sqft": 1000}`)
	assert.Equal(t, plain, withDerived)
}

func TestRouter_Analyze_BadJSON(t *testing.T) {
	h := newTestRouter(t, testAdvisor(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid request body", decodeError(t, rr).Message)
}

func TestRouter_Analyze_FailureKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   advisor.Kind
	}{
		{"schema mismatch", &artifact.SchemaError{Missing: []string{"City"}}, http.StatusInternalServerError, advisor.SchemaMismatch},
		{"internal failure", errors.New("boom"), http.StatusInternalServerError, advisor.InternalInferenceFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, stubAdvisor(t, tt.err))
			rr := postJSON(t, h, "/api/v1/analyze", mumbaiInput())

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, string(tt.kind), decodeError(t, rr).Kind)
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	s := &server{advisor: testAdvisor(t), insights: store.NewStatic(), cfg: testInsightsConfig(t)}
	h := buildRouter(s, config.ServerConfig{AllowedOrigins: []string{"*"}, RateLimitRPS: 0.001, RateLimitBurst: 1})

	first := postJSON(t, h, "/api/v1/analyze", mumbaiInput())
	assert.Equal(t, http.StatusOK, first.Code)

	second := postJSON(t, h, "/api/v1/analyze", mumbaiInput())
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.Equal(t, kindRateLimited, decodeError(t, second).Kind)

	// Reads are not limited.
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_Insights(t *testing.T) {
	h := newTestRouter(t, testAdvisor(t))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/insights", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got present.Insights
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.NotNil(t, got.Importances)
	assert.True(t, got.Importances.Placeholder)
	assert.Equal(t, "Price_per_SqFt", got.Importances.Features[0].Feature)
	require.Len(t, got.Figures, 2)
	assert.False(t, got.Figures[0].Available)
	assert.NotEmpty(t, got.Figures[0].Note)
}

type failingSource struct{}

func (failingSource) FeatureImportances(context.Context, string, int) (*model.ImportanceTable, error) {
	return nil, errors.New("connection refused")
}

func TestRouter_Insights_StoreDown(t *testing.T) {
	s := &server{advisor: testAdvisor(t), insights: failingSource{}, cfg: testInsightsConfig(t)}
	h := buildRouter(s, testServerConfig)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/insights", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	// The page still renders without the panel data.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_Figures(t *testing.T) {
	ic := testInsightsConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(ic.FiguresDir, present.FigurePriceTrends), []byte("\x89PNG\r\n\x1a\n"), 0o644))
	h := buildRouter(&server{advisor: testAdvisor(t), insights: store.NewStatic(), cfg: ic}, testServerConfig)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/figures/"+present.FigurePriceTrends, nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/figures/"+present.FigureAccessibility, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/figures/secrets.png", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_IndexPage(t *testing.T) {
	h := newTestRouter(t, testAdvisor(t))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	body := rr.Body.String()
	assert.Contains(t, body, "Chennai")
	assert.Contains(t, body, "Price_per_SqFt")
	assert.Contains(t, body, "eda_price_trends_by_city.png")
}

func formBody(in present.RawInput) string {
	v := url.Values{}
	v.Set("state", in.State)
	v.Set("city", in.City)
	v.Set("property_type", in.PropertyType)
	v.Set("bhk", string(in.BHK))
	v.Set("size_sqft", string(in.SizeSqFt))
	v.Set("year_built", string(in.YearBuilt))
	v.Set("furnished_status", in.FurnishedStatus)
	v.Set("public_transport_accessibility", in.PublicTransport)
	v.Set("parking_space", in.ParkingSpace)
	v.Set("security", in.Security)
	v.Set("owner_type", in.OwnerType)
	return v.Encode()
}

func postForm(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_FormSubmit(t *testing.T) {
	h := newTestRouter(t, testAdvisor(t))

	rr := postForm(h, formBody(mumbaiInput()))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "INVESTMENT")
	assert.Contains(t, body, "Lakhs")
}

func TestRouter_FormSubmit_UnknownCity(t *testing.T) {
	h := newTestRouter(t, testAdvisor(t))

	in := mumbaiInput()
	in.City = "Atlantis"
	rr := postForm(h, formBody(in))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "not recognised by the model")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&present.InputError{Problems: []string{"bhk is required"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(&advisor.InferenceError{Kind: advisor.UnsupportedCategory}))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(&advisor.InferenceError{Kind: advisor.ModelUnavailable}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&advisor.InferenceError{Kind: advisor.SchemaMismatch}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("unexpected")))
}
