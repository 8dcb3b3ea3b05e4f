package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savdash/adapters/excel"
	"savdash/adapters/llm/heuristic"
	"savdash/app"
	"savdash/internal/statistics"
	"savdash/internal/testkit"
	"savdash/ports"
)

type emptyGenerator struct{}

func (emptyGenerator) GenerateFilters(context.Context, ports.FilterRequest) (*ports.FilterGeneration, error) {
	return &ports.FilterGeneration{}, nil
}

func newTestServer(t *testing.T, gen ports.FilterGenerator) (*httptest.Server, *testkit.TestKit) {
	t.Helper()
	kit, err := testkit.NewTestKit()
	require.NoError(t, err)

	datasets := app.NewDatasetService(kit.Datasets, excel.NewImporter(excel.DefaultReaderConfig()))
	stats := app.NewStatisticsService(kit.Datasets, statistics.NewEngine(statistics.DefaultConfig()), 10)
	filters := app.NewFilterService(kit.Datasets, kit.Sessions, gen, heuristic.MaxFilters)

	srv := httptest.NewServer(NewServer(Config{}, datasets, stats, filters).Handler())
	t.Cleanup(srv.Close)
	return srv, kit
}

func do(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealthAndDatasets(t *testing.T) {
	srv, kit := newTestServer(t, heuristic.NewGenerator())
	id := string(kit.Survey.ID)

	resp, body := do(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, body = do(t, http.MethodGet, srv.URL+"/api/datasets", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["datasets"], 1)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/datasets/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["variables"], len(kit.Survey.Variables))

	resp, body = do(t, http.MethodGet, srv.URL+"/api/datasets/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	resp, body = do(t, http.MethodGet, srv.URL+"/api/datasets/"+id+"/rows?offset=0&limit=3", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["rows"], 3)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/datasets/"+id+"/quality", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, len(kit.Survey.Variables), body["variable_count"])

	resp, body = do(t, http.MethodPost, srv.URL+"/api/datasets", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", errorCode(body))

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/datasets", map[string]string{"bogus": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVariableStatisticsEndpoint(t *testing.T) {
	srv, kit := newTestServer(t, heuristic.NewGenerator())
	base := srv.URL + "/api/datasets/" + string(kit.Survey.ID) + "/variables/"

	resp, body := do(t, http.MethodGet, base+"brand_used/statistics?top_n=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := body["statistics"].(map[string]any)
	assert.EqualValues(t, kit.Survey.RowCount, stats["total_n"])
	assert.EqualValues(t, 3, body["top_n"])

	resp, body = do(t, http.MethodGet, base+"nope/statistics", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	resp, _ = do(t, http.MethodGet, base+"gender/statistics?top_n=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionFlow(t *testing.T) {
	srv, kit := newTestServer(t, heuristic.NewGenerator())

	resp, body := do(t, http.MethodPost, srv.URL+"/api/datasets/"+string(kit.Survey.ID)+"/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sid, _ := body["id"].(string)
	require.NotEmpty(t, sid)
	base := srv.URL + "/api/sessions/" + sid

	resp, body = do(t, http.MethodPost, base+"/filters", map[string]string{"variable_code": "gender"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, body["filters"], 1)

	resp, body = do(t, http.MethodPost, base+"/filters", map[string]string{"variable_code": "gender"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_VARIABLE", errorCode(body))

	resp, _ = do(t, http.MethodPost, base+"/filters", map[string]string{"variable_code": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodPost, base+"/generate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	audit := body["audit"].(map[string]any)
	assert.Equal(t, "heuristic", audit["generator_type"])
	session := body["session"].(map[string]any)
	filters := session["filters"].([]any)
	require.Greater(t, len(filters), 1)
	first := filters[0].(map[string]any)
	assert.Equal(t, "manual_gender", first["id"])
	second := filters[1].(map[string]any)
	assert.Contains(t, second["rationale_html"], "<p>")

	resp, body = do(t, http.MethodGet, base+"/available", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, body["variables"])

	resp, body = do(t, http.MethodPatch, base+"/filters/manual_gender", map[string]bool{"is_applied": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["filters"].([]any)[0].(map[string]any)["is_applied"])

	resp, _ = do(t, http.MethodPatch, base+"/filters/manual_gender", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodPatch, base+"/filters/missing", map[string]bool{"is_applied": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	resp, body = do(t, http.MethodGet, base+"/export?format=json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, rule := range body["rules"].([]any) {
		assert.NotEqual(t, "manual_gender", rule.(map[string]any)["filter_id"])
	}

	yamlResp, err := http.Get(base + "/export?format=yaml")
	require.NoError(t, err)
	yamlResp.Body.Close()
	assert.Equal(t, "application/yaml", yamlResp.Header.Get("Content-Type"))

	resp, body = do(t, http.MethodGet, base+"/export?format=csv", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", errorCode(body))

	resp, body = do(t, http.MethodDelete, base+"/filters/manual_gender", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, f := range body["filters"].([]any) {
		assert.NotEqual(t, "manual_gender", f.(map[string]any)["id"])
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerateWithoutSuitableFilters(t *testing.T) {
	srv, kit := newTestServer(t, emptyGenerator{})

	_, body := do(t, http.MethodPost, srv.URL+"/api/datasets/"+string(kit.Survey.ID)+"/sessions", nil)
	sid := body["id"].(string)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/sessions/"+sid+"/generate", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "NO_SUITABLE_FILTERS", errorCode(body))
}

func TestRenderMarkdown(t *testing.T) {
	assert.Equal(t, "", renderMarkdown("  "))
	html := renderMarkdown("**Demographic** rule: `age` <script>x</script>")
	assert.Contains(t, html, "<strong>Demographic</strong>")
	assert.Contains(t, html, "<code>age</code>")
	assert.NotContains(t, html, "<script>")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor("INVALID_INPUT"))
	assert.Equal(t, http.StatusConflict, statusFor("DUPLICATE_VARIABLE"))
	assert.Equal(t, http.StatusNotFound, statusFor("NOT_FOUND"))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor("NO_SUITABLE_FILTERS"))
	assert.Equal(t, http.StatusBadGateway, statusFor("EXTERNAL_SERVICE_ERROR"))
	assert.Equal(t, http.StatusInternalServerError, statusFor("DATABASE_ERROR"))
}
