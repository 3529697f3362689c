package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/surveytab/internal/analysis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const surveyCSV = "Color,Size,Empty\n" +
	"Red,S,\n" +
	"\"Red, Blue\",M,\n" +
	",L,\n" +
	"Red,S,\n" +
	"\"Green (light, dark)\",\"S, M\",\n"

func setupTestRouter(cfg Config, logger *zap.Logger) *gin.Engine {
	if cfg.Version == "" {
		cfg.Version = "test"
	}
	return NewRouter(NewHandlers(cfg, logger))
}

func newUpload(t *testing.T, path, filename string, content []byte, fields map[string][]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, vals := range fields {
		for _, v := range vals {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleHealth(t *testing.T) {
	router := setupTestRouter(Config{Version: "1.2.3"}, nil)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, HealthResponse{Status: "healthy", Version: "1.2.3"}, resp)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
}

func TestHandleColumns(t *testing.T) {
	router := setupTestRouter(Config{}, nil)

	w := serve(router, newUpload(t, "/v1/columns", "survey.csv", []byte(surveyCSV), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp ColumnsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "survey.csv", resp.Table)
	assert.Equal(t, []string{"Color", "Size"}, resp.Columns)
	assert.Equal(t, 4, resp.Rows)

	w = serve(router, newUpload(t, "/v1/columns", "survey.csv", []byte(surveyCSV), map[string][]string{"search": {"SIZ"}}))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Size"}, resp.Columns)
}

func TestHandleAnalyzeFrequency(t *testing.T) {
	router := setupTestRouter(Config{Order: analysis.OrderCount}, nil)

	req := newUpload(t, "/v1/analyze", "survey.csv", []byte(surveyCSV), map[string][]string{
		"columns": {"Color"},
		"chart":   {"pie"},
	})
	req.Header.Set(headerRequestID, "req-42")
	w := serve(router, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(headerRequestID))

	var res analysis.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "req-42", res.RequestID)
	assert.Equal(t, analysis.KindFrequency, res.Kind)
	require.NotNil(t, res.Frequency)
	assert.Equal(t, map[string]int{"Red": 2, "Blue": 1, "Green (light, dark)": 1}, res.Frequency.Counts)
	require.NotEmpty(t, res.Entries)
	assert.Equal(t, "Red", res.Entries[0].Token)
	require.NotNil(t, res.Chart)
	assert.Equal(t, analysis.ChartPie, res.Chart.Kind)
}

func TestHandleAnalyzeContingency(t *testing.T) {
	router := setupTestRouter(Config{}, nil)

	w := serve(router, newUpload(t, "/v1/analyze", "survey.csv", []byte(surveyCSV), map[string][]string{
		"columns":   {"Color", "Size"},
		"transpose": {"true"},
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res analysis.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, analysis.KindContingency, res.Kind)
	ct := res.Contingency
	require.NotNil(t, ct)
	assert.Equal(t, "Size", ct.RowVar)
	assert.Equal(t, []string{"M", "S"}, ct.RowLabels)
	assert.Equal(t, []string{"Blue", "Green (light, dark)", "Red"}, ct.ColLabels)
	assert.Equal(t, 1, ct.Count("S", "Red"))
	assert.Equal(t, 1, ct.Count("M", "Green (light, dark)"))
	assert.Equal(t, analysis.ChartGroupedBar, res.Chart.Kind)
}

func TestHandleAnalyzeErrors(t *testing.T) {
	router := setupTestRouter(Config{}, nil)
	csv := []byte(surveyCSV)

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{"no file", newUpload(t, "/v1/analyze", "", nil, map[string][]string{"columns": {"Color"}}), http.StatusBadRequest, "MISSING_FILE"},
		{"no columns", newUpload(t, "/v1/analyze", "survey.csv", csv, nil), http.StatusBadRequest, "NO_COLUMNS"},
		{"three columns", newUpload(t, "/v1/analyze", "survey.csv", csv, map[string][]string{"columns": {"Color", "Size", "Color"}}), http.StatusUnprocessableEntity, "TOO_MANY_COLUMNS"},
		{"unknown column", newUpload(t, "/v1/analyze", "survey.csv", csv, map[string][]string{"columns": {"Shape"}}), http.StatusUnprocessableEntity, "UNKNOWN_COLUMN"},
		{"bad chart", newUpload(t, "/v1/analyze", "survey.csv", csv, map[string][]string{"columns": {"Color"}, "chart": {"scatter"}}), http.StatusUnprocessableEntity, "UNSUPPORTED_CHART"},
		{"bad order", newUpload(t, "/v1/analyze", "survey.csv", csv, map[string][]string{"columns": {"Color"}, "order": {"random"}}), http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad separator", newUpload(t, "/v1/analyze", "survey.csv", csv, map[string][]string{"columns": {"Color"}, "separator": {"ab"}}), http.StatusBadRequest, "INVALID_REQUEST"},
		{"unsupported format", newUpload(t, "/v1/analyze", "survey.pdf", csv, map[string][]string{"columns": {"Color"}}), http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"},
		{"broken workbook", newUpload(t, "/v1/analyze", "survey.xlsx", csv, map[string][]string{"columns": {"Color"}}), http.StatusUnprocessableEntity, "INVALID_FILE"},
		{"empty sheet", newUpload(t, "/v1/analyze", "survey.csv", []byte("A,B\n,\n"), map[string][]string{"columns": {"A"}}), http.StatusUnprocessableEntity, "EMPTY_TABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	router := setupTestRouter(Config{MaxUploadMB: 1}, nil)
	big := []byte("Color\n" + strings.Repeat("Red\n", 300_000))

	w := serve(router, newUpload(t, "/v1/analyze", "big.csv", big, map[string][]string{"columns": {"Color"}}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "UPLOAD_TOO_LARGE", decodeError(t, w).Code)
}

func TestHandleExport(t *testing.T) {
	router := setupTestRouter(Config{}, nil)

	w := serve(router, newUpload(t, "/v1/export", "survey.csv", []byte(surveyCSV), map[string][]string{"columns": {"Color", "Size"}}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), exportFilename)

	body := w.Body.Bytes()
	tbl, err := analysis.ReadXLSX(bytes.NewReader(body), int64(len(body)), exportFilename, analysis.ContingencySheet, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Color", "M", "S"}, tbl.Columns)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, []analysis.Cell{analysis.Present("Red"), analysis.Present("1"), analysis.Present("1")}, tbl.Rows[2].Cells)

	w = serve(router, newUpload(t, "/v1/export", "survey.csv", []byte(surveyCSV), map[string][]string{"columns": {"Color"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "EXPORT_NEEDS_TWO_COLUMNS", decodeError(t, w).Code)
}

func TestRequestLoggerTagsRequestID(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	router := setupTestRouter(Config{}, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set(headerRequestID, "trace-me")
	serve(router, req)

	entries := observed.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "trace-me", fields["request_id"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "/v1/health", fields["path"])
}
