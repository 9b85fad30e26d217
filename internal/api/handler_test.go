package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"erpsheets/internal/pipeline"
	"erpsheets/internal/schema"
	"erpsheets/internal/tabular"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sheetNames = pipeline.Sheets{
	InvoiceUpload: "uploadSheetClients",
	ClientDB:      "ClientInvoices",
	ProductUpload: "UploadPercentiliProdotto",
	AnalysisDB:    "productIncome",
	Notes:         "RegistroNote",
	Report:        "ReportMargini",
}

func setupRouter(t *testing.T) (*gin.Engine, *tabular.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := tabular.NewMemory()
	store.Put(sheetNames.InvoiceUpload, schema.InvoiceImport.Headers(), [][]interface{}{
		{"31/01/2024", "C001", "Rossi Srl", "01/01/2024", "FT/1", "", "500", "0", "", ""},
		{"31/05/2024", "C002", "Bianchi", "01/05/2024", "FT/2", "", "100", "0", "", ""},
	})
	store.Put(sheetNames.ProductUpload, schema.ProductImport.Headers(), [][]interface{}{
		{"AB123", "Caffè", "2", "200", "150", "25"},
		{"C001", "Rossi Srl", "2", "200", "150", "25"},
	})

	p := pipeline.New(store, pipeline.Options{
		Sheets: sheetNames,
		Now:    func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local) },
	})
	return NewHandler(p).Router(nil), store
}

func do(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestImportAndSummary(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodPost, "/api/imports/invoices", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2.0, stats["registeredNewInvoices"])

	w = do(router, http.MethodGet, "/api/clients?sortBy=totalOverdue&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	require.Len(t, summary, 1)
	assert.Equal(t, "001", summary[0]["uuid"])
	assert.Equal(t, 500.0, summary[0]["totalOverdue"])
}

func TestClientSummaryErrors(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/clients?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/imports/invoices", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/clients?sortBy=name", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Valore non idoneo", body.Message)
}

func TestClientDetails(t *testing.T) {
	router, _ := setupRouter(t)
	require.Equal(t, http.StatusOK, do(router, http.MethodPost, "/api/imports/invoices", nil).Code)

	w := do(router, http.MethodGet, "/api/clients/C001", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(router, http.MethodGet, "/api/clients/C999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodGet, "/api/clients/ABCDEF", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportEndpoint(t *testing.T) {
	router, store := setupRouter(t)
	require.Equal(t, http.StatusOK, do(router, http.MethodPost, "/api/imports/products", nil).Code)

	w := do(router, http.MethodPost, "/api/reports", map[string]interface{}{"clientIds": []string{"C001"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/reports?write=true", map[string]interface{}{
		"clientIds": []string{"C001"},
		"options":   map[string]bool{"detailedView": true},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	table, err := store.ReadAll(context.Background(), sheetNames.Report)
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{"001", 50.0, "AB123", 50.0}}, table.Rows)
}

func TestAddNoteEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodPost, "/api/notes", map[string]string{"title": "", "content": "x", "kind": "CLIENT", "entityId": "001"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/notes", map[string]string{"title": "Nota", "content": "x", "kind": "CLIENT", "entityId": "001"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestDashboardWithoutData(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
