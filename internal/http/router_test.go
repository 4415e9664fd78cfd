package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"healthtwin-data/internal/classifier"
	"healthtwin-data/internal/domain"
	"healthtwin-data/internal/repository"
	"healthtwin-data/internal/service"
	"healthtwin-data/internal/store"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	logger := zap.NewNop()
	mr := miniredis.RunT(t)
	kv := store.NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	preds := repository.NewMemoryPredictionsRepository()
	metricsRepo := repository.NewMemoryHealthMetricsRepository()
	workers := repository.NewMemoryHealthWorkersRepository()

	hash := service.HashPassword("secret123")
	require.NoError(t, workers.SeedIfEmpty(context.Background(), []*domain.HealthWorker{
		{Name: "Priya Sharma", WorkerID: "AS001", Role: "ASHA", State: "Assam", District: "Guwahati", PasswordHash: &hash},
	}))

	predictionSvc := service.NewPredictionService(preds, classifier.NewRuleClassifier(), logger)
	metricsSvc := service.NewHealthMetricsService(metricsRepo, logger)
	dashboardSvc := service.NewDashboardService(preds, workers, kv, 0, logger)
	authSvc := service.NewAuthService(workers, kv, 10*time.Minute, logger)

	router := NewRouter(logger)
	router.RegisterRoutes(
		NewPredictHandler(predictionSvc, logger),
		NewDashboardHandler(dashboardSvc, logger),
		NewHealthMetricsHandler(metricsSvc, logger),
		NewAuthHandler(authSvc, logger),
	)
	return router
}

func doJSON(t *testing.T, router *Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRootBanner(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthtwin-data", body["service"])
	assert.Equal(t, "running", body["status"])
}

func TestPredict_InlineResponse(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/predict", map[string]any{
		"ph":                       9.5,
		"turbidity":                12,
		"tds":                      900,
		"people_affected_per_5000": 400,
		"state":                    "Manipur",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Cholera", body["predicted_disease"])
	assert.Equal(t, "Outbreak risk detected: Cholera", body["health_alert"])
	assert.Equal(t, true, body["saved_to_database"])
	assert.NotZero(t, body["record_id"])
}

func TestPredict_MissingFieldReturns400(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/predict", map[string]any{
		"turbidity":                1.0,
		"tds":                      150,
		"people_affected_per_5000": 2,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "ph")
}

func TestPredict_MalformedJSONReturns400(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredict_GetMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/predict", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDashboardAndRecordsFlow(t *testing.T) {
	router := newTestRouter(t)

	for _, payload := range []map[string]any{
		{"ph": 7.0, "turbidity": 1.0, "tds": 150, "people_affected_per_5000": 2, "state": "Assam"},
		{"ph": 9.5, "turbidity": 12, "tds": 900, "people_affected_per_5000": 400, "state": "Manipur"},
	} {
		rec := doJSON(t, router, http.MethodPost, "/predict", payload)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(2), summary["total_records"])
	assert.Equal(t, float64(1), summary["active_alerts"])
	assert.Equal(t, float64(1), summary["total_workers"])

	rec = doJSON(t, router, http.MethodGet, "/records?state=Assam", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])

	rec = doJSON(t, router, http.MethodGet, "/alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	alerts := body["alerts"].([]any)
	first := alerts[0].(map[string]any)
	assert.Equal(t, "HIGH", first["alert_level"])
	assert.Equal(t, "ACTIVE", first["status"])
}

func TestStateStatisticsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/predict", map[string]any{
		"ph": 7.0, "turbidity": 1.0, "tds": 150, "people_affected_per_5000": 2, "state": "Assam",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/statistics/Assam", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Assam", body["state"])
	assert.Equal(t, float64(1), body["total_records"])

	// 未知州：空统计而非错误
	rec = doJSON(t, router, http.MethodGet, "/statistics/Sikkim", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(0), body["total_records"])
}

func TestHealthMetricsFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/health-metrics", map[string]any{
		"temperature": 38.5,
		"notes":       "Symptom: fever",
		"state":       "Assam",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	recordID := int64(body["record_id"].(float64))
	require.NotZero(t, recordID)

	rec = doJSON(t, router, http.MethodGet, "/health-metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total"])
	records := body["records"].([]any)
	first := records[0].(map[string]any)
	assert.Equal(t, 38.5, first["temperature"])
	// 缺省字段序列化为 null，不是 0
	assert.Nil(t, first["systolic_bp"])

	rec = doJSON(t, router, http.MethodGet, "/health-metrics/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total_records"])

	rec = doJSON(t, router, http.MethodGet, "/health-metrics/symptom-stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total_symptom_records"])

	rec = doJSON(t, router, http.MethodDelete, "/health-metrics/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// 重复删除 → 404
	rec = doJSON(t, router, http.MethodDelete, "/health-metrics/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthMetricsDelete_BadID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodDelete, "/health-metrics/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthMetricsExportEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/health-metrics", map[string]any{"temperature": 37.0})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/health-metrics/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"worker_id": "AS001",
		"password":  "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	token := body["token"].(string)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodPost, "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	verifyRec := httptest.NewRecorder()
	router.ServeHTTP(verifyRec, req)
	require.Equal(t, http.StatusOK, verifyRec.Code)
	verifyBody := decodeBody(t, verifyRec)
	assert.Equal(t, true, verifyBody["valid"])

	rec = doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"worker_id": "AS001",
		"password":  "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWorkersEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/workers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	workers := body["workers"].([]any)
	first := workers[0].(map[string]any)
	assert.Equal(t, "Priya Sharma", first["name"])
	// 口令散列绝不出现在响应中
	_, hasHash := first["password_hash"]
	assert.False(t, hasHash)
}

func TestUnknownPathReturns404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/no-such-path", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
