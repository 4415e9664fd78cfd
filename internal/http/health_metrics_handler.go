package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"healthtwin-data/internal/domain"
	"healthtwin-data/internal/service"
)

// HealthMetricsHandler 生命体征端点：提交 / 列表 / 统计 / 症状统计 / 导出 / 删除
type HealthMetricsHandler struct {
	svc    *service.HealthMetricsService
	logger *zap.Logger
}

func NewHealthMetricsHandler(svc *service.HealthMetricsService, logger *zap.Logger) *HealthMetricsHandler {
	return &HealthMetricsHandler{svc: svc, logger: logger}
}

type metricsRequest struct {
	Temperature   *float64 `json:"temperature"`
	SystolicBP    *int     `json:"systolic_bp"`
	DiastolicBP   *int     `json:"diastolic_bp"`
	BloodOxygen   *float64 `json:"blood_oxygen"`
	PatientName   *string  `json:"patient_name"`
	PatientAge    *int     `json:"patient_age"`
	PatientGender *string  `json:"patient_gender"`
	Location      *string  `json:"location"`
	State         *string  `json:"state"`
	District      *string  `json:"district"`
	RecordedBy    string   `json:"recorded_by"`
	Notes         *string  `json:"notes"`
}

// POST /health-metrics
func (h *HealthMetricsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req metricsRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	id, err := h.svc.Submit(r.Context(), service.SubmitMetricsRequest{
		Temperature:   req.Temperature,
		SystolicBP:    req.SystolicBP,
		DiastolicBP:   req.DiastolicBP,
		BloodOxygen:   req.BloodOxygen,
		PatientName:   req.PatientName,
		PatientAge:    req.PatientAge,
		PatientGender: req.PatientGender,
		Location:      req.Location,
		State:         req.State,
		District:      req.District,
		RecordedBy:    req.RecordedBy,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"record_id": id,
		"saved":     true,
	})
}

type metricsRow struct {
	ID            int64    `json:"id"`
	Temperature   *float64 `json:"temperature"`
	SystolicBP    *int     `json:"systolic_bp"`
	DiastolicBP   *int     `json:"diastolic_bp"`
	BloodOxygen   *float64 `json:"blood_oxygen"`
	PatientName   *string  `json:"patient_name"`
	PatientAge    *int     `json:"patient_age"`
	PatientGender *string  `json:"patient_gender"`
	Location      *string  `json:"location"`
	State         *string  `json:"state"`
	District      *string  `json:"district"`
	RecordedBy    string   `json:"recorded_by"`
	Notes         *string  `json:"notes"`
	Timestamp     string   `json:"timestamp"`
}

func toMetricsRow(rec *domain.HealthMetricsRecord) metricsRow {
	return metricsRow{
		ID:            rec.ID,
		Temperature:   rec.Temperature,
		SystolicBP:    rec.SystolicBP,
		DiastolicBP:   rec.DiastolicBP,
		BloodOxygen:   rec.BloodOxygen,
		PatientName:   rec.PatientName,
		PatientAge:    rec.PatientAge,
		PatientGender: rec.PatientGender,
		Location:      rec.Location,
		State:         rec.State,
		District:      rec.District,
		RecordedBy:    rec.RecordedBy,
		Notes:         rec.Notes,
		Timestamp:     rec.Timestamp.UTC().Format(time.RFC3339),
	}
}

// GET /health-metrics?page=&per_page=&state=&district=
func (h *HealthMetricsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseInt(q.Get("page"), 1)
	perPage := parseInt(q.Get("per_page"), 50)

	resp, err := h.svc.List(r.Context(), page, perPage, q.Get("state"), q.Get("district"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rows := make([]metricsRow, 0, len(resp.Records))
	for _, rec := range resp.Records {
		rows = append(rows, toMetricsRow(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records":      rows,
		"total":        resp.Total,
		"pages":        resp.Pages,
		"current_page": resp.CurrentPage,
	})
}

// GET /health-metrics/stats?state=
func (h *HealthMetricsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_records":  stats.TotalRecords,
		"recent_records": stats.RecentRecords,
		"averages": map[string]float64{
			"temperature":  stats.Average.Temperature,
			"systolic_bp":  stats.Average.SystolicBP,
			"diastolic_bp": stats.Average.DiastolicBP,
			"blood_oxygen": stats.Average.BloodOxygen,
		},
	})
}

// GET /health-metrics/symptom-stats?state=
func (h *HealthMetricsHandler) SymptomStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.SymptomStats(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	symptoms := make([]map[string]any, 0, len(resp.Symptoms))
	for _, s := range resp.Symptoms {
		symptoms = append(symptoms, map[string]any{
			"symptom": s.Symptom,
			"count":   s.Count,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symptoms":              symptoms,
		"total_symptom_records": resp.TotalSymptomRecords,
	})
}

// GET /health-metrics/export?state=
func (h *HealthMetricsHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Export(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	filename := fmt.Sprintf("health_metrics_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DELETE /health-metrics/{id}
func (h *HealthMetricsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/health-metrics/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid record id"})
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"record_id": id,
		"deleted":   true,
	})
}
