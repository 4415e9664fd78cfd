package httpapi

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"healthtwin-data/internal/service"
)

// DashboardHandler 只读聚合端点：dashboard / records / alerts / statistics / workers
type DashboardHandler struct {
	svc    *service.DashboardService
	logger *zap.Logger
}

func NewDashboardHandler(svc *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// GET /dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Dashboard(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

type recordRow struct {
	RecordID              int64   `json:"record_id"`
	PH                    float64 `json:"ph"`
	Turbidity             float64 `json:"turbidity"`
	TDS                   float64 `json:"tds"`
	PeopleAffectedPer5000 int     `json:"people_affected_per_5000"`
	Location              string  `json:"location"`
	State                 string  `json:"state"`
	District              string  `json:"district"`
	CollectedBy           string  `json:"collected_by"`
	PredictedDisease      string  `json:"predicted_disease"`
	HealthAlert           string  `json:"health_alert"`
	Timestamp             string  `json:"timestamp"`
}

// GET /records?limit=&state=
func (h *DashboardHandler) Records(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	state := r.URL.Query().Get("state")

	records, err := h.svc.ListRecords(r.Context(), limit, state)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rows := make([]recordRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, recordRow{
			RecordID:              rec.Prediction.ID,
			PH:                    rec.Water.PH,
			Turbidity:             rec.Water.Turbidity,
			TDS:                   rec.Water.TDS,
			PeopleAffectedPer5000: rec.Water.PeopleAffectedPer5000,
			Location:              rec.Water.Location,
			State:                 rec.Water.State,
			District:              rec.Water.District,
			CollectedBy:           rec.Water.CollectedBy,
			PredictedDisease:      rec.Prediction.PredictedDisease,
			HealthAlert:           rec.Prediction.HealthAlert,
			Timestamp:             rec.Prediction.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": rows,
		"count":   len(rows),
	})
}

type alertRow struct {
	AlertID          int64   `json:"alert_id"`
	AlertLevel       string  `json:"alert_level"`
	Status           string  `json:"status"`
	PredictedDisease string  `json:"predicted_disease"`
	HealthAlert      string  `json:"health_alert"`
	Location         string  `json:"location"`
	State            string  `json:"state"`
	District         string  `json:"district"`
	AssignedWorker   *string `json:"assigned_worker"`
	CreatedAt        string  `json:"created_at"`
}

// GET /alerts?status=&state=（status 缺省为 ACTIVE）
func (h *DashboardHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	state := r.URL.Query().Get("state")

	alerts, err := h.svc.ListAlerts(r.Context(), status, state)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rows := make([]alertRow, 0, len(alerts))
	for _, a := range alerts {
		row := alertRow{
			AlertID:          a.Alert.ID,
			AlertLevel:       a.Alert.AlertLevel,
			Status:           a.Alert.Status,
			PredictedDisease: a.Prediction.PredictedDisease,
			HealthAlert:      a.Prediction.HealthAlert,
			Location:         a.Water.Location,
			State:            a.Water.State,
			District:         a.Water.District,
			CreatedAt:        a.Alert.CreatedAt.UTC().Format(time.RFC3339),
		}
		if a.Worker != nil {
			name := a.Worker.Name
			row.AssignedWorker = &name
		}
		rows = append(rows, row)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": rows,
		"count":  len(rows),
	})
}

type diseaseStatRow struct {
	Count        int      `json:"count"`
	AvgPH        *float64 `json:"avg_ph"`
	AvgTurbidity *float64 `json:"avg_turbidity"`
	AvgTDS       *float64 `json:"avg_tds"`
}

// GET /statistics/{state}
func (h *DashboardHandler) StateStatistics(w http.ResponseWriter, r *http.Request) {
	state := strings.TrimPrefix(r.URL.Path, "/statistics/")
	if state == "" || strings.Contains(state, "/") {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "state is required"})
		return
	}

	resp, err := h.svc.StateStatistics(r.Context(), state)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	stats := make(map[string]diseaseStatRow, len(resp.Statistics))
	for _, st := range resp.Statistics {
		stats[st.Disease] = diseaseStatRow{
			Count:        st.Count,
			AvgPH:        st.AvgPH,
			AvgTurbidity: st.AvgTurbidity,
			AvgTDS:       st.AvgTDS,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":         resp.State,
		"statistics":    stats,
		"total_records": resp.TotalRecords,
	})
}

type workerRow struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	WorkerID     string  `json:"worker_id"`
	Role         string  `json:"role"`
	State        string  `json:"state"`
	District     string  `json:"district"`
	ContactPhone *string `json:"contact_phone"`
}

// GET /workers?state=
func (h *DashboardHandler) Workers(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")

	workers, err := h.svc.ListWorkers(r.Context(), state)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rows := make([]workerRow, 0, len(workers))
	for _, wk := range workers {
		rows = append(rows, workerRow{
			ID:           wk.ID,
			Name:         wk.Name,
			WorkerID:     wk.WorkerID,
			Role:         wk.Role,
			State:        wk.State,
			District:     wk.District,
			ContactPhone: wk.ContactPhone,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"workers": rows,
		"count":   len(rows),
	})
}
