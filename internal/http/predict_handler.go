package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"healthtwin-data/internal/service"
)

// PredictHandler 水质采样提交入口
type PredictHandler struct {
	svc    *service.PredictionService
	logger *zap.Logger
}

func NewPredictHandler(svc *service.PredictionService, logger *zap.Logger) *PredictHandler {
	return &PredictHandler{svc: svc, logger: logger}
}

type predictRequest struct {
	PH                    *float64 `json:"ph"`
	Turbidity             *float64 `json:"turbidity"`
	TDS                   *float64 `json:"tds"`
	PeopleAffectedPer5000 *int     `json:"people_affected_per_5000"`
	Location              string   `json:"location"`
	State                 string   `json:"state"`
	District              string   `json:"district"`
	CollectedBy           string   `json:"collected_by"`
}

type predictResponse struct {
	PredictedDisease string `json:"predicted_disease"`
	HealthAlert      string `json:"health_alert"`
	RecordID         int64  `json:"record_id"`
	SavedToDatabase  bool   `json:"saved_to_database"`
}

// POST /predict
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	resp, err := h.svc.SubmitSample(r.Context(), service.SubmitSampleRequest{
		PH:                    req.PH,
		Turbidity:             req.Turbidity,
		TDS:                   req.TDS,
		PeopleAffectedPer5000: req.PeopleAffectedPer5000,
		Location:              req.Location,
		State:                 req.State,
		District:              req.District,
		CollectedBy:           req.CollectedBy,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		PredictedDisease: resp.PredictedDisease,
		HealthAlert:      resp.HealthAlert,
		RecordID:         resp.RecordID,
		SavedToDatabase:  resp.SavedToDatabase,
	})
}
