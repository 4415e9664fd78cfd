package domain

import "time"

// 疾病标签（固定词表，来自模型训练集）
const (
	DiseaseNone     = "None"
	DiseaseCholera  = "Cholera"
	DiseaseTyphoid  = "Typhoid"
	DiseaseDiarrhea = "Diarrhea"
)

// 报警级别
const (
	AlertLevelLow    = "LOW"
	AlertLevelMedium = "MEDIUM"
	AlertLevelHigh   = "HIGH"
)

// PredictionRecord 疾病预测记录（对应 prediction_records 表）
// 一条水质采样恰好产生一条预测；创建后不可变更。
type PredictionRecord struct {
	ID               int64     `db:"id"`               // BIGSERIAL, PRIMARY KEY
	WaterQualityID   int64     `db:"water_quality_id"` // BIGINT, NOT NULL, FK water_quality_records(id)
	PredictedDisease string    `db:"predicted_disease"` // VARCHAR(100), NOT NULL
	HealthAlert      string    `db:"health_alert"`     // TEXT, NOT NULL
	ConfidenceScore  *float64  `db:"confidence_score"` // DOUBLE PRECISION, nullable
	ModelVersion     string    `db:"model_version"`    // VARCHAR(20), DEFAULT '1.0'
	Timestamp        time.Time `db:"timestamp"`        // TIMESTAMPTZ, NOT NULL
}

// Prediction 分类器输出（纯值对象，不落库）
type Prediction struct {
	Disease     string
	HealthAlert string
	AlertLevel  string
}

// IsDiseasePositive 是否预测出疾病
func (p Prediction) IsDiseasePositive() bool {
	return p.Disease != DiseaseNone
}
