package domain

import (
	"strings"
	"time"
)

// SymptomNotesPrefix 症状记录约定：notes = "Symptom: <关键词>"
const SymptomNotesPrefix = "Symptom: "

// HealthMetricsRecord 生命体征记录（对应 health_metrics_records 表）
// 所有数值字段可缺省；缺省以 NULL 存储，绝不折算为 0。
// 创建后不可变更（仅支持按 id 硬删除）。
type HealthMetricsRecord struct {
	ID            int64     `db:"id"`             // BIGSERIAL, PRIMARY KEY
	Temperature   *float64  `db:"temperature"`    // DOUBLE PRECISION, nullable（摄氏度）
	SystolicBP    *int      `db:"systolic_bp"`    // INTEGER, nullable
	DiastolicBP   *int      `db:"diastolic_bp"`   // INTEGER, nullable
	BloodOxygen   *float64  `db:"blood_oxygen"`   // DOUBLE PRECISION, nullable（百分比）
	PatientName   *string   `db:"patient_name"`   // VARCHAR(100), nullable
	PatientAge    *int      `db:"patient_age"`    // INTEGER, nullable
	PatientGender *string   `db:"patient_gender"` // VARCHAR(10), nullable
	Location      *string   `db:"location"`       // VARCHAR(100), nullable
	State         *string   `db:"state"`          // VARCHAR(50), nullable
	District      *string   `db:"district"`       // VARCHAR(50), nullable
	RecordedBy    string    `db:"recorded_by"`    // VARCHAR(100), NOT NULL（缺省 "Unknown"）
	Notes         *string   `db:"notes"`          // TEXT, nullable
	Timestamp     time.Time `db:"timestamp"`      // TIMESTAMPTZ, NOT NULL（服务端写入）
}

// Validate 校验体征取值（全部可缺省，出现时做基本范围检查）
func (r *HealthMetricsRecord) Validate() error {
	if r.Temperature != nil && (*r.Temperature < 25 || *r.Temperature > 45) {
		return NewValidationError("temperature", "must be between 25 and 45 celsius")
	}
	if (r.SystolicBP == nil) != (r.DiastolicBP == nil) {
		return NewValidationError("blood_pressure", "systolic_bp and diastolic_bp must be provided together")
	}
	if r.SystolicBP != nil && (*r.SystolicBP <= 0 || *r.SystolicBP > 300) {
		return NewValidationError("systolic_bp", "must be between 1 and 300")
	}
	if r.DiastolicBP != nil && (*r.DiastolicBP <= 0 || *r.DiastolicBP > 200) {
		return NewValidationError("diastolic_bp", "must be between 1 and 200")
	}
	if r.BloodOxygen != nil && (*r.BloodOxygen < 0 || *r.BloodOxygen > 100) {
		return NewValidationError("blood_oxygen", "must be between 0 and 100")
	}
	if r.PatientAge != nil && (*r.PatientAge < 0 || *r.PatientAge > 150) {
		return NewValidationError("patient_age", "must be between 0 and 150")
	}
	return nil
}

// SymptomKeyword 从 notes 中提取症状关键词；非症状记录返回空串
func (r *HealthMetricsRecord) SymptomKeyword() string {
	if r.Notes == nil {
		return ""
	}
	if !strings.HasPrefix(*r.Notes, SymptomNotesPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(*r.Notes, SymptomNotesPrefix))
}

// HasNotes notes 字段是否非空
func (r *HealthMetricsRecord) HasNotes() bool {
	return r.Notes != nil && strings.TrimSpace(*r.Notes) != ""
}
