package domain

import "time"

// WaterQualitySample 水质采样领域模型（对应 water_quality_records 表）
type WaterQualitySample struct {
	ID                    int64     `db:"id"`                       // BIGSERIAL, PRIMARY KEY
	PH                    float64   `db:"ph"`                       // DOUBLE PRECISION, NOT NULL
	Turbidity             float64   `db:"turbidity"`                // DOUBLE PRECISION, NOT NULL（NTU）
	TDS                   float64   `db:"tds"`                      // DOUBLE PRECISION, NOT NULL（mg/L）
	PeopleAffectedPer5000 int       `db:"people_affected_per_5000"` // INTEGER, NOT NULL
	Location              string    `db:"location"`                 // VARCHAR(100)
	State                 string    `db:"state"`                    // VARCHAR(50)
	District              string    `db:"district"`                 // VARCHAR(50)
	CollectedBy           string    `db:"collected_by"`             // VARCHAR(100)
	Timestamp             time.Time `db:"timestamp"`                // TIMESTAMPTZ, NOT NULL
}

// Validate 校验数值域（服务端是信任边界，前端的 HTML min/max 不可依赖）
func (s *WaterQualitySample) Validate() error {
	if s.PH < 0 || s.PH > 14 {
		return NewValidationError("ph", "must be between 0 and 14")
	}
	if s.Turbidity < 0 {
		return NewValidationError("turbidity", "must be >= 0")
	}
	if s.TDS < 0 {
		return NewValidationError("tds", "must be >= 0")
	}
	if s.PeopleAffectedPer5000 < 0 || s.PeopleAffectedPer5000 > 5000 {
		return NewValidationError("people_affected_per_5000", "must be between 0 and 5000")
	}
	return nil
}
