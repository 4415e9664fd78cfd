package domain

import "time"

// 报警状态
const (
	AlertStatusActive        = "ACTIVE"
	AlertStatusInvestigating = "INVESTIGATING"
	AlertStatusResolved      = "RESOLVED"
)

// HealthAlert 健康报警（对应 health_alerts 表）
// 每条疾病阳性的预测产生零或一条报警；预测为 "None" 时不产生。
type HealthAlert struct {
	ID           int64     `db:"id"`            // BIGSERIAL, PRIMARY KEY
	PredictionID int64     `db:"prediction_id"` // BIGINT, NOT NULL, FK prediction_records(id)
	AlertLevel   string    `db:"alert_level"`   // VARCHAR(20), NOT NULL, CHECK IN ('LOW','MEDIUM','HIGH')
	Status       string    `db:"status"`        // VARCHAR(20), DEFAULT 'ACTIVE'
	AssignedTo   *int64    `db:"assigned_to"`   // BIGINT, nullable, FK health_workers(id)
	Notes        *string   `db:"notes"`         // TEXT, nullable
	CreatedAt    time.Time `db:"created_at"`    // TIMESTAMPTZ, NOT NULL
	UpdatedAt    time.Time `db:"updated_at"`    // TIMESTAMPTZ, NOT NULL
}
