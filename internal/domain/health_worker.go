package domain

import "time"

// HealthWorker 基层卫生工作者（对应 health_workers 表）
// role: ASHA / ANM / PHC / ADMIN（仅作为 recorded_by 标签，不承载权限语义）
type HealthWorker struct {
	ID           int64     `db:"id"`            // BIGSERIAL, PRIMARY KEY
	Name         string    `db:"name"`          // VARCHAR(100), NOT NULL
	WorkerID     string    `db:"worker_id"`     // VARCHAR(50), UNIQUE, NOT NULL
	Role         string    `db:"role"`          // VARCHAR(50), NOT NULL
	State        string    `db:"state"`         // VARCHAR(50), NOT NULL
	District     string    `db:"district"`      // VARCHAR(50), NOT NULL
	ContactPhone *string   `db:"contact_phone"` // VARCHAR(15), nullable
	PasswordHash *string   `db:"password_hash"` // CHAR(64), nullable（sha256 hex；空表示账号未开通登录）
	IsActive     bool      `db:"is_active"`     // BOOLEAN, DEFAULT TRUE
	CreatedAt    time.Time `db:"created_at"`    // TIMESTAMPTZ, NOT NULL
}
