package repository

import (
	"context"

	"healthtwin-data/internal/domain"
)

// AverageMetrics 各体征字段均值（仅统计非 NULL 值；没有可统计值时为 0）
type AverageMetrics struct {
	Temperature float64
	SystolicBP  float64
	DiastolicBP float64
	BloodOxygen float64
}

// HealthMetricsStats 体征统计（/health-metrics/stats）
type HealthMetricsStats struct {
	TotalRecords  int
	RecentRecords int // 最近 7 天
	Average       AverageMetrics
}

// HealthMetricsFilters 体征记录过滤条件
type HealthMetricsFilters struct {
	State    string // 空串表示不过滤
	District string
}

// HealthMetricsRepository 生命体征记录 Repository 接口
type HealthMetricsRepository interface {
	// Create 插入一条记录，返回自增 id；timestamp 由调用方设置
	Create(ctx context.Context, rec *domain.HealthMetricsRecord) (int64, error)

	// List 按时间倒序分页；返回当前页记录与过滤后的总数
	List(ctx context.Context, filters HealthMetricsFilters, page, perPage int) ([]*domain.HealthMetricsRecord, int, error)

	// Delete 按 id 硬删除；id 不存在返回 domain.ErrNotFound
	Delete(ctx context.Context, id int64) error

	// Stats 总数、最近 7 天数、各字段均值；均值的分子分母都排除 NULL
	Stats(ctx context.Context, state string) (*HealthMetricsStats, error)

	// ListWithNotes 返回 notes 非空的记录（症状统计用）
	ListWithNotes(ctx context.Context, state string) ([]*domain.HealthMetricsRecord, error)
}
