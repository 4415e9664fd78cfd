package repository

import (
	"context"

	"healthtwin-data/internal/domain"
)

// HealthWorkersRepository 卫生工作者 Repository 接口
type HealthWorkersRepository interface {
	// ListActive 返回 is_active 的工作者；state 为空时不过滤
	ListActive(ctx context.Context, state string) ([]*domain.HealthWorker, error)

	// CountActive is_active 工作者总数
	CountActive(ctx context.Context) (int, error)

	// GetByWorkerID 按 worker_id 查找；不存在返回 domain.ErrNotFound
	GetByWorkerID(ctx context.Context, workerID string) (*domain.HealthWorker, error)

	// SeedIfEmpty 表为空时写入初始数据（启动时调用一次）
	SeedIfEmpty(ctx context.Context, workers []*domain.HealthWorker) error
}
