package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"healthtwin-data/internal/domain"
)

// MemoryHealthWorkersRepository 内存实现（DB 未就绪时的联测降级，亦用于单测）
type MemoryHealthWorkersRepository struct {
	mu      sync.RWMutex
	nextID  int64
	workers []*domain.HealthWorker
}

// NewMemoryHealthWorkersRepository 创建内存工作者 Repository
func NewMemoryHealthWorkersRepository() *MemoryHealthWorkersRepository {
	return &MemoryHealthWorkersRepository{nextID: 1}
}

var _ HealthWorkersRepository = (*MemoryHealthWorkersRepository)(nil)

func (r *MemoryHealthWorkersRepository) ListActive(_ context.Context, state string) ([]*domain.HealthWorker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.HealthWorker
	for _, w := range r.workers {
		if !w.IsActive {
			continue
		}
		if state != "" && w.State != state {
			continue
		}
		cp := *w
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *MemoryHealthWorkersRepository) CountActive(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, w := range r.workers {
		if w.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *MemoryHealthWorkersRepository) GetByWorkerID(_ context.Context, workerID string) (*domain.HealthWorker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, w := range r.workers {
		if w.WorkerID == workerID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryHealthWorkersRepository) SeedIfEmpty(_ context.Context, workers []*domain.HealthWorker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.workers) > 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, w := range workers {
		cp := *w
		cp.ID = r.nextID
		cp.IsActive = true
		cp.CreatedAt = now
		r.nextID++
		r.workers = append(r.workers, &cp)
	}
	return nil
}
