package repository

import (
	"context"
	"sync"
	"time"

	"healthtwin-data/internal/domain"
)

// MemoryHealthMetricsRepository 内存实现（DB 未就绪时的联测降级，亦用于单测）
type MemoryHealthMetricsRepository struct {
	mu      sync.RWMutex
	nextID  int64
	records []*domain.HealthMetricsRecord
}

// NewMemoryHealthMetricsRepository 创建内存体征 Repository
func NewMemoryHealthMetricsRepository() *MemoryHealthMetricsRepository {
	return &MemoryHealthMetricsRepository{nextID: 1}
}

var _ HealthMetricsRepository = (*MemoryHealthMetricsRepository)(nil)

func (r *MemoryHealthMetricsRepository) Create(_ context.Context, rec *domain.HealthMetricsRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *rec
	cp.ID = r.nextID
	r.nextID++
	r.records = append(r.records, &cp)
	return cp.ID, nil
}

func (r *MemoryHealthMetricsRepository) matches(rec *domain.HealthMetricsRecord, filters HealthMetricsFilters) bool {
	if filters.State != "" && (rec.State == nil || *rec.State != filters.State) {
		return false
	}
	if filters.District != "" && (rec.District == nil || *rec.District != filters.District) {
		return false
	}
	return true
}

func (r *MemoryHealthMetricsRepository) List(_ context.Context, filters HealthMetricsFilters, page, perPage int) ([]*domain.HealthMetricsRecord, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}

	var filtered []*domain.HealthMetricsRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.matches(r.records[i], filters) {
			filtered = append(filtered, r.records[i])
		}
	}

	total := len(filtered)
	start := (page - 1) * perPage
	if start >= total {
		return nil, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}

	out := make([]*domain.HealthMetricsRecord, 0, end-start)
	for _, rec := range filtered[start:end] {
		cp := *rec
		out = append(out, &cp)
	}
	return out, total, nil
}

func (r *MemoryHealthMetricsRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *MemoryHealthMetricsRepository) Stats(_ context.Context, state string) (*HealthMetricsStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	stats := &HealthMetricsStats{}

	var sumTemp, sumOxy float64
	var nTemp, nOxy int
	var sumSys, sumDia float64
	var nSys, nDia int

	for _, rec := range r.records {
		if state != "" && (rec.State == nil || *rec.State != state) {
			continue
		}
		stats.TotalRecords++
		if !rec.Timestamp.Before(weekAgo) {
			stats.RecentRecords++
		}
		// 缺省字段不进分子也不进分母
		if rec.Temperature != nil {
			sumTemp += *rec.Temperature
			nTemp++
		}
		if rec.SystolicBP != nil {
			sumSys += float64(*rec.SystolicBP)
			nSys++
		}
		if rec.DiastolicBP != nil {
			sumDia += float64(*rec.DiastolicBP)
			nDia++
		}
		if rec.BloodOxygen != nil {
			sumOxy += *rec.BloodOxygen
			nOxy++
		}
	}

	if nTemp > 0 {
		stats.Average.Temperature = sumTemp / float64(nTemp)
	}
	if nSys > 0 {
		stats.Average.SystolicBP = sumSys / float64(nSys)
	}
	if nDia > 0 {
		stats.Average.DiastolicBP = sumDia / float64(nDia)
	}
	if nOxy > 0 {
		stats.Average.BloodOxygen = sumOxy / float64(nOxy)
	}
	return stats, nil
}

func (r *MemoryHealthMetricsRepository) ListWithNotes(_ context.Context, state string) ([]*domain.HealthMetricsRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.HealthMetricsRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		if !rec.HasNotes() {
			continue
		}
		if state != "" && (rec.State == nil || *rec.State != state) {
			continue
		}
		cp := *rec
		result = append(result, &cp)
	}
	return result, nil
}
