package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"healthtwin-data/internal/domain"
)

// MemoryPredictionsRepository 内存实现（DB 未就绪时的联测降级，亦用于单测）
type MemoryPredictionsRepository struct {
	mu      sync.RWMutex
	nextID  int64
	records []*memoryPredictionEntry
}

type memoryPredictionEntry struct {
	water      domain.WaterQualitySample
	prediction domain.PredictionRecord
	alert      *domain.HealthAlert
}

// NewMemoryPredictionsRepository 创建内存预测 Repository
func NewMemoryPredictionsRepository() *MemoryPredictionsRepository {
	return &MemoryPredictionsRepository{nextID: 1}
}

var _ PredictionsRepository = (*MemoryPredictionsRepository)(nil)

func (r *MemoryPredictionsRepository) SavePrediction(_ context.Context, sample *domain.WaterQualitySample, pred domain.Prediction) (*domain.PredictionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	water := *sample
	water.ID = r.nextID
	water.Timestamp = now
	r.nextID++

	record := domain.PredictionRecord{
		ID:               r.nextID,
		WaterQualityID:   water.ID,
		PredictedDisease: pred.Disease,
		HealthAlert:      pred.HealthAlert,
		ModelVersion:     "1.0",
		Timestamp:        now,
	}
	r.nextID++

	entry := &memoryPredictionEntry{water: water, prediction: record}
	if pred.Disease != domain.DiseaseNone {
		entry.alert = &domain.HealthAlert{
			ID:           r.nextID,
			PredictionID: record.ID,
			AlertLevel:   pred.AlertLevel,
			Status:       domain.AlertStatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		r.nextID++
	}
	r.records = append(r.records, entry)

	sample.ID = water.ID
	sample.Timestamp = now
	out := record
	return &out, nil
}

func (r *MemoryPredictionsRepository) ListRecords(_ context.Context, limit int, state string) ([]*RecordJoin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*RecordJoin
	// records 按插入顺序保存，倒序遍历即按时间倒序
	for i := len(r.records) - 1; i >= 0 && len(result) < limit; i-- {
		e := r.records[i]
		if state != "" && e.water.State != state {
			continue
		}
		result = append(result, &RecordJoin{Prediction: e.prediction, Water: e.water})
	}
	return result, nil
}

func (r *MemoryPredictionsRepository) ListAlerts(_ context.Context, status, state string) ([]*AlertJoin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*AlertJoin
	for i := len(r.records) - 1; i >= 0; i-- {
		e := r.records[i]
		if e.alert == nil || e.alert.Status != status {
			continue
		}
		if state != "" && e.water.State != state {
			continue
		}
		result = append(result, &AlertJoin{Alert: *e.alert, Prediction: e.prediction, Water: e.water})
	}
	return result, nil
}

func (r *MemoryPredictionsRepository) CountPredictions(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

func (r *MemoryPredictionsRepository) CountActiveAlerts(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.records {
		if e.alert != nil && e.alert.Status == domain.AlertStatusActive {
			n++
		}
	}
	return n, nil
}

func (r *MemoryPredictionsRepository) DiseaseBreakdown(_ context.Context) ([]DiseaseCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := map[string]int{}
	for _, e := range r.records {
		counts[e.prediction.PredictedDisease]++
	}

	var result []DiseaseCount
	for disease, count := range counts {
		result = append(result, DiseaseCount{Disease: disease, Count: count})
	}
	// 疾病名升序，与 Postgres 实现保持一致
	sort.Slice(result, func(i, j int) bool { return result[i].Disease < result[j].Disease })
	return result, nil
}

func (r *MemoryPredictionsRepository) StateBreakdown(_ context.Context) ([]StateBreakdown, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byState := map[string]*StateBreakdown{}
	for _, e := range r.records {
		state := e.water.State
		if state == "" {
			state = "Unknown"
		}
		sb, ok := byState[state]
		if !ok {
			sb = &StateBreakdown{State: state}
			byState[state] = sb
		}
		sb.TotalPredictions++
		if e.prediction.PredictedDisease != domain.DiseaseNone {
			sb.DiseasePredictions++
		}
	}

	var result []StateBreakdown
	for _, sb := range byState {
		result = append(result, *sb)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].State < result[j].State })
	return result, nil
}

func (r *MemoryPredictionsRepository) StateStatistics(_ context.Context, state string) ([]DiseaseStateStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type acc struct {
		count                 int
		sumPH, sumTurb, sumTDS float64
	}
	byDisease := map[string]*acc{}
	for _, e := range r.records {
		if e.water.State != state {
			continue
		}
		a, ok := byDisease[e.prediction.PredictedDisease]
		if !ok {
			a = &acc{}
			byDisease[e.prediction.PredictedDisease] = a
		}
		a.count++
		a.sumPH += e.water.PH
		a.sumTurb += e.water.Turbidity
		a.sumTDS += e.water.TDS
	}

	var result []DiseaseStateStat
	for disease, a := range byDisease {
		avgPH := a.sumPH / float64(a.count)
		avgTurb := a.sumTurb / float64(a.count)
		avgTDS := a.sumTDS / float64(a.count)
		result = append(result, DiseaseStateStat{
			Disease:      disease,
			Count:        a.count,
			AvgPH:        &avgPH,
			AvgTurbidity: &avgTurb,
			AvgTDS:       &avgTDS,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Disease < result[j].Disease })
	return result, nil
}
