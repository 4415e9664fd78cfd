package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"healthtwin-data/internal/domain"
	"healthtwin-data/internal/repository"
)

// HealthMetricsService 生命体征记录：提交 / 查询 / 统计 / 删除 / 导出
type HealthMetricsService struct {
	repo   repository.HealthMetricsRepository
	logger *zap.Logger
}

// NewHealthMetricsService 创建体征服务
func NewHealthMetricsService(repo repository.HealthMetricsRepository, logger *zap.Logger) *HealthMetricsService {
	return &HealthMetricsService{repo: repo, logger: logger}
}

// SubmitMetricsRequest 体征提交请求；所有字段可缺省
type SubmitMetricsRequest struct {
	Temperature   *float64
	SystolicBP    *int
	DiastolicBP   *int
	BloodOxygen   *float64
	PatientName   *string
	PatientAge    *int
	PatientGender *string
	Location      *string
	State         *string
	District      *string
	RecordedBy    string
	Notes         *string
}

// Submit 存储一条体征记录；缺省数值以 NULL 落库，绝不折算为 0
func (s *HealthMetricsService) Submit(ctx context.Context, req SubmitMetricsRequest) (int64, error) {
	rec := &domain.HealthMetricsRecord{
		Temperature:   req.Temperature,
		SystolicBP:    req.SystolicBP,
		DiastolicBP:   req.DiastolicBP,
		BloodOxygen:   req.BloodOxygen,
		PatientName:   req.PatientName,
		PatientAge:    req.PatientAge,
		PatientGender: req.PatientGender,
		Location:      req.Location,
		State:         req.State,
		District:      req.District,
		RecordedBy:    defaultStr(req.RecordedBy, "Unknown"),
		Notes:         req.Notes,
		Timestamp:     time.Now().UTC(), // 创建时间由服务端写入
	}
	if err := rec.Validate(); err != nil {
		return 0, err
	}

	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		s.logger.Error("failed to store health metrics", zap.Error(err))
		return 0, err
	}

	s.logger.Info("health metrics recorded",
		zap.Int64("record_id", id),
		zap.String("recorded_by", rec.RecordedBy),
	)
	return id, nil
}

// ListMetricsResponse 分页查询响应
type ListMetricsResponse struct {
	Records     []*domain.HealthMetricsRecord
	Total       int
	Pages       int
	CurrentPage int
}

// List 按时间倒序分页
func (s *HealthMetricsService) List(ctx context.Context, page, perPage int, state, district string) (*ListMetricsResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}
	if perPage > 200 {
		perPage = 200
	}

	records, total, err := s.repo.List(ctx, repository.HealthMetricsFilters{State: state, District: district}, page, perPage)
	if err != nil {
		return nil, err
	}

	pages := total / perPage
	if total%perPage > 0 {
		pages++
	}
	return &ListMetricsResponse{
		Records:     records,
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
	}, nil
}

// Stats 体征统计；均值保留 1 位小数，缺省值不进分子也不进分母
func (s *HealthMetricsService) Stats(ctx context.Context, state string) (*repository.HealthMetricsStats, error) {
	stats, err := s.repo.Stats(ctx, state)
	if err != nil {
		return nil, err
	}
	stats.Average.Temperature = round1(stats.Average.Temperature)
	stats.Average.SystolicBP = round1(stats.Average.SystolicBP)
	stats.Average.DiastolicBP = round1(stats.Average.DiastolicBP)
	stats.Average.BloodOxygen = round1(stats.Average.BloodOxygen)
	return stats, nil
}

// SymptomCount 单个症状的计数
type SymptomCount struct {
	Symptom string
	Count   int
}

// SymptomStatsResponse 症状统计响应
// TotalSymptomRecords 统计的是 notes 非空的记录数（不只是带 "Symptom:" 前缀的）
type SymptomStatsResponse struct {
	Symptoms            []SymptomCount
	TotalSymptomRecords int
}

// SymptomStats 从 notes 中按 "Symptom: <关键词>" 约定统计症状分布
func (s *HealthMetricsService) SymptomStats(ctx context.Context, state string) (*SymptomStatsResponse, error) {
	records, err := s.repo.ListWithNotes(ctx, state)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	totalWithNotes := 0
	for _, rec := range records {
		if !rec.HasNotes() {
			continue
		}
		totalWithNotes++
		if kw := rec.SymptomKeyword(); kw != "" {
			counts[kw]++
		}
	}

	symptoms := make([]SymptomCount, 0, len(counts))
	for symptom, count := range counts {
		symptoms = append(symptoms, SymptomCount{Symptom: symptom, Count: count})
	}
	// 计数降序；同数则按症状名升序，保证同一查询内顺序稳定
	sort.Slice(symptoms, func(i, j int) bool {
		if symptoms[i].Count != symptoms[j].Count {
			return symptoms[i].Count > symptoms[j].Count
		}
		return symptoms[i].Symptom < symptoms[j].Symptom
	})

	return &SymptomStatsResponse{
		Symptoms:            symptoms,
		TotalSymptomRecords: totalWithNotes,
	}, nil
}

// Delete 按 id 硬删除；id 不存在返回 domain.ErrNotFound（重复删除同样如此）
func (s *HealthMetricsService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("health metrics record deleted", zap.Int64("record_id", id))
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
