package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"healthtwin-data/internal/domain"
	"healthtwin-data/internal/repository"
	"healthtwin-data/internal/store"
)

const dashboardCacheKey = "healthtwin:dashboard:summary"

// DashboardService 只读聚合视图：dashboard 汇总 / 记录列表 / 报警列表 / 州统计
type DashboardService struct {
	predictions repository.PredictionsRepository
	workers     repository.HealthWorkersRepository
	kv          store.KV
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewDashboardService 创建聚合服务
// kv 可为 nil（禁用缓存）；cacheTTL 为 0 时同样不缓存
func NewDashboardService(
	predictions repository.PredictionsRepository,
	workers repository.HealthWorkersRepository,
	kv store.KV,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		predictions: predictions,
		workers:     workers,
		kv:          kv,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// DashboardSummary 汇总数字
type DashboardSummary struct {
	TotalRecords int `json:"total_records"`
	ActiveAlerts int `json:"active_alerts"`
	TotalWorkers int `json:"total_workers"`
}

// DiseaseBucket 疾病分布行（含 "None" 桶）
type DiseaseBucket struct {
	Disease string `json:"disease"`
	Count   int    `json:"count"`
}

// StateBucket 州分布行
type StateBucket struct {
	State              string `json:"state"`
	TotalPredictions   int    `json:"total_predictions"`
	DiseasePredictions int    `json:"disease_predictions"`
}

// DashboardData dashboard 响应
// 不变式：disease_breakdown 各桶之和等于 summary.total_records
type DashboardData struct {
	Summary          DashboardSummary `json:"summary"`
	DiseaseBreakdown []DiseaseBucket  `json:"disease_breakdown"`
	StateBreakdown   []StateBucket    `json:"state_breakdown"`
}

// Dashboard 返回汇总数据；短 TTL 缓存（读取允许落后于写入，最终可见即可）
func (s *DashboardService) Dashboard(ctx context.Context) (*DashboardData, error) {
	if s.kv != nil && s.cacheTTL > 0 {
		if cached, err := s.kv.Get(ctx, dashboardCacheKey); err == nil {
			var data DashboardData
			if err := json.Unmarshal([]byte(cached), &data); err == nil {
				return &data, nil
			}
			// 缓存损坏则穿透重建
			s.logger.Warn("corrupt dashboard cache entry, rebuilding")
		}
	}

	data, err := s.buildDashboard(ctx)
	if err != nil {
		return nil, err
	}

	if s.kv != nil && s.cacheTTL > 0 {
		if raw, err := json.Marshal(data); err == nil {
			if err := s.kv.Set(ctx, dashboardCacheKey, string(raw), s.cacheTTL); err != nil {
				s.logger.Warn("failed to cache dashboard data", zap.Error(err))
			}
		}
	}
	return data, nil
}

func (s *DashboardService) buildDashboard(ctx context.Context) (*DashboardData, error) {
	totalRecords, err := s.predictions.CountPredictions(ctx)
	if err != nil {
		return nil, err
	}
	activeAlerts, err := s.predictions.CountActiveAlerts(ctx)
	if err != nil {
		return nil, err
	}
	totalWorkers, err := s.workers.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	diseaseBreakdown, err := s.predictions.DiseaseBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	stateBreakdown, err := s.predictions.StateBreakdown(ctx)
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		Summary: DashboardSummary{
			TotalRecords: totalRecords,
			ActiveAlerts: activeAlerts,
			TotalWorkers: totalWorkers,
		},
		DiseaseBreakdown: make([]DiseaseBucket, 0, len(diseaseBreakdown)),
		StateBreakdown:   make([]StateBucket, 0, len(stateBreakdown)),
	}
	for _, d := range diseaseBreakdown {
		data.DiseaseBreakdown = append(data.DiseaseBreakdown, DiseaseBucket{Disease: d.Disease, Count: d.Count})
	}
	for _, sb := range stateBreakdown {
		data.StateBreakdown = append(data.StateBreakdown, StateBucket{
			State:              sb.State,
			TotalPredictions:   sb.TotalPredictions,
			DiseasePredictions: sb.DiseasePredictions,
		})
	}
	return data, nil
}

// ListRecords 预测+采样连接行，时间倒序
func (s *DashboardService) ListRecords(ctx context.Context, limit int, state string) ([]*repository.RecordJoin, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return s.predictions.ListRecords(ctx, limit, state)
}

// ListAlerts 报警列表；status 为空时默认 ACTIVE
func (s *DashboardService) ListAlerts(ctx context.Context, status, state string) ([]*repository.AlertJoin, error) {
	if status == "" {
		status = domain.AlertStatusActive
	}
	return s.predictions.ListAlerts(ctx, status, state)
}

// StateStatisticsResponse 单个州的疾病统计
type StateStatisticsResponse struct {
	State        string
	Statistics   []repository.DiseaseStateStat
	TotalRecords int
}

// StateStatistics 指定州内按疾病的计数与水质均值
func (s *DashboardService) StateStatistics(ctx context.Context, state string) (*StateStatisticsResponse, error) {
	stats, err := s.predictions.StateStatistics(ctx, state)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, st := range stats {
		total += st.Count
	}
	return &StateStatisticsResponse{State: state, Statistics: stats, TotalRecords: total}, nil
}

// ListWorkers 在职工作者列表
func (s *DashboardService) ListWorkers(ctx context.Context, state string) ([]*domain.HealthWorker, error) {
	return s.workers.ListActive(ctx, state)
}
