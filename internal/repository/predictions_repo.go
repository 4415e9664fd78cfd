package repository

import (
	"context"

	"healthtwin-data/internal/domain"
)

// RecordJoin 预测记录 + 所属水质采样（/records 列表行）
type RecordJoin struct {
	Prediction domain.PredictionRecord
	Water      domain.WaterQualitySample
}

// AlertJoin 报警 + 预测 + 采样 + 可选的指派工作者（/alerts 列表行）
type AlertJoin struct {
	Alert      domain.HealthAlert
	Prediction domain.PredictionRecord
	Water      domain.WaterQualitySample
	Worker     *domain.HealthWorker
}

// DiseaseCount 按疾病标签的计数（含 "None" 桶）
type DiseaseCount struct {
	Disease string
	Count   int
}

// StateBreakdown 按 state 的预测汇总
type StateBreakdown struct {
	State              string
	TotalPredictions   int
	DiseasePredictions int // predicted_disease != 'None'
}

// DiseaseStateStat 单个 state 内按疾病的统计行（/statistics/<state>）
type DiseaseStateStat struct {
	Disease      string
	Count        int
	AvgPH        *float64
	AvgTurbidity *float64
	AvgTDS       *float64
}

// PredictionsRepository 水质采样/预测/报警 Repository 接口
// 写路径只有 SavePrediction 一个入口；三张表的写入必须在同一事务内完成。
type PredictionsRepository interface {
	// SavePrediction 原子落库：采样 + 预测（疾病阳性时再加一条 ACTIVE 报警）。
	// 任一步失败则整体回滚，返回 PersistenceError。
	SavePrediction(ctx context.Context, sample *domain.WaterQualitySample, pred domain.Prediction) (*domain.PredictionRecord, error)

	// ListRecords 按时间倒序返回预测+采样连接行；state 为空时不过滤
	ListRecords(ctx context.Context, limit int, state string) ([]*RecordJoin, error)

	// ListAlerts 按创建时间倒序返回指定状态的报警；state 为空时不过滤
	ListAlerts(ctx context.Context, status, state string) ([]*AlertJoin, error)

	// CountPredictions 预测记录总数
	CountPredictions(ctx context.Context) (int, error)

	// CountActiveAlerts ACTIVE 状态报警数
	CountActiveAlerts(ctx context.Context) (int, error)

	// DiseaseBreakdown 按疾病标签计数（疾病名升序，保证同一查询内顺序稳定）
	DiseaseBreakdown(ctx context.Context) ([]DiseaseCount, error)

	// StateBreakdown 按 state 统计总预测数与疾病阳性数
	StateBreakdown(ctx context.Context) ([]StateBreakdown, error)

	// StateStatistics 指定 state 内按疾病的计数与水质均值
	StateStatistics(ctx context.Context, state string) ([]DiseaseStateStat, error)
}
