package service

import (
	"context"

	"go.uber.org/zap"

	"healthtwin-data/internal/classifier"
	"healthtwin-data/internal/domain"
	"healthtwin-data/internal/repository"
)

// PredictionService 水质采样提交：校验 → 分类 → 原子落库
type PredictionService struct {
	repo       repository.PredictionsRepository
	classifier classifier.Classifier
	logger     *zap.Logger
}

// NewPredictionService 创建预测服务
func NewPredictionService(repo repository.PredictionsRepository, c classifier.Classifier, logger *zap.Logger) *PredictionService {
	return &PredictionService{
		repo:       repo,
		classifier: c,
		logger:     logger,
	}
}

// SubmitSampleRequest 采样提交请求
// 四个数值字段必填；缺失视为校验错误（服务端是信任边界）
type SubmitSampleRequest struct {
	PH                    *float64
	Turbidity             *float64
	TDS                   *float64
	PeopleAffectedPer5000 *int
	Location              string
	State                 string
	District              string
	CollectedBy           string
}

// SubmitSampleResponse 采样提交响应（预测内联返回）
type SubmitSampleResponse struct {
	PredictedDisease string
	HealthAlert      string
	RecordID         int64
	SavedToDatabase  bool
}

// SubmitSample 提交水质采样，返回内联预测
// 采样 + 预测（+ 报警）在同一事务内写入；失败时不产生部分记录。
func (s *PredictionService) SubmitSample(ctx context.Context, req SubmitSampleRequest) (*SubmitSampleResponse, error) {
	if req.PH == nil {
		return nil, domain.NewValidationError("ph", "required")
	}
	if req.Turbidity == nil {
		return nil, domain.NewValidationError("turbidity", "required")
	}
	if req.TDS == nil {
		return nil, domain.NewValidationError("tds", "required")
	}
	if req.PeopleAffectedPer5000 == nil {
		return nil, domain.NewValidationError("people_affected_per_5000", "required")
	}

	sample := &domain.WaterQualitySample{
		PH:                    *req.PH,
		Turbidity:             *req.Turbidity,
		TDS:                   *req.TDS,
		PeopleAffectedPer5000: *req.PeopleAffectedPer5000,
		Location:              defaultStr(req.Location, "Unknown"),
		State:                 defaultStr(req.State, "Unknown"),
		District:              defaultStr(req.District, "Unknown"),
		CollectedBy:           defaultStr(req.CollectedBy, "System"),
	}
	if err := sample.Validate(); err != nil {
		return nil, err
	}

	// 分类不触碰存储；持久化由本服务负责
	pred, err := s.classifier.Classify(ctx, sample)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.SavePrediction(ctx, sample, pred)
	if err != nil {
		s.logger.Error("failed to save prediction",
			zap.String("state", sample.State),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("water sample classified",
		zap.Int64("record_id", record.ID),
		zap.String("disease", pred.Disease),
		zap.String("alert_level", pred.AlertLevel),
		zap.String("state", sample.State),
	)

	return &SubmitSampleResponse{
		PredictedDisease: pred.Disease,
		HealthAlert:      pred.HealthAlert,
		RecordID:         record.ID,
		SavedToDatabase:  true,
	}, nil
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
