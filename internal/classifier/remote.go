package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"healthtwin-data/internal/domain"
)

// RemoteClassifier 外部模型服务客户端
// 配置 MODEL_HTTP_ADDRESS 后启用；调用线上推理服务的 /predict 接口。
// 服务不可达时返回 domain.ErrUpstreamUnavailable，由调用方决定是否降级。
type RemoteClassifier struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewRemoteClassifier 创建外部模型客户端
func NewRemoteClassifier(baseURL string, timeout time.Duration, logger *zap.Logger) *RemoteClassifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RemoteClassifier{
		httpClient: client,
		logger:     logger,
	}
}

var _ Classifier = (*RemoteClassifier)(nil)

type remotePredictRequest struct {
	PH                    float64 `json:"ph"`
	Turbidity             float64 `json:"turbidity"`
	TDS                   float64 `json:"tds"`
	PeopleAffectedPer5000 int     `json:"people_affected_per_5000"`
}

type remotePredictResponse struct {
	PredictedDisease string `json:"predicted_disease"`
	HealthAlert      string `json:"health_alert"`
}

// Classify 调用外部模型服务
func (c *RemoteClassifier) Classify(ctx context.Context, sample *domain.WaterQualitySample) (domain.Prediction, error) {
	var out remotePredictResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(remotePredictRequest{
			PH:                    sample.PH,
			Turbidity:             sample.Turbidity,
			TDS:                   sample.TDS,
			PeopleAffectedPer5000: sample.PeopleAffectedPer5000,
		}).
		SetResult(&out).
		Post("/predict")
	if err != nil {
		c.logger.Warn("model service unreachable", zap.Error(err))
		return domain.Prediction{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		c.logger.Warn("model service returned error",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return domain.Prediction{}, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode())
	}
	if out.PredictedDisease == "" {
		return domain.Prediction{}, fmt.Errorf("%w: empty prediction", domain.ErrUpstreamUnavailable)
	}

	// 报警级别由固定映射派生（模型只输出疾病标签和文案）
	return domain.Prediction{
		Disease:     out.PredictedDisease,
		HealthAlert: out.HealthAlert,
		AlertLevel:  AlertLevelFor(out.PredictedDisease),
	}, nil
}
