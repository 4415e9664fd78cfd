package classifier

import (
	"context"
	"fmt"

	"healthtwin-data/internal/domain"
)

// Classifier 水质→疾病风险分类器接口
// 实现必须是确定性的：相同输入永远产生相同输出。
type Classifier interface {
	Classify(ctx context.Context, sample *domain.WaterQualitySample) (domain.Prediction, error)
}

// RuleClassifier 本地规则分类器
// 线上模型是一个随机森林（外部服务，内部阈值不公开），这里用一张显式
// 决策表代替：按四个因子打分，再按主导因子选疾病。
//
// 打分规则：
//	ph        超出 [6.5, 8.5] +1；超出 [5.5, 9.5] +2
//	turbidity >= 5 NTU +1；>= 8 NTU +2
//	tds       >= 500 mg/L +1；>= 1500 mg/L +2
//	people    >= 250 +1；>= 700 +2
//
// 总分 <= 1 → "None"；否则：
//	浊度档位 2        → Cholera（重度浑浊是霍乱传播的主导信号）
//	否则 TDS 档位 >= 1 → Typhoid
//	否则              → Diarrhea
type RuleClassifier struct{}

// NewRuleClassifier 创建本地规则分类器
func NewRuleClassifier() *RuleClassifier { return &RuleClassifier{} }

var _ Classifier = (*RuleClassifier)(nil)

// 各因子分档阈值
const (
	phSafeMin, phSafeMax         = 6.5, 8.5
	phCriticalMin, phCriticalMax = 5.5, 9.5
	turbidityWarn, turbidityCrit = 5.0, 8.0
	tdsWarn, tdsCrit             = 500.0, 1500.0
	peopleWarn, peopleCrit       = 250, 700
)

// Classify 对采样进行分类（纯函数，不做任何 I/O）
// 调用前样本必须已通过 Validate；这里不重复范围检查。
func (c *RuleClassifier) Classify(_ context.Context, sample *domain.WaterQualitySample) (domain.Prediction, error) {
	phTier := tierPH(sample.PH)
	turbidityTier := tier2(sample.Turbidity, turbidityWarn, turbidityCrit)
	tdsTier := tier2(sample.TDS, tdsWarn, tdsCrit)
	peopleTier := tier2(float64(sample.PeopleAffectedPer5000), float64(peopleWarn), float64(peopleCrit))

	score := phTier + turbidityTier + tdsTier + peopleTier

	disease := domain.DiseaseNone
	if score > 1 {
		switch {
		case turbidityTier == 2:
			disease = domain.DiseaseCholera
		case tdsTier >= 1:
			disease = domain.DiseaseTyphoid
		default:
			disease = domain.DiseaseDiarrhea
		}
	}

	return domain.Prediction{
		Disease:     disease,
		HealthAlert: HealthAlertText(disease),
		AlertLevel:  AlertLevelFor(disease),
	}, nil
}

func tierPH(ph float64) int {
	if ph < phCriticalMin || ph > phCriticalMax {
		return 2
	}
	if ph < phSafeMin || ph > phSafeMax {
		return 1
	}
	return 0
}

func tier2(v, warn, crit float64) int {
	switch {
	case v >= crit:
		return 2
	case v >= warn:
		return 1
	default:
		return 0
	}
}

// HealthAlertText 生成面向 dashboard 的报警文案（与线上模型输出保持一致）
func HealthAlertText(disease string) string {
	if disease == domain.DiseaseNone {
		return "Safe – No immediate outbreak risk."
	}
	return fmt.Sprintf("Outbreak risk detected: %s", disease)
}

// AlertLevelFor 疾病→报警级别映射
// Cholera/Typhoid 属高危水传疾病 → HIGH；Diarrhea → MEDIUM；None → LOW
func AlertLevelFor(disease string) string {
	switch disease {
	case domain.DiseaseCholera, domain.DiseaseTyphoid:
		return domain.AlertLevelHigh
	case domain.DiseaseDiarrhea:
		return domain.AlertLevelMedium
	default:
		return domain.AlertLevelLow
	}
}
