package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"healthtwin-data/internal/classifier"
	"healthtwin-data/internal/domain"
	"healthtwin-data/internal/repository"
)

func fPtr(v float64) *float64 { return &v }
func iPtr(v int) *int         { return &v }
func sPtr(v string) *string   { return &v }

func newPredictionService() (*PredictionService, *repository.MemoryPredictionsRepository) {
	repo := repository.NewMemoryPredictionsRepository()
	svc := NewPredictionService(repo, classifier.NewRuleClassifier(), zap.NewNop())
	return svc, repo
}

func TestSubmitSample_SafeWater(t *testing.T) {
	svc, repo := newPredictionService()

	resp, err := svc.SubmitSample(context.Background(), SubmitSampleRequest{
		PH:                    fPtr(7.0),
		Turbidity:             fPtr(1.0),
		TDS:                   fPtr(150),
		PeopleAffectedPer5000: iPtr(2),
		State:                 "Assam",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.DiseaseNone, resp.PredictedDisease)
	assert.Equal(t, "Safe – No immediate outbreak risk.", resp.HealthAlert)
	assert.True(t, resp.SavedToDatabase)
	assert.NotZero(t, resp.RecordID)

	// 安全水样不产生报警
	n, err := repo.CountActiveAlerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSubmitSample_SevereContamination(t *testing.T) {
	svc, repo := newPredictionService()

	resp, err := svc.SubmitSample(context.Background(), SubmitSampleRequest{
		PH:                    fPtr(9.5),
		Turbidity:             fPtr(12),
		TDS:                   fPtr(900),
		PeopleAffectedPer5000: iPtr(400),
		State:                 "Manipur",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.DiseaseCholera, resp.PredictedDisease)
	assert.Equal(t, "Outbreak risk detected: Cholera", resp.HealthAlert)

	// 阳性预测必须伴随一条 ACTIVE 报警
	n, err := repo.CountActiveAlerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	alerts, err := repo.ListAlerts(context.Background(), domain.AlertStatusActive, "")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertLevelHigh, alerts[0].Alert.AlertLevel)
}

func TestSubmitSample_MissingFieldRejected(t *testing.T) {
	svc, repo := newPredictionService()

	_, err := svc.SubmitSample(context.Background(), SubmitSampleRequest{
		Turbidity:             fPtr(1.0),
		TDS:                   fPtr(150),
		PeopleAffectedPer5000: iPtr(2),
	})

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	// 校验失败不得落库
	n, err := repo.CountPredictions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSubmitSample_OutOfRangeRejected(t *testing.T) {
	svc, _ := newPredictionService()

	_, err := svc.SubmitSample(context.Background(), SubmitSampleRequest{
		PH:                    fPtr(15.0),
		Turbidity:             fPtr(1.0),
		TDS:                   fPtr(150),
		PeopleAffectedPer5000: iPtr(2),
	})

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestSubmitSample_DefaultsApplied(t *testing.T) {
	svc, repo := newPredictionService()

	_, err := svc.SubmitSample(context.Background(), SubmitSampleRequest{
		PH:                    fPtr(7.0),
		Turbidity:             fPtr(1.0),
		TDS:                   fPtr(150),
		PeopleAffectedPer5000: iPtr(2),
	})
	require.NoError(t, err)

	records, err := repo.ListRecords(context.Background(), 10, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Unknown", records[0].Water.Location)
	assert.Equal(t, "Unknown", records[0].Water.State)
	assert.Equal(t, "System", records[0].Water.CollectedBy)
}
