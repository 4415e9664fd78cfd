package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"healthtwin-data/internal/domain"
	"healthtwin-data/internal/repository"
)

func newHealthMetricsService() *HealthMetricsService {
	return NewHealthMetricsService(repository.NewMemoryHealthMetricsRepository(), zap.NewNop())
}

func TestMetricsSubmit_VitalsOnly(t *testing.T) {
	svc := newHealthMetricsService()
	ctx := context.Background()

	id, err := svc.Submit(ctx, SubmitMetricsRequest{
		Temperature: fPtr(38.5),
		BloodOxygen: fPtr(96),
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	resp, err := svc.List(ctx, 1, 20, "", "")
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
	rec := resp.Records[0]
	require.NotNil(t, rec.Temperature)
	assert.InDelta(t, 38.5, *rec.Temperature, 0.001)
	// 未提交的字段保持缺省，不折算为 0
	assert.Nil(t, rec.SystolicBP)
	assert.Nil(t, rec.PatientName)
	assert.Equal(t, "Unknown", rec.RecordedBy)
}

func TestMetricsSubmit_UnpairedBPRejected(t *testing.T) {
	svc := newHealthMetricsService()

	_, err := svc.Submit(context.Background(), SubmitMetricsRequest{
		SystolicBP: iPtr(120),
	})

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestMetricsStats_AbsentFieldsExcluded(t *testing.T) {
	svc := newHealthMetricsService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitMetricsRequest{Temperature: fPtr(36.0)})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, SubmitMetricsRequest{Temperature: fPtr(38.0), BloodOxygen: fPtr(95)})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, SubmitMetricsRequest{Notes: sPtr("Symptom: fever")})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRecords)
	// 只有两条记录带体温：均值是 37.0，不是 (36+38+0)/3
	assert.InDelta(t, 37.0, stats.Average.Temperature, 0.001)
	// 血氧只有一条
	assert.InDelta(t, 95.0, stats.Average.BloodOxygen, 0.001)
}

func TestMetricsStats_RoundedToOneDecimal(t *testing.T) {
	svc := newHealthMetricsService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitMetricsRequest{Temperature: fPtr(36.1)})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, SubmitMetricsRequest{Temperature: fPtr(36.2)})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, SubmitMetricsRequest{Temperature: fPtr(36.2)})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 36.2, stats.Average.Temperature)
}

func TestMetricsList_Pagination(t *testing.T) {
	svc := newHealthMetricsService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Submit(ctx, SubmitMetricsRequest{Temperature: fPtr(36.5)})
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, 2, 2, "", "")
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 3, resp.Pages)
	assert.Equal(t, 2, resp.CurrentPage)
	assert.Len(t, resp.Records, 2)
}

func TestMetricsDelete_RepeatReturnsNotFound(t *testing.T) {
	svc := newHealthMetricsService()
	ctx := context.Background()

	id, err := svc.Submit(ctx, SubmitMetricsRequest{Temperature: fPtr(36.5)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))
	// 硬删除：再删同一 id 必须 404
	assert.ErrorIs(t, svc.Delete(ctx, id), domain.ErrNotFound)
}

func TestSymptomStats(t *testing.T) {
	svc := newHealthMetricsService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Submit(ctx, SubmitMetricsRequest{Notes: sPtr("Symptom: fever")})
		require.NoError(t, err)
	}
	_, err := svc.Submit(ctx, SubmitMetricsRequest{Notes: sPtr("Symptom: diarrhea")})
	require.NoError(t, err)
	// 自由文本备注：计入总数，但不产生症状桶
	_, err = svc.Submit(ctx, SubmitMetricsRequest{Notes: sPtr("patient recovering well")})
	require.NoError(t, err)
	// 无备注：完全不计入
	_, err = svc.Submit(ctx, SubmitMetricsRequest{Temperature: fPtr(36.5)})
	require.NoError(t, err)

	resp, err := svc.SymptomStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 5, resp.TotalSymptomRecords)
	require.Len(t, resp.Symptoms, 2)
	// 计数降序
	assert.Equal(t, SymptomCount{Symptom: "fever", Count: 3}, resp.Symptoms[0])
	assert.Equal(t, SymptomCount{Symptom: "diarrhea", Count: 1}, resp.Symptoms[1])
}

func TestExport_ProducesWorkbook(t *testing.T) {
	svc := newHealthMetricsService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitMetricsRequest{
		Temperature: fPtr(37.5),
		PatientName: sPtr("Ravi"),
		State:       sPtr("Assam"),
		Notes:       sPtr("Symptom: fever"),
	})
	require.NoError(t, err)

	data, err := svc.Export(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	// xlsx 是 zip 容器，以 PK 开头
	assert.Equal(t, byte('P'), data[0])
	assert.Equal(t, byte('K'), data[1])
}
