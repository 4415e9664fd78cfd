package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtwin-data/internal/domain"
)

func setupMockPredictionsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresPredictionsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresPredictionsRepository(db)
}

func TestSavePrediction_DiseasePositive(t *testing.T) {
	db, mock, repo := setupMockPredictionsDB(t)
	defer db.Close()

	sample := &domain.WaterQualitySample{
		PH: 5.8, Turbidity: 9.0, TDS: 200, PeopleAffectedPer5000: 950,
		Location: "Well 3", State: "Assam", District: "Guwahati", CollectedBy: "AS001",
	}
	pred := domain.Prediction{
		Disease:     domain.DiseaseCholera,
		HealthAlert: "Outbreak risk detected: Cholera",
		AlertLevel:  domain.AlertLevelHigh,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO water_quality_records`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(`INSERT INTO prediction_records`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))
	// 疾病阳性 → 必须写入报警
	mock.ExpectExec(`INSERT INTO health_alerts`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	record, err := repo.SavePrediction(context.Background(), sample, pred)

	require.NoError(t, err)
	assert.Equal(t, int64(12), record.ID)
	assert.Equal(t, int64(7), record.WaterQualityID)
	assert.Equal(t, int64(7), sample.ID)
	assert.Equal(t, domain.DiseaseCholera, record.PredictedDisease)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSavePrediction_NoDiseaseSkipsAlert(t *testing.T) {
	db, mock, repo := setupMockPredictionsDB(t)
	defer db.Close()

	sample := &domain.WaterQualitySample{PH: 7.0, Turbidity: 1.0, TDS: 150, PeopleAffectedPer5000: 2}
	pred := domain.Prediction{
		Disease:     domain.DiseaseNone,
		HealthAlert: "Safe – No immediate outbreak risk.",
		AlertLevel:  domain.AlertLevelLow,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO water_quality_records`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`INSERT INTO prediction_records`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	// "None" → 不写报警，直接提交
	mock.ExpectCommit()

	record, err := repo.SavePrediction(context.Background(), sample, pred)

	require.NoError(t, err)
	assert.Equal(t, domain.DiseaseNone, record.PredictedDisease)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSavePrediction_RollbackOnFailure(t *testing.T) {
	db, mock, repo := setupMockPredictionsDB(t)
	defer db.Close()

	sample := &domain.WaterQualitySample{PH: 5.8, Turbidity: 9.0, TDS: 200, PeopleAffectedPer5000: 950}
	pred := domain.Prediction{Disease: domain.DiseaseCholera, AlertLevel: domain.AlertLevelHigh}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO water_quality_records`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(`INSERT INTO prediction_records`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.SavePrediction(context.Background(), sample, pred)

	require.Error(t, err)
	assert.True(t, domain.IsPersistence(err))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecords(t *testing.T) {
	db, mock, repo := setupMockPredictionsDB(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"p_id", "water_quality_id", "predicted_disease", "health_alert", "confidence_score", "model_version", "p_ts",
		"w_id", "ph", "turbidity", "tds", "people_affected_per_5000",
		"location", "state", "district", "collected_by", "w_ts",
	}).AddRow(
		int64(2), int64(1), "Typhoid", "Outbreak risk detected: Typhoid", nil, "1.0", now,
		int64(1), 6.1, 7.2, 1600.0, 750,
		"Well 3", "Assam", "Guwahati", "AS001", now,
	)

	mock.ExpectQuery(`SELECT .+ FROM prediction_records p`).
		WithArgs(50).
		WillReturnRows(rows)

	result, err := repo.ListRecords(context.Background(), 50, "")

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Typhoid", result[0].Prediction.PredictedDisease)
	assert.Nil(t, result[0].Prediction.ConfidenceScore)
	assert.Equal(t, "Assam", result[0].Water.State)
	assert.Equal(t, 750, result[0].Water.PeopleAffectedPer5000)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDiseaseBreakdown(t *testing.T) {
	db, mock, repo := setupMockPredictionsDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"predicted_disease", "count"}).
		AddRow("Cholera", 3).
		AddRow("None", 10).
		AddRow("Typhoid", 2)

	mock.ExpectQuery(`SELECT predicted_disease, COUNT`).WillReturnRows(rows)

	result, err := repo.DiseaseBreakdown(context.Background())

	require.NoError(t, err)
	require.Len(t, result, 3)
	// 疾病名升序
	assert.Equal(t, "Cholera", result[0].Disease)
	assert.Equal(t, "None", result[1].Disease)
	assert.Equal(t, 10, result[1].Count)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStateStatistics(t *testing.T) {
	db, mock, repo := setupMockPredictionsDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"predicted_disease", "count", "avg_ph", "avg_turbidity", "avg_tds"}).
		AddRow("Cholera", 2, 5.65, 9.5, 175.0).
		AddRow("None", 4, 7.1, 2.4, 450.0)

	mock.ExpectQuery(`SELECT p.predicted_disease, COUNT`).
		WithArgs("Assam").
		WillReturnRows(rows)

	result, err := repo.StateStatistics(context.Background(), "Assam")

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Cholera", result[0].Disease)
	require.NotNil(t, result[0].AvgPH)
	assert.InDelta(t, 5.65, *result[0].AvgPH, 0.001)

	require.NoError(t, mock.ExpectationsWereMet())
}
