package repository

import (
	"context"
	"database/sql"
	"time"

	"healthtwin-data/internal/domain"
)

// PostgresPredictionsRepository 预测 Repository 实现
type PostgresPredictionsRepository struct {
	db *sql.DB
}

// NewPostgresPredictionsRepository 创建预测 Repository
func NewPostgresPredictionsRepository(db *sql.DB) *PostgresPredictionsRepository {
	return &PostgresPredictionsRepository{db: db}
}

// 确保实现了接口
var _ PredictionsRepository = (*PostgresPredictionsRepository)(nil)

// SavePrediction 原子落库：采样 + 预测 +（疾病阳性时）报警
func (r *PostgresPredictionsRepository) SavePrediction(ctx context.Context, sample *domain.WaterQualitySample, pred domain.Prediction) (*domain.PredictionRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.NewPersistenceError("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	var waterID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO water_quality_records
		   (ph, turbidity, tds, people_affected_per_5000, location, state, district, collected_by, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		sample.PH, sample.Turbidity, sample.TDS, sample.PeopleAffectedPer5000,
		sample.Location, sample.State, sample.District, sample.CollectedBy, now,
	).Scan(&waterID)
	if err != nil {
		return nil, domain.NewPersistenceError("insert water_quality_records", err)
	}

	record := &domain.PredictionRecord{
		WaterQualityID:   waterID,
		PredictedDisease: pred.Disease,
		HealthAlert:      pred.HealthAlert,
		ModelVersion:     "1.0",
		Timestamp:        now,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO prediction_records
		   (water_quality_id, predicted_disease, health_alert, model_version, timestamp)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		record.WaterQualityID, record.PredictedDisease, record.HealthAlert, record.ModelVersion, now,
	).Scan(&record.ID)
	if err != nil {
		return nil, domain.NewPersistenceError("insert prediction_records", err)
	}

	// 疾病阳性 → 创建 ACTIVE 报警
	if pred.Disease != domain.DiseaseNone {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO health_alerts (prediction_id, alert_level, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $4)`,
			record.ID, pred.AlertLevel, domain.AlertStatusActive, now,
		)
		if err != nil {
			return nil, domain.NewPersistenceError("insert health_alerts", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.NewPersistenceError("commit tx", err)
	}

	sample.ID = waterID
	sample.Timestamp = now
	return record, nil
}

// ListRecords 按时间倒序返回预测+采样连接行
func (r *PostgresPredictionsRepository) ListRecords(ctx context.Context, limit int, state string) ([]*RecordJoin, error) {
	query := `SELECT p.id, p.water_quality_id, p.predicted_disease, p.health_alert, p.confidence_score, p.model_version, p.timestamp,
	                 w.id, w.ph, w.turbidity, w.tds, w.people_affected_per_5000,
	                 w.location, w.state, w.district, w.collected_by, w.timestamp
	          FROM prediction_records p
	          JOIN water_quality_records w ON w.id = p.water_quality_id`
	args := []interface{}{}
	if state != "" {
		query += ` WHERE w.state = $1`
		args = append(args, state)
	}
	query += ` ORDER BY p.timestamp DESC LIMIT $` + itoa(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewPersistenceError("list records", err)
	}
	defer rows.Close()

	var result []*RecordJoin
	for rows.Next() {
		var j RecordJoin
		var confidence sql.NullFloat64
		var location, st, district, collectedBy sql.NullString
		err := rows.Scan(
			&j.Prediction.ID, &j.Prediction.WaterQualityID, &j.Prediction.PredictedDisease,
			&j.Prediction.HealthAlert, &confidence, &j.Prediction.ModelVersion, &j.Prediction.Timestamp,
			&j.Water.ID, &j.Water.PH, &j.Water.Turbidity, &j.Water.TDS, &j.Water.PeopleAffectedPer5000,
			&location, &st, &district, &collectedBy, &j.Water.Timestamp,
		)
		if err != nil {
			return nil, domain.NewPersistenceError("scan record", err)
		}
		if confidence.Valid {
			j.Prediction.ConfidenceScore = &confidence.Float64
		}
		j.Water.Location = location.String
		j.Water.State = st.String
		j.Water.District = district.String
		j.Water.CollectedBy = collectedBy.String
		result = append(result, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("iterate records", err)
	}
	return result, nil
}

// ListAlerts 按创建时间倒序返回报警（JOIN 预测、采样和指派工作者）
func (r *PostgresPredictionsRepository) ListAlerts(ctx context.Context, status, state string) ([]*AlertJoin, error) {
	query := `SELECT a.id, a.prediction_id, a.alert_level, a.status, a.assigned_to, a.notes, a.created_at, a.updated_at,
	                 p.id, p.predicted_disease, p.health_alert, p.timestamp,
	                 w.id, w.state, w.district, w.location,
	                 hw.id, hw.name, hw.worker_id, hw.role, hw.state, hw.district
	          FROM health_alerts a
	          JOIN prediction_records p ON p.id = a.prediction_id
	          JOIN water_quality_records w ON w.id = p.water_quality_id
	          LEFT JOIN health_workers hw ON hw.id = a.assigned_to
	          WHERE a.status = $1`
	args := []interface{}{status}
	if state != "" {
		query += ` AND w.state = $2`
		args = append(args, state)
	}
	query += ` ORDER BY a.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewPersistenceError("list alerts", err)
	}
	defer rows.Close()

	var result []*AlertJoin
	for rows.Next() {
		var j AlertJoin
		var assignedTo sql.NullInt64
		var notes sql.NullString
		var wState, wDistrict, wLocation sql.NullString
		var hwID sql.NullInt64
		var hwName, hwWorkerID, hwRole, hwState, hwDistrict sql.NullString
		err := rows.Scan(
			&j.Alert.ID, &j.Alert.PredictionID, &j.Alert.AlertLevel, &j.Alert.Status,
			&assignedTo, &notes, &j.Alert.CreatedAt, &j.Alert.UpdatedAt,
			&j.Prediction.ID, &j.Prediction.PredictedDisease, &j.Prediction.HealthAlert, &j.Prediction.Timestamp,
			&j.Water.ID, &wState, &wDistrict, &wLocation,
			&hwID, &hwName, &hwWorkerID, &hwRole, &hwState, &hwDistrict,
		)
		if err != nil {
			return nil, domain.NewPersistenceError("scan alert", err)
		}
		if assignedTo.Valid {
			j.Alert.AssignedTo = &assignedTo.Int64
		}
		if notes.Valid {
			j.Alert.Notes = &notes.String
		}
		j.Water.State = wState.String
		j.Water.District = wDistrict.String
		j.Water.Location = wLocation.String
		if hwID.Valid {
			j.Worker = &domain.HealthWorker{
				ID:       hwID.Int64,
				Name:     hwName.String,
				WorkerID: hwWorkerID.String,
				Role:     hwRole.String,
				State:    hwState.String,
				District: hwDistrict.String,
			}
		}
		result = append(result, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("iterate alerts", err)
	}
	return result, nil
}

// CountPredictions 预测记录总数
func (r *PostgresPredictionsRepository) CountPredictions(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prediction_records`).Scan(&n)
	if err != nil {
		return 0, domain.NewPersistenceError("count predictions", err)
	}
	return n, nil
}

// CountActiveAlerts ACTIVE 报警数
func (r *PostgresPredictionsRepository) CountActiveAlerts(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM health_alerts WHERE status = $1`, domain.AlertStatusActive).Scan(&n)
	if err != nil {
		return 0, domain.NewPersistenceError("count active alerts", err)
	}
	return n, nil
}

// DiseaseBreakdown 按疾病计数（疾病名升序，结果顺序稳定）
func (r *PostgresPredictionsRepository) DiseaseBreakdown(ctx context.Context) ([]DiseaseCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT predicted_disease, COUNT(*)
		 FROM prediction_records
		 GROUP BY predicted_disease
		 ORDER BY predicted_disease ASC`)
	if err != nil {
		return nil, domain.NewPersistenceError("disease breakdown", err)
	}
	defer rows.Close()

	var result []DiseaseCount
	for rows.Next() {
		var dc DiseaseCount
		if err := rows.Scan(&dc.Disease, &dc.Count); err != nil {
			return nil, domain.NewPersistenceError("scan disease breakdown", err)
		}
		result = append(result, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("iterate disease breakdown", err)
	}
	return result, nil
}

// StateBreakdown 按 state 统计总预测数与疾病阳性数
func (r *PostgresPredictionsRepository) StateBreakdown(ctx context.Context) ([]StateBreakdown, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT COALESCE(w.state, 'Unknown') AS state,
		        COUNT(*) AS total_predictions,
		        COUNT(*) FILTER (WHERE p.predicted_disease <> 'None') AS disease_predictions
		 FROM prediction_records p
		 JOIN water_quality_records w ON w.id = p.water_quality_id
		 GROUP BY COALESCE(w.state, 'Unknown')
		 ORDER BY state ASC`)
	if err != nil {
		return nil, domain.NewPersistenceError("state breakdown", err)
	}
	defer rows.Close()

	var result []StateBreakdown
	for rows.Next() {
		var sb StateBreakdown
		if err := rows.Scan(&sb.State, &sb.TotalPredictions, &sb.DiseasePredictions); err != nil {
			return nil, domain.NewPersistenceError("scan state breakdown", err)
		}
		result = append(result, sb)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("iterate state breakdown", err)
	}
	return result, nil
}

// StateStatistics 指定 state 内按疾病的计数与水质均值
func (r *PostgresPredictionsRepository) StateStatistics(ctx context.Context, state string) ([]DiseaseStateStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.predicted_disease, COUNT(*),
		        AVG(w.ph), AVG(w.turbidity), AVG(w.tds)
		 FROM prediction_records p
		 JOIN water_quality_records w ON w.id = p.water_quality_id
		 WHERE w.state = $1
		 GROUP BY p.predicted_disease
		 ORDER BY p.predicted_disease ASC`, state)
	if err != nil {
		return nil, domain.NewPersistenceError("state statistics", err)
	}
	defer rows.Close()

	var result []DiseaseStateStat
	for rows.Next() {
		var st DiseaseStateStat
		var avgPH, avgTurbidity, avgTDS sql.NullFloat64
		if err := rows.Scan(&st.Disease, &st.Count, &avgPH, &avgTurbidity, &avgTDS); err != nil {
			return nil, domain.NewPersistenceError("scan state statistics", err)
		}
		if avgPH.Valid {
			st.AvgPH = &avgPH.Float64
		}
		if avgTurbidity.Valid {
			st.AvgTurbidity = &avgTurbidity.Float64
		}
		if avgTDS.Valid {
			st.AvgTDS = &avgTDS.Float64
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("iterate state statistics", err)
	}
	return result, nil
}
