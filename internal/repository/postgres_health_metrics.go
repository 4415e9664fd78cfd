package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"healthtwin-data/internal/domain"
)

// PostgresHealthMetricsRepository 生命体征 Repository 实现
type PostgresHealthMetricsRepository struct {
	db *sql.DB
}

// NewPostgresHealthMetricsRepository 创建生命体征 Repository
func NewPostgresHealthMetricsRepository(db *sql.DB) *PostgresHealthMetricsRepository {
	return &PostgresHealthMetricsRepository{db: db}
}

// 确保实现了接口
var _ HealthMetricsRepository = (*PostgresHealthMetricsRepository)(nil)

const healthMetricsColumns = `id, temperature, systolic_bp, diastolic_bp, blood_oxygen,
	patient_name, patient_age, patient_gender, location, state, district, recorded_by, notes, timestamp`

// Create 插入一条记录；缺省的数值字段以 NULL 写入
func (r *PostgresHealthMetricsRepository) Create(ctx context.Context, rec *domain.HealthMetricsRecord) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO health_metrics_records
		   (temperature, systolic_bp, diastolic_bp, blood_oxygen,
		    patient_name, patient_age, patient_gender, location, state, district, recorded_by, notes, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		nullFloat(rec.Temperature), nullInt(rec.SystolicBP), nullInt(rec.DiastolicBP), nullFloat(rec.BloodOxygen),
		nullStr(rec.PatientName), nullInt(rec.PatientAge), nullStr(rec.PatientGender),
		nullStr(rec.Location), nullStr(rec.State), nullStr(rec.District),
		rec.RecordedBy, nullStr(rec.Notes), rec.Timestamp,
	).Scan(&id)
	if err != nil {
		return 0, domain.NewPersistenceError("insert health_metrics_records", err)
	}
	return id, nil
}

// buildFilter 构建 WHERE 子句
func (r *PostgresHealthMetricsRepository) buildFilter(filters HealthMetricsFilters, args *[]interface{}, argN *int) string {
	where := ""
	if filters.State != "" {
		where += fmt.Sprintf(" AND state = $%d", *argN)
		*args = append(*args, filters.State)
		*argN++
	}
	if filters.District != "" {
		where += fmt.Sprintf(" AND district = $%d", *argN)
		*args = append(*args, filters.District)
		*argN++
	}
	return where
}

// List 按时间倒序分页
func (r *PostgresHealthMetricsRepository) List(ctx context.Context, filters HealthMetricsFilters, page, perPage int) ([]*domain.HealthMetricsRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}

	args := []interface{}{}
	argN := 1
	where := r.buildFilter(filters, &args, &argN)

	var total int
	countQuery := `SELECT COUNT(*) FROM health_metrics_records WHERE 1=1` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, domain.NewPersistenceError("count health metrics", err)
	}

	query := fmt.Sprintf(
		`SELECT `+healthMetricsColumns+`
		 FROM health_metrics_records
		 WHERE 1=1%s
		 ORDER BY timestamp DESC
		 LIMIT $%d OFFSET $%d`, where, argN, argN+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, domain.NewPersistenceError("list health metrics", err)
	}
	defer rows.Close()

	var result []*domain.HealthMetricsRecord
	for rows.Next() {
		rec, err := scanHealthMetrics(rows)
		if err != nil {
			return nil, 0, domain.NewPersistenceError("scan health metrics", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.NewPersistenceError("iterate health metrics", err)
	}
	return result, total, nil
}

// Delete 按 id 硬删除
func (r *PostgresHealthMetricsRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM health_metrics_records WHERE id = $1`, id)
	if err != nil {
		return domain.NewPersistenceError("delete health metrics", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.NewPersistenceError("delete health metrics", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Stats 总数、最近 7 天数、各字段均值
// AVG 只统计非 NULL 值，缺省字段天然不进分子也不进分母
func (r *PostgresHealthMetricsRepository) Stats(ctx context.Context, state string) (*HealthMetricsStats, error) {
	args := []interface{}{time.Now().UTC().AddDate(0, 0, -7)}
	where := ""
	if state != "" {
		where = " AND state = $2"
		args = append(args, state)
	}

	query := `SELECT COUNT(*),
	                 COUNT(*) FILTER (WHERE timestamp >= $1),
	                 AVG(temperature), AVG(systolic_bp), AVG(diastolic_bp), AVG(blood_oxygen)
	          FROM health_metrics_records
	          WHERE 1=1` + where

	var stats HealthMetricsStats
	var avgTemp, avgSys, avgDia, avgOxy sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalRecords, &stats.RecentRecords, &avgTemp, &avgSys, &avgDia, &avgOxy,
	)
	if err != nil {
		return nil, domain.NewPersistenceError("health metrics stats", err)
	}
	stats.Average.Temperature = avgTemp.Float64
	stats.Average.SystolicBP = avgSys.Float64
	stats.Average.DiastolicBP = avgDia.Float64
	stats.Average.BloodOxygen = avgOxy.Float64
	return &stats, nil
}

// ListWithNotes notes 非空的记录（症状统计用）
func (r *PostgresHealthMetricsRepository) ListWithNotes(ctx context.Context, state string) ([]*domain.HealthMetricsRecord, error) {
	args := []interface{}{}
	where := ""
	if state != "" {
		where = " AND state = $1"
		args = append(args, state)
	}

	query := `SELECT ` + healthMetricsColumns + `
	          FROM health_metrics_records
	          WHERE notes IS NOT NULL AND btrim(notes) <> ''` + where +
		` ORDER BY timestamp DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewPersistenceError("list notes records", err)
	}
	defer rows.Close()

	var result []*domain.HealthMetricsRecord
	for rows.Next() {
		rec, err := scanHealthMetrics(rows)
		if err != nil {
			return nil, domain.NewPersistenceError("scan notes record", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("iterate notes records", err)
	}
	return result, nil
}

// scanHealthMetrics 从结果集扫描一行记录
func scanHealthMetrics(rows *sql.Rows) (*domain.HealthMetricsRecord, error) {
	var rec domain.HealthMetricsRecord
	var temperature, bloodOxygen sql.NullFloat64
	var systolic, diastolic, age sql.NullInt64
	var name, gender, location, state, district, notes sql.NullString

	err := rows.Scan(
		&rec.ID, &temperature, &systolic, &diastolic, &bloodOxygen,
		&name, &age, &gender, &location, &state, &district, &rec.RecordedBy, &notes, &rec.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	if temperature.Valid {
		rec.Temperature = &temperature.Float64
	}
	if systolic.Valid {
		v := int(systolic.Int64)
		rec.SystolicBP = &v
	}
	if diastolic.Valid {
		v := int(diastolic.Int64)
		rec.DiastolicBP = &v
	}
	if bloodOxygen.Valid {
		rec.BloodOxygen = &bloodOxygen.Float64
	}
	if name.Valid {
		rec.PatientName = &name.String
	}
	if age.Valid {
		v := int(age.Int64)
		rec.PatientAge = &v
	}
	if gender.Valid {
		rec.PatientGender = &gender.String
	}
	if location.Valid {
		rec.Location = &location.String
	}
	if state.Valid {
		rec.State = &state.String
	}
	if district.Valid {
		rec.District = &district.String
	}
	if notes.Valid {
		rec.Notes = &notes.String
	}
	return &rec, nil
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullStr(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
