package repository

import (
	"context"
	"database/sql"
	"errors"

	"healthtwin-data/internal/domain"
)

// PostgresHealthWorkersRepository 卫生工作者 Repository 实现
type PostgresHealthWorkersRepository struct {
	db *sql.DB
}

// NewPostgresHealthWorkersRepository 创建卫生工作者 Repository
func NewPostgresHealthWorkersRepository(db *sql.DB) *PostgresHealthWorkersRepository {
	return &PostgresHealthWorkersRepository{db: db}
}

// 确保实现了接口
var _ HealthWorkersRepository = (*PostgresHealthWorkersRepository)(nil)

const workerColumns = `id, name, worker_id, role, state, district, contact_phone, password_hash, is_active, created_at`

// ListActive 返回 is_active 的工作者
func (r *PostgresHealthWorkersRepository) ListActive(ctx context.Context, state string) ([]*domain.HealthWorker, error) {
	query := `SELECT ` + workerColumns + ` FROM health_workers WHERE is_active = TRUE`
	args := []interface{}{}
	if state != "" {
		query += ` AND state = $1`
		args = append(args, state)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewPersistenceError("list workers", err)
	}
	defer rows.Close()

	var result []*domain.HealthWorker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, domain.NewPersistenceError("scan worker", err)
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("iterate workers", err)
	}
	return result, nil
}

// CountActive is_active 工作者总数
func (r *PostgresHealthWorkersRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM health_workers WHERE is_active = TRUE`).Scan(&n)
	if err != nil {
		return 0, domain.NewPersistenceError("count workers", err)
	}
	return n, nil
}

// GetByWorkerID 按 worker_id 查找
func (r *PostgresHealthWorkersRepository) GetByWorkerID(ctx context.Context, workerID string) (*domain.HealthWorker, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+workerColumns+` FROM health_workers WHERE worker_id = $1`, workerID)

	w, err := scanWorkerRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.NewPersistenceError("get worker", err)
	}
	return w, nil
}

// SeedIfEmpty 表为空时写入初始数据
func (r *PostgresHealthWorkersRepository) SeedIfEmpty(ctx context.Context, workers []*domain.HealthWorker) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM health_workers`).Scan(&n); err != nil {
		return domain.NewPersistenceError("count workers for seed", err)
	}
	if n > 0 {
		return nil
	}

	for _, w := range workers {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO health_workers (name, worker_id, role, state, district, contact_phone, password_hash, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
			 ON CONFLICT (worker_id) DO NOTHING`,
			w.Name, w.WorkerID, w.Role, w.State, w.District, nullStr(w.ContactPhone), nullStr(w.PasswordHash),
		)
		if err != nil {
			return domain.NewPersistenceError("seed workers", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkerFrom(s rowScanner) (*domain.HealthWorker, error) {
	var w domain.HealthWorker
	var phone, passwordHash sql.NullString
	err := s.Scan(
		&w.ID, &w.Name, &w.WorkerID, &w.Role, &w.State, &w.District,
		&phone, &passwordHash, &w.IsActive, &w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		w.ContactPhone = &phone.String
	}
	if passwordHash.Valid {
		w.PasswordHash = &passwordHash.String
	}
	return &w, nil
}

func scanWorker(rows *sql.Rows) (*domain.HealthWorker, error)   { return scanWorkerFrom(rows) }
func scanWorkerRow(row *sql.Row) (*domain.HealthWorker, error)  { return scanWorkerFrom(row) }
