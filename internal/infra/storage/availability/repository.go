package availability

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ConsultationService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

const tableName = "availability_windows"

var windowColumns = []string{
	"id",
	"professional_id",
	"window_date",
	"start_time",
	"end_time",
	"created_at",
	"updated_at",
}

// Repository репозиторий окон доступности
type Repository struct {
	db       DBExecutor
	location *time.Location
}

// NewRepository создает новый экземпляр репозитория окон доступности
// location - часовой пояс, в котором интерпретируются дата и время окна
func NewRepository(db DBExecutor, location *time.Location) *Repository {
	if location == nil {
		location = time.UTC
	}
	return &Repository{db: db, location: location}
}

// Create создает окно доступности
func (r *Repository) Create(ctx context.Context, window *domain.AvailabilityWindow) (*domain.AvailabilityWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableName).
		Columns("professional_id", "window_date", "start_time", "end_time").
		Values(window.ProfessionalID, window.Date.Format(domain.DateFormat), window.StartTime, window.EndTime).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&window.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	window.Date = r.normalizeDate(window.Date)
	window.CreatedAt = createdAt.Time
	window.UpdatedAt = updatedAt.Time

	return window, nil
}

// Update обновляет дату и границы окна
func (r *Repository) Update(ctx context.Context, window *domain.AvailabilityWindow) (*domain.AvailabilityWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableName).
		Set("window_date", window.Date.Format(domain.DateFormat)).
		Set("start_time", window.StartTime).
		Set("end_time", window.EndTime).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": window.ID, "deleted_at": nil}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrWindowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	window.Date = r.normalizeDate(window.Date)
	window.UpdatedAt = updatedAt.Time

	return window, nil
}

// Delete мягко удаляет окно (deleted_at)
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableName).
		Set("deleted_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrWindowNotFound
	}

	return nil
}

// GetByID получает окно по ID (удалённые окна не возвращаются)
// В транзакции строка блокируется (FOR UPDATE): бронирование и удаление окна сериализуются
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.AvailabilityWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(windowColumns...).
		From(tableName).
		Where(squirrel.Eq{"id": id, "deleted_at": nil})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	window, err := r.scanWindow(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrWindowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan window: %v", ErrScanRow, err)
	}

	return window, nil
}

// ListByProfessional получает окна профессионала, опционально за период [from, to]
func (r *Repository) ListByProfessional(ctx context.Context, professionalID int64, from, to *time.Time) ([]*domain.AvailabilityWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(windowColumns...).
		From(tableName).
		Where(squirrel.Eq{"professional_id": professionalID, "deleted_at": nil}).
		OrderBy("window_date ASC", "start_time ASC")

	if from != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"window_date": from.Format(domain.DateFormat)})
	}
	if to != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"window_date": to.Format(domain.DateFormat)})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByProfessional - build select query: %v", ErrBuildQuery, err)
	}

	return r.queryWindows(ctx, executor, "ListByProfessional", query, args)
}

// ListOverlapping получает окна профессионала на дату, пересекающиеся с [start, end)
// excludeID > 0 исключает окно из результата (при обновлении)
func (r *Repository) ListOverlapping(
	ctx context.Context,
	professionalID int64,
	date time.Time,
	start, end types.TimeString,
	excludeID int64,
) ([]*domain.AvailabilityWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(windowColumns...).
		From(tableName).
		Where(squirrel.Eq{
			"professional_id": professionalID,
			"window_date":     date.Format(domain.DateFormat),
			"deleted_at":      nil,
		}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start}).
		OrderBy("start_time ASC")

	if excludeID > 0 {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": excludeID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	return r.queryWindows(ctx, executor, "ListOverlapping", query, args)
}

func (r *Repository) queryWindows(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) ([]*domain.AvailabilityWindow, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	windows := make([]*domain.AvailabilityWindow, 0)
	for rows.Next() {
		window, err := r.scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, op, err)
		}
		windows = append(windows, window)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return windows, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanWindow(row rowScanner) (*domain.AvailabilityWindow, error) {
	var window domain.AvailabilityWindow
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&window.ID,
		&window.ProfessionalID,
		&window.Date,
		&window.StartTime,
		&window.EndTime,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	window.Date = r.normalizeDate(window.Date)
	window.CreatedAt = createdAt.Time
	window.UpdatedAt = updatedAt.Time

	return &window, nil
}

// normalizeDate переносит календарную дату в часовой пояс сервиса (полночь)
func (r *Repository) normalizeDate(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.location)
}
