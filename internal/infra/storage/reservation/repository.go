package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ConsultationService/pkg/psqlbuilder"
)

const (
	tableName = "reservations"

	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

var reservationColumns = []string{
	"id",
	"availability_window_id",
	"start_time",
	"user_id",
	"professional_id",
	"status",
	"payment_provider",
	"payment_intent_id",
	"amount_cents",
	"currency",
	"status_changed_at",
	"created_at",
	"updated_at",
}

var returningColumns = "RETURNING " + strings.Join(reservationColumns, ", ")

// Repository репозиторий бронирований
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// CreateIfSlotFree создает бронирование, если на слоте нет активного бронирования
// Проверка выполняется частичным уникальным индексом reservations_active_slot_uidx в момент вставки,
// поэтому две конкурентные вставки не могут обе завершиться успешно.
// Нарушение индекса и конфликт сериализации возвращаются как ErrSlotUnavailable.
func (r *Repository) CreateIfSlotFree(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableName).
		Columns(
			"availability_window_id",
			"start_time",
			"user_id",
			"professional_id",
			"status",
		).
		Values(
			reservation.WindowID,
			reservation.StartTime,
			reservation.UserID,
			reservation.ProfessionalID,
			reservation.Status,
		).
		Suffix(returningColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateIfSlotFree - build insert query: %v", ErrBuildQuery, err)
	}

	created, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isSlotConflict(err) {
			return nil, fmt.Errorf("%w: window=%d start=%s", ErrSlotUnavailable, reservation.WindowID, reservation.StartTime)
		}
		return nil, fmt.Errorf("%w: CreateIfSlotFree - execute insert: %v", ErrExecQuery, err)
	}

	return created, nil
}

// GetByID получает бронирование по ID
// В транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From(tableName).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	reservation, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %v", ErrScanRow, err)
	}

	return reservation, nil
}

// GetByPaymentIntent получает бронирование по идентификатору платежа у провайдера
func (r *Repository) GetByPaymentIntent(ctx context.Context, provider domain.PaymentProvider, intentID string) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(reservationColumns...).
		From(tableName).
		Where(squirrel.Eq{"payment_provider": provider, "payment_intent_id": intentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPaymentIntent - build select query: %v", ErrBuildQuery, err)
	}

	reservation, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPaymentIntent - scan reservation: %v", ErrScanRow, err)
	}

	return reservation, nil
}

// UpdateStatus переводит бронирование из статуса from в статус to (compare-and-set)
// Если текущий статус отличается от from, возвращает ErrStatusConflict и ничего не меняет.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to domain.ReservationStatus) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableName).
		Set("status", to).
		Set("status_changed_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		Suffix(returningColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	updated, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, r.missOrConflict(ctx, executor, id)
	}
	if err != nil {
		if isSlotConflict(err) {
			return nil, fmt.Errorf("%w: UpdateStatus id=%d", ErrSlotUnavailable, id)
		}
		return nil, fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	return updated, nil
}

// SetPaymentIntent сохраняет снимок платежа для бронирования в статусе awaiting_payment
func (r *Repository) SetPaymentIntent(
	ctx context.Context,
	id int64,
	provider domain.PaymentProvider,
	intentID string,
	amountCents int64,
	currency string,
) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableName).
		Set("payment_provider", provider).
		Set("payment_intent_id", intentID).
		Set("amount_cents", amountCents).
		Set("currency", currency).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": domain.StatusAwaitingPayment}).
		Suffix(returningColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: SetPaymentIntent - build update query: %v", ErrBuildQuery, err)
	}

	updated, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, r.missOrConflict(ctx, executor, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: SetPaymentIntent - execute update: %v", ErrExecQuery, err)
	}

	return updated, nil
}

// ListByWindow получает бронирования окна
// activeOnly - только бронирования, занимающие слот. В транзакции строки блокируются (FOR UPDATE).
func (r *Repository) ListByWindow(ctx context.Context, windowID int64, activeOnly bool) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From(tableName).
		Where(squirrel.Eq{"availability_window_id": windowID}).
		OrderBy("start_time ASC", "id ASC")

	if activeOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)})
	}

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByWindow - build select query: %v", ErrBuildQuery, err)
	}

	return r.queryReservations(ctx, executor, "ListByWindow", query, args)
}

// ListByUser получает бронирования пользователя, опционально по статусу
func (r *Repository) ListByUser(ctx context.Context, userID int64, status *domain.ReservationStatus) ([]*domain.Reservation, error) {
	return r.listBy(ctx, "ListByUser", "user_id", userID, status)
}

// ListByProfessional получает бронирования профессионала, опционально по статусу
func (r *Repository) ListByProfessional(ctx context.Context, professionalID int64, status *domain.ReservationStatus) ([]*domain.Reservation, error) {
	return r.listBy(ctx, "ListByProfessional", "professional_id", professionalID, status)
}

// ListAwaitingPaymentBefore получает бронирования, ожидающие оплаты с момента раньше before
// Используется для автоматической отмены неоплаченных бронирований
func (r *Repository) ListAwaitingPaymentBefore(ctx context.Context, before time.Time, limit uint64) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From(tableName).
		Where(squirrel.Eq{"status": domain.StatusAwaitingPayment}).
		Where(squirrel.Lt{"status_changed_at": before}).
		OrderBy("status_changed_at ASC")

	if limit > 0 {
		selectBuilder = selectBuilder.Limit(limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListAwaitingPaymentBefore - build select query: %v", ErrBuildQuery, err)
	}

	return r.queryReservations(ctx, executor, "ListAwaitingPaymentBefore", query, args)
}

func (r *Repository) listBy(ctx context.Context, op, column string, id int64, status *domain.ReservationStatus) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From(tableName).
		Where(squirrel.Eq{column: id}).
		OrderBy("created_at DESC", "id DESC")

	// Фильтрация по статусу, если указан
	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	return r.queryReservations(ctx, executor, op, query, args)
}

// missOrConflict различает отсутствие бронирования и конкурентное изменение статуса
func (r *Repository) missOrConflict(ctx context.Context, executor DBExecutor, id int64) error {
	query, args, err := psqlbuilder.Select("status").
		From(tableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: missOrConflict - build select query: %v", ErrBuildQuery, err)
	}

	var current domain.ReservationStatus
	err = executor.QueryRowContext(ctx, query, args...).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrReservationNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: missOrConflict - scan status: %v", ErrScanRow, err)
	}

	return fmt.Errorf("%w: id=%d current=%s", ErrStatusConflict, id, current)
}

func (r *Repository) queryReservations(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) ([]*domain.Reservation, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	reservations := make([]*domain.Reservation, 0)
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, op, err)
		}
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return reservations, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var reservation domain.Reservation
	var statusChangedAt, createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&reservation.ID,
		&reservation.WindowID,
		&reservation.StartTime,
		&reservation.UserID,
		&reservation.ProfessionalID,
		&reservation.Status,
		&reservation.PaymentProvider,
		&reservation.PaymentIntentID,
		&reservation.AmountCents,
		&reservation.Currency,
		&statusChangedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	reservation.StatusChangedAt = statusChangedAt.Time
	reservation.CreatedAt = createdAt.Time
	reservation.UpdatedAt = updatedAt.Time

	return &reservation, nil
}

// isSlotConflict true для нарушения уникального индекса и конфликта сериализации
func isSlotConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation, pqSerializationFailure, pqDeadlockDetected:
		return true
	}
	return false
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}
