package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pet-grooming-scheduler/internal/domain/scheduling"
)

type SchedulingsRepo struct {
	db *sql.DB
}

func NewSchedulingsRepo(db *sql.DB) *SchedulingsRepo {
	return &SchedulingsRepo{db: db}
}

// statusesBlockingSlot son los estados que retienen el horario.
var statusesBlockingSlot = []string{
	string(scheduling.StatusScheduled),
	string(scheduling.StatusConfirmed),
	string(scheduling.StatusInProgress),
}

// Create inserta cita + líneas dentro de una transacción SERIALIZABLE,
// re-chequeando superposición antes del insert. Dos creaciones
// concurrentes sobre el mismo slot: una comete, la otra ve el conflicto
// (o aborta por serialización y el caller reintenta).
func (r *SchedulingsRepo) Create(ctx context.Context, s scheduling.Scheduling) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(1)
		FROM schedulings
		WHERE status = ANY($1::text[])
		  AND start_at < $2
		  AND end_at > $3
	`, pgTextArray(statusesBlockingSlot), s.Slot.End(), s.Slot.Start()).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return scheduling.ErrSchedulingConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedulings (
			id, customer_id, pet_id,
			start_at, end_at,
			status, total_price, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		s.ID,
		s.CustomerID,
		s.PetID,
		s.Slot.Start(),
		s.Slot.End(),
		string(s.Status),
		s.TotalPrice,
		s.Notes,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertServices(ctx, tx, s.ID, s.Services); err != nil {
		return err
	}

	return tx.Commit()
}

// Save actualiza la fila de la cita y reemplaza sus líneas de servicio.
func (r *SchedulingsRepo) Save(ctx context.Context, s scheduling.Scheduling) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE schedulings SET
			start_at = $2,
			end_at = $3,
			status = $4,
			total_price = $5,
			notes = $6,
			updated_at = $7
		WHERE id = $1
	`,
		s.ID,
		s.Slot.Start(),
		s.Slot.End(),
		string(s.Status),
		s.TotalPrice,
		s.Notes,
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM scheduling_services WHERE scheduling_id = $1`, s.ID); err != nil {
		return err
	}
	if err := insertServices(ctx, tx, s.ID, s.Services); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *SchedulingsRepo) GetByID(ctx context.Context, id string) (scheduling.Scheduling, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return scheduling.Scheduling{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, pet_id, start_at, end_at, status, total_price, notes, created_at, updated_at
		FROM schedulings
		WHERE id = $1
	`, id)

	s, err := scanScheduling(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return scheduling.Scheduling{}, ErrNotFound
		}
		return scheduling.Scheduling{}, err
	}

	services, err := r.loadServices(ctx, s.ID)
	if err != nil {
		return scheduling.Scheduling{}, err
	}
	s.Services = services
	return s, nil
}

func (r *SchedulingsRepo) FindConflicts(ctx context.Context, slot scheduling.TimeSlot, excludeID string) ([]scheduling.Scheduling, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, pet_id, start_at, end_at, status, total_price, notes, created_at, updated_at
		FROM schedulings
		WHERE status = ANY($1::text[])
		  AND start_at < $2
		  AND end_at > $3
		  AND ($4 = '' OR id <> $4)
		ORDER BY start_at
	`, pgTextArray(statusesBlockingSlot), slot.End(), slot.Start(), excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(ctx, rows)
}

func (r *SchedulingsRepo) UpdateStatus(ctx context.Context, id string, status scheduling.Status, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE schedulings SET status = $2, updated_at = $3 WHERE id = $1
	`, id, string(status), updatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SchedulingsRepo) UpdateTimeSlot(ctx context.Context, id string, slot scheduling.TimeSlot, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE schedulings SET start_at = $2, end_at = $3, updated_at = $4 WHERE id = $1
	`, id, slot.Start(), slot.End(), updatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SchedulingsRepo) ListByPeriod(ctx context.Context, from, to time.Time) ([]scheduling.Scheduling, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, pet_id, start_at, end_at, status, total_price, notes, created_at, updated_at
		FROM schedulings
		WHERE start_at < $2 AND end_at > $1
		ORDER BY start_at
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(ctx, rows)
}

func (r *SchedulingsRepo) ListByCustomer(ctx context.Context, customerID string) ([]scheduling.Scheduling, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, pet_id, start_at, end_at, status, total_price, notes, created_at, updated_at
		FROM schedulings
		WHERE customer_id = $1
		ORDER BY start_at
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(ctx, rows)
}

func (r *SchedulingsRepo) ListByPet(ctx context.Context, petID string) ([]scheduling.Scheduling, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, pet_id, start_at, end_at, status, total_price, notes, created_at, updated_at
		FROM schedulings
		WHERE pet_id = $1
		ORDER BY start_at
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(ctx, rows)
}

func (r *SchedulingsRepo) collect(ctx context.Context, rows *sql.Rows) ([]scheduling.Scheduling, error) {
	out := make([]scheduling.Scheduling, 0)
	for rows.Next() {
		s, err := scanScheduling(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		services, err := r.loadServices(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Services = services
	}
	return out, nil
}

func (r *SchedulingsRepo) loadServices(ctx context.Context, schedulingID string) ([]scheduling.ScheduledService, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, service_id, name, unit_price, duration_minutes
		FROM scheduling_services
		WHERE scheduling_id = $1
		ORDER BY position
	`, schedulingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]scheduling.ScheduledService, 0)
	for rows.Next() {
		var sv scheduling.ScheduledService
		if err := rows.Scan(&sv.ID, &sv.ServiceID, &sv.Name, &sv.UnitPrice, &sv.DurationMinutes); err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheduling(row rowScanner) (scheduling.Scheduling, error) {
	var (
		s              scheduling.Scheduling
		startAt, endAt time.Time
		status         string
		total          decimal.Decimal
	)
	if err := row.Scan(
		&s.ID,
		&s.CustomerID,
		&s.PetID,
		&startAt,
		&endAt,
		&status,
		&total,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return scheduling.Scheduling{}, err
	}

	slot, err := scheduling.NewTimeSlot(startAt, endAt)
	if err != nil {
		return scheduling.Scheduling{}, fmt.Errorf("corrupt time slot for scheduling %s: %w", s.ID, err)
	}
	s.Slot = slot
	s.Status = scheduling.Status(status)
	s.TotalPrice = total
	return s, nil
}

func insertServices(ctx context.Context, tx *sql.Tx, schedulingID string, services []scheduling.ScheduledService) error {
	for i, sv := range services {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO scheduling_services (
				id, scheduling_id, service_id, name, unit_price, duration_minutes, position
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, sv.ID, schedulingID, sv.ServiceID, sv.Name, sv.UnitPrice, sv.DurationMinutes, i)
		if err != nil {
			return err
		}
	}
	return nil
}

// pgTextArray arma un literal array para `= ANY($n)`.
func pgTextArray(items []string) string {
	return "{" + strings.Join(items, ",") + "}"
}
