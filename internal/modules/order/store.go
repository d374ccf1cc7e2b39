// README: Order store backed by PostgreSQL.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const orderSelect = `
	SELECT t.order_id, t.user_id, COALESCE(u.username, 'deleted user'), t.product_id,
	       t.total_rental_fee::text, t.down_payment::text, t.remaining_balance::text, t.delivery_fee::text,
	       t.distance_km, t.start_date, t.end_date, t.document,
	       t.status, t.status_version, t.extension_count, t.created_at, t.updated_at
	FROM transactions t
	LEFT JOIN users u ON u.id::text = t.user_id`

func (s *Store) Create(ctx context.Context, o *Order) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO transactions (
			order_id, user_id, product_id,
			total_rental_fee, down_payment, remaining_balance, delivery_fee,
			distance_km, start_date, end_date, document,
			status, status_version, extension_count, created_at, updated_at
		) VALUES (
			$1, $2, $3,
			$4::numeric, $5::numeric, $6::numeric, $7::numeric,
			$8, $9, $10, $11,
			$12, $13, $14, $15, $16
		)`,
		o.Code, o.UserID, o.ProductID,
		o.TotalRentalFee.String(), o.DownPayment.String(), o.RemainingBalance.String(), o.DeliveryFee.String(),
		o.DistanceKm, o.StartDate.Time, o.EndDate.Time, o.Document,
		string(o.Status), o.StatusVersion, o.ExtensionCount, o.CreatedAt, o.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (*Order, error) {
	o, err := scanOrder(s.db.QueryRow(ctx, orderSelect+` WHERE t.order_id = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.list(ctx, orderSelect+` WHERE t.user_id = $1 ORDER BY t.created_at DESC, t.order_id DESC`, userID)
}

func (s *Store) ListAll(ctx context.Context) ([]Order, error) {
	return s.list(ctx, orderSelect+` ORDER BY t.created_at DESC, t.order_id DESC`)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *Store) UpdateStatus(ctx context.Context, code string, from, to Status, version int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE transactions
		SET status = $1,
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE order_id = $2 AND status = $3 AND status_version = $4`,
		string(to), code, string(from), version,
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ApplyExtension(ctx context.Context, code string, from Status, version int64, ext Extension) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE transactions
		SET status = 'extended',
		    status_version = status_version + 1,
		    end_date = $1,
		    total_rental_fee = total_rental_fee + $2::numeric,
		    remaining_balance = remaining_balance + $2::numeric,
		    extension_count = extension_count + 1,
		    updated_at = NOW()
		WHERE order_id = $3 AND status = $4 AND status_version = $5`,
		ext.NewEndDate.Time, ext.AdditionalFee.String(), code, string(from), version,
	)
	if err != nil {
		return false, fmt.Errorf("extend order: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AttachDocument(ctx context.Context, code string, version int64, filename string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE transactions
		SET document = $1,
		    status = 'awaiting_verification',
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE order_id = $2 AND status = 'pending' AND status_version = $3`,
		filename, code, version,
	)
	if err != nil {
		return false, fmt.Errorf("attach document: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_events (
			order_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.OrderCode,
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		e.ActorID,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append order event: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var total, down, remaining, delivery, status string
	var start, end time.Time
	err := row.Scan(
		&o.Code, &o.UserID, &o.Username, &o.ProductID,
		&total, &down, &remaining, &delivery,
		&o.DistanceKm, &start, &end, &o.Document,
		&status, &o.StatusVersion, &o.ExtensionCount, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&o.TotalRentalFee, total},
		{&o.DownPayment, down},
		{&o.RemainingBalance, remaining},
		{&o.DeliveryFee, delivery},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("parse money %q: %w", f.raw, err)
		}
		*f.dst = d
	}
	o.StartDate = NewDate(start)
	o.EndDate = NewDate(end)
	o.Status = Status(status)
	return &o, nil
}
