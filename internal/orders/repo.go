package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viha/freshmart-api/internal/cart"
	"github.com/viha/freshmart-api/internal/pricing"
)

type Repo struct{ DB *pgxpool.Pool }

// PlaceOrder persists an order from a cart snapshot. Idempotent via
// external_id: a repeat call returns the existing order id (existed=true).
// Item prices come from the frozen cart lines, not from live catalog data.
func (r *Repo) PlaceOrder(ctx context.Context, externalID, sessionID, userID string, lines []cart.Line, totals pricing.Totals) (orderID string, existed bool, err error) {
	row := r.DB.QueryRow(ctx, `SELECT id FROM orders WHERE external_id=$1`, externalID)
	if err = row.Scan(&orderID); err == nil {
		return orderID, true, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderID = uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, external_id, session_id, user_id, status, subtotal, delivery_fee, total)
		VALUES ($1, $2, $3, $4, 'PLACED', $5, $6, $7)
	`, orderID, externalID, sessionID, userID, totals.Subtotal, totals.DeliveryFee, totals.Total)
	if err != nil {
		return "", false, err
	}

	for _, ln := range lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, name, unit, qty, price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, ln.Product.ID, ln.Product.Name, ln.Product.Unit, ln.Quantity, ln.Product.Price,
		)
		if err != nil {
			return "", false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", false, err
	}
	return orderID, false, nil
}

func (r *Repo) GetOrderStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// ListBySession returns the session's orders, newest first (order history view).
func (r *Repo) ListBySession(ctx context.Context, sessionID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, external_id, session_id, user_id, status, subtotal, delivery_fee, total, created_at, updated_at
		FROM orders WHERE session_id=$1 ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.ExternalID, &o.SessionID, &o.UserID, &o.Status,
			&o.Subtotal, &o.DeliveryFee, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// SetStatus applies a status transition, refusing moves the machine forbids.
func (r *Repo) SetStatus(ctx context.Context, orderID string, to Status) error {
	cur, err := r.GetOrderStatus(ctx, orderID)
	if err != nil {
		return err
	}
	if !CanTransition(cur, to) {
		return ErrInvalidTransition
	}
	_, err = r.DB.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, to)
	return err
}

var ErrInvalidTransition = errors.New("invalid order status transition")
