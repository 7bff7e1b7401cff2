package blockedslot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const cols = `id, date, start_minute, end_minute, reason, created_at, updated_at`

func scanBlock(row pgx.Row) (*BlockedSlot, error) {
	var b BlockedSlot
	err := row.Scan(&b.ID, &b.Date, &b.StartMinute, &b.EndMinute, &b.Reason, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *repoPG) Create(ctx context.Context, b *BlockedSlot) error {
	b.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blocked_slot (id, date, start_minute, end_minute, reason)
		VALUES ($1,$2,$3,$4,$5)`,
		b.ID, b.Date, b.StartMinute, b.EndMinute, b.Reason)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*BlockedSlot, error) {
	return scanBlock(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM blocked_slot WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, b *BlockedSlot) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE blocked_slot SET date=$2, start_minute=$3, end_minute=$4, reason=$5, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.Date, b.StartMinute, b.EndMinute, b.Reason)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM blocked_slot WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByDate(ctx context.Context, date time.Time) ([]*BlockedSlot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cols+` FROM blocked_slot WHERE date = $1 ORDER BY start_minute ASC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*BlockedSlot
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *repoPG) ListByRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*BlockedSlot, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM blocked_slot WHERE date BETWEEN $1 AND $2`, from, to).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+cols+` FROM blocked_slot WHERE date BETWEEN $1 AND $2
		 ORDER BY date ASC, start_minute ASC LIMIT $3 OFFSET $4`, from, to, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*BlockedSlot
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}
