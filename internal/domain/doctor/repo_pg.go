package doctor

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const profileCols = `id, full_name, specialty, bio, phone, email, photo_url, created_at, updated_at`

func (r *repoPG) GetProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `SELECT `+profileCols+` FROM doctor_profile LIMIT 1`).Scan(
		&p.ID, &p.FullName, &p.Specialty, &p.Bio, &p.Phone, &p.Email, &p.PhotoURL,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) SaveProfile(ctx context.Context, p *Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctor_profile (id, full_name, specialty, bio, phone, email, photo_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			full_name=EXCLUDED.full_name, specialty=EXCLUDED.specialty, bio=EXCLUDED.bio,
			phone=EXCLUDED.phone, email=EXCLUDED.email, photo_url=EXCLUDED.photo_url,
			updated_at=NOW()`,
		p.ID, p.FullName, p.Specialty, p.Bio, p.Phone, p.Email, p.PhotoURL)
	return err
}

func (r *repoPG) GetSchedule(ctx context.Context) (WeekSchedule, error) {
	var s WeekSchedule
	for i := range s {
		s[i].Weekday = i
	}
	rows, err := r.pool.Query(ctx,
		`SELECT weekday, start_minute, end_minute, enabled FROM working_hours ORDER BY weekday`)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var wh WorkingHours
		if err := rows.Scan(&wh.Weekday, &wh.StartMinute, &wh.EndMinute, &wh.Enabled); err != nil {
			return s, err
		}
		if wh.Weekday >= 0 && wh.Weekday < len(s) {
			s[wh.Weekday] = wh
		}
	}
	return s, rows.Err()
}

func (r *repoPG) SaveSchedule(ctx context.Context, s WeekSchedule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, wh := range s {
		if _, err := tx.Exec(ctx, `
			INSERT INTO working_hours (weekday, start_minute, end_minute, enabled)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (weekday) DO UPDATE SET
				start_minute=EXCLUDED.start_minute, end_minute=EXCLUDED.end_minute,
				enabled=EXCLUDED.enabled`,
			wh.Weekday, wh.StartMinute, wh.EndMinute, wh.Enabled); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
