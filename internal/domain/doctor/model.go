package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the single doctor record the clinic runs on. The table
// holds exactly one row; repositories upsert rather than insert.
type Profile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Specialty string    `db:"specialty" json:"specialty"`
	Bio       *string   `db:"bio" json:"bio,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	PhotoURL  *string   `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WorkingHours is one weekday's bookable window, in minutes since
// midnight. Weekday follows time.Weekday: 0 is Sunday.
type WorkingHours struct {
	Weekday     int  `db:"weekday" json:"weekday"`
	StartMinute int  `db:"start_minute" json:"start_minute"`
	EndMinute   int  `db:"end_minute" json:"end_minute"`
	Enabled     bool `db:"enabled" json:"enabled"`
}

// WeekSchedule is the full working week, one entry per weekday.
type WeekSchedule [7]WorkingHours
