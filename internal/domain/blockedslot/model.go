package blockedslot

import (
	"time"

	"github.com/google/uuid"
)

// BlockedSlot marks a half-open [StartMinute, EndMinute) window of a
// calendar day as unavailable for booking. A block covering the whole
// day spans [0, 1440).
type BlockedSlot struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Date        time.Time `db:"date" json:"date"`
	StartMinute int       `db:"start_minute" json:"start_minute"`
	EndMinute   int       `db:"end_minute" json:"end_minute"`
	Reason      *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
