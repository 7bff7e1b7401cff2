package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table: one person the clinic books
// appointments for. Phone is the primary contact channel and is unique
// per patient.
type Patient struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	FullName       string     `db:"full_name" json:"full_name"`
	Phone          string     `db:"phone" json:"phone"`
	Email          *string    `db:"email" json:"email,omitempty"`
	TelegramChatID *int64     `db:"telegram_chat_id" json:"telegram_chat_id,omitempty"`
	BirthDate      *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
