package patient

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Phone numbers are stored normalized: optional leading +, digits only.
var phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// A search query counts as a phone prefix from the first few digits.
var queryPhoneRe = regexp.MustCompile(`^\+?[0-9]{3,15}$`)

type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// NormalizePhone strips spaces, dashes and parentheses so that
// "+7 (900) 123-45-67" and "+79001234567" are the same patient.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, phone)
}

func validate(p *Patient) error {
	if strings.TrimSpace(p.FullName) == "" {
		return fmt.Errorf("full_name is required")
	}
	p.Phone = NormalizePhone(p.Phone)
	if !phoneRe.MatchString(p.Phone) {
		return fmt.Errorf("phone %q is not a valid phone number", p.Phone)
	}
	return nil
}

func (d *Directory) Create(ctx context.Context, p *Patient) error {
	if err := validate(p); err != nil {
		return err
	}
	if existing, err := d.repo.GetByPhone(ctx, p.Phone); err == nil && existing != nil {
		return fmt.Errorf("a patient with phone %s already exists", p.Phone)
	}
	return d.repo.Create(ctx, p)
}

func (d *Directory) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return d.repo.GetByID(ctx, id)
}

func (d *Directory) Update(ctx context.Context, p *Patient) error {
	if err := validate(p); err != nil {
		return err
	}
	if existing, err := d.repo.GetByPhone(ctx, p.Phone); err == nil && existing != nil && existing.ID != p.ID {
		return fmt.Errorf("a patient with phone %s already exists", p.Phone)
	}
	return d.repo.Update(ctx, p)
}

func (d *Directory) Delete(ctx context.Context, id uuid.UUID) error {
	return d.repo.Delete(ctx, id)
}

// Search matches names and phones. A query that looks like a phone
// number is normalized first, so "+7 (900) 123" finds the patient
// stored as "+79001234567".
func (d *Directory) Search(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	q = strings.TrimSpace(q)
	if norm := NormalizePhone(q); queryPhoneRe.MatchString(norm) {
		q = norm
	}
	return d.repo.Search(ctx, q, limit, offset)
}
