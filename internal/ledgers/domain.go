package ledgers

import (
	"strings"

	"github.com/rgsons/storeops/internal/platform/httpx"
)

// Ledger status values.
const (
	StatusInactive = 0
	StatusActive   = 1
)

// Ledger is a party/expense head that can be ordered for display on a screen.
// ShortOrder 0 means the ledger is not part of the ordered sequence.
type Ledger struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	ShortOrder int    `json:"shortOrder"`
	Type       string `json:"type"`
	Screen     string `json:"screen"`
	Status     int    `json:"status"`
}

func (l Ledger) OrderID() int64     { return l.ID }
func (l Ledger) OrderName() string  { return l.Name }
func (l Ledger) OrderPosition() int { return l.ShortOrder }

// Input carries the editable fields of a ledger. Status defaults to active.
type Input struct {
	Name   string `json:"name" validate:"required,max=200"`
	Type   string `json:"type" validate:"max=50"`
	Screen string `json:"screen" validate:"max=50"`
	Status *int   `json:"status" validate:"omitempty,oneof=0 1"`
}

func (in Input) normalised() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	in.Screen = strings.TrimSpace(in.Screen)
	return in
}

// OrderView is the split shown on the ordering screen.
type OrderView struct {
	Pool     []Ledger `json:"pool"`
	Sequence []Ledger `json:"sequence"`
}

// DeleteResult reports how a delete was carried out.
type DeleteResult struct {
	ID   int64 `json:"id"`
	Soft bool  `json:"soft"`
}

var (
	// ErrNotFound is returned when the ledger id does not exist.
	ErrNotFound = httpx.NewError(httpx.ErrNotFound, "Ledger not found")
	// ErrDuplicateName is returned when another ledger has the same name ignoring case.
	ErrDuplicateName = httpx.NewError(httpx.ErrDuplicate, "Ledger name already exists.")
	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = httpx.NewError(httpx.ErrValidation, "ledgers: invalid input")
	// ErrInUse is returned by Delete when a foreign key still points at the row.
	ErrInUse = httpx.NewError(httpx.ErrConflict, "Ledger is in use")
	// ErrBusy is returned when a concurrent order save won the row locks.
	ErrBusy = httpx.NewError(httpx.ErrConflict, "Ledger order is being saved by another user, retry shortly")
)
