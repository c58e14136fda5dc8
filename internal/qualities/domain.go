package qualities

import (
	"strings"
	"time"

	"github.com/rgsons/storeops/internal/platform/httpx"
)

// Quality is a fabric/material grade used by the item master.
type Quality struct {
	ID        int64     `json:"id"`
	Code      string    `json:"qualityCode"`
	Name      string    `json:"qualityName"`
	Status    bool      `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updateAt"`
}

// Input is the writable part of a quality. A blank code on create is filled
// from the master sequence.
type Input struct {
	Code   string `json:"qualityCode" validate:"max=50"`
	Name   string `json:"qualityName" validate:"required,max=100"`
	Status *bool  `json:"status"`
}

func (in Input) normalised() Input {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	return in
}

// Filter narrows listings. Name matches as a case-insensitive substring.
type Filter struct {
	Name   string
	Status *bool
}

var (
	ErrNotFound      = httpx.NewError(httpx.ErrNotFound, "Quality not found")
	ErrDuplicateCode = httpx.NewError(httpx.ErrDuplicate, "Quality code already exists")
	ErrInvalidInput  = httpx.NewError(httpx.ErrValidation, "qualities: invalid input")
)
