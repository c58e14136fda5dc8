package users

import (
	"strings"
	"time"

	"github.com/rgsons/storeops/internal/platform/httpx"
)

// User is a login account. The password hash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	UserName     string    `json:"userName"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       bool      `json:"status"`
	Mobile       string    `json:"mobile,omitempty"`
	Email        string    `json:"email,omitempty"`
	StoreType    string    `json:"storeType,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updateAt"`
}

// Input is the create/update payload. Password is optional on update.
type Input struct {
	UserName  string `json:"userName" validate:"required,min=3,max=50"`
	Password  string `json:"password" validate:"omitempty,min=6,max=72"`
	Role      string `json:"role" validate:"required,max=20"`
	Status    *bool  `json:"status"`
	Mobile    string `json:"mobile" validate:"omitempty,min=10,max=15,mobile"`
	Email     string `json:"email" validate:"omitempty,email,max=120"`
	StoreType string `json:"storeType" validate:"max=20"`
}

func (in Input) normalised() Input {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	in.Mobile = strings.TrimSpace(in.Mobile)
	in.Email = strings.TrimSpace(in.Email)
	in.StoreType = strings.TrimSpace(in.StoreType)
	return in
}

var (
	ErrNotFound          = httpx.NewError(httpx.ErrNotFound, "User not found")
	ErrDuplicateUserName = httpx.NewError(httpx.ErrDuplicate, "Username already exists")
	ErrPasswordRequired  = httpx.NewError(httpx.ErrValidation, "password is required")
	ErrInvalidInput      = httpx.NewError(httpx.ErrValidation, "users: invalid input")
)
