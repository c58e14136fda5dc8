package users

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rgsons/storeops/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	rows   map[int64]User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]User)}
}

func (r *memoryRepo) List(_ context.Context, role string) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]User, 0)
	for id := int64(1); id <= r.nextID; id++ {
		u, ok := r.rows[id]
		if !ok || (role != "" && !strings.EqualFold(u.Role, role)) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) UserNameExists(_ context.Context, name string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.ID != excludeID && u.UserName == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Insert(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.ID = r.nextID
	r.rows[u.ID] = u
	return u, nil
}

func (r *memoryRepo) Update(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[u.ID]; !ok {
		return User{}, ErrNotFound
	}
	r.rows[u.ID] = u
	return u, nil
}

func (r *memoryRepo) SetStatus(_ context.Context, id int64, status bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	u.Status = status
	u.UpdatedAt = at
	r.rows[id] = u
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(repo *memoryRepo) (*Service, *recordingAudit) {
	audit := &recordingAudit{}
	svc := NewService(repo, audit, "IN", nil)
	svc.cost = bcrypt.MinCost
	return svc, audit
}

func validInput() Input {
	return Input{
		UserName: "counter1",
		Password: "secret123",
		Role:     "user",
		Mobile:   "9876543210",
		Email:    "counter1@example.com",
	}
}

func TestCreateHashesPasswordAndDefaultsActive(t *testing.T) {
	repo := newMemoryRepo()
	svc, audit := newTestService(repo)
	ctx := shared.ContextWithSession(context.Background(), &shared.Session{UserName: "admin", Role: "ADMIN"})

	u, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, "USER", u.Role)
	require.True(t, u.Status)
	require.NotEqual(t, "secret123", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")))

	require.Len(t, audit.logs, 1)
	require.Equal(t, "admin", audit.logs[0].Actor)
	require.Equal(t, "user.create", audit.logs[0].Action)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()

	cases := map[string]func(in *Input){
		"short username": func(in *Input) { in.UserName = "ab" },
		"short password": func(in *Input) { in.Password = "12345" },
		"missing role":   func(in *Input) { in.Role = " " },
		"bad email":      func(in *Input) { in.Email = "nope" },
		"short mobile":   func(in *Input) { in.Mobile = "98765" },
		"invalid mobile": func(in *Input) { in.Mobile = "0000000000" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Create(ctx, in)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	in := validInput()
	in.Password = ""
	_, err := svc.Create(ctx, in)
	require.ErrorIs(t, err, ErrPasswordRequired)
}

func TestCreateRejectsDuplicateUserName(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, validInput())
	require.ErrorIs(t, err, ErrDuplicateUserName)

	available, err := svc.UsernameAvailable(ctx, "counter1")
	require.NoError(t, err)
	require.False(t, available)
}

func TestUpdateKeepsPasswordWhenBlank(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	u, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	original := u.PasswordHash

	in := validInput()
	in.Password = ""
	in.Role = "ADMIN"
	in.Status = new(bool)
	updated, err := svc.Update(ctx, u.ID, in)
	require.NoError(t, err)
	require.Equal(t, original, updated.PasswordHash)
	require.Equal(t, "ADMIN", updated.Role)
	require.False(t, updated.Status)

	in.Password = "changed1"
	updated, err = svc.Update(ctx, u.ID, in)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("changed1")))

	_, err = svc.Update(ctx, 99, in)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetActiveAndDelete(t *testing.T) {
	repo := newMemoryRepo()
	svc, audit := newTestService(repo)
	ctx := context.Background()

	u, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, u.ID, false))
	require.False(t, repo.rows[u.ID].Status)
	require.NoError(t, svc.SetActive(ctx, u.ID, true))
	require.True(t, repo.rows[u.ID].Status)

	require.NoError(t, svc.Delete(ctx, u.ID))
	require.ErrorIs(t, svc.Delete(ctx, u.ID), ErrNotFound)
	require.ErrorIs(t, svc.SetActive(ctx, u.ID, true), ErrNotFound)

	actions := make([]string, 0, len(audit.logs))
	for _, l := range audit.logs {
		actions = append(actions, l.Action)
	}
	require.Equal(t, []string{"user.create", "user.deactivate", "user.activate", "user.delete"}, actions)
}

func TestValidMobile(t *testing.T) {
	require.True(t, ValidMobile("9876543210", "IN"))
	require.True(t, ValidMobile("+91 98765 43210", "IN"))
	require.False(t, ValidMobile("12345", "IN"))
	require.False(t, ValidMobile("not a number", "IN"))
}
