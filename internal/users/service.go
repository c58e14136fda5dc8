package users

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/rgsons/storeops/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, role string) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	UserNameExists(ctx context.Context, userName string, excludeID int64) (bool, error)
	Insert(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	SetStatus(ctx context.Context, id int64, status bool, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// AuditPort records user administration events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user business logic.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	validate *validator.Validate
	logger   *slog.Logger
	clock    func() time.Time
	cost     int
}

// NewService builds Service. region is the default phone region used to
// validate mobile numbers.
func NewService(repo RepositoryPort, audit AuditPort, region string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		audit:    audit,
		validate: newValidator(region),
		logger:   logger,
		clock:    time.Now,
		cost:     bcrypt.DefaultCost,
	}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx, "")
}

func (s *Service) ListByRole(ctx context.Context, role string) ([]User, error) {
	return s.repo.List(ctx, role)
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// UsernameAvailable reports whether no account uses userName.
func (s *Service) UsernameAvailable(ctx context.Context, userName string) (bool, error) {
	exists, err := s.repo.UserNameExists(ctx, userName, 0)
	return !exists, err
}

func (s *Service) check(in Input) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, shared.ValidationMessage(err))
	}
	return nil
}

// Create registers an account. New accounts are active unless status says otherwise.
func (s *Service) Create(ctx context.Context, in Input) (User, error) {
	in = in.normalised()
	if err := s.check(in); err != nil {
		return User{}, err
	}
	if in.Password == "" {
		return User{}, ErrPasswordRequired
	}
	exists, err := s.repo.UserNameExists(ctx, in.UserName, 0)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrDuplicateUserName
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("users: hash password: %w", err)
	}
	now := s.clock()
	u := User{
		UserName:     in.UserName,
		PasswordHash: string(hash),
		Role:         in.Role,
		Status:       true,
		Mobile:       in.Mobile,
		Email:        in.Email,
		StoreType:    in.StoreType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Status != nil {
		u.Status = *in.Status
	}
	created, err := s.repo.Insert(ctx, u)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, "user.create", created)
	return created, nil
}

// Update edits an account. An empty password keeps the stored hash.
func (s *Service) Update(ctx context.Context, id int64, in Input) (User, error) {
	in = in.normalised()
	if err := s.check(in); err != nil {
		return User{}, err
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	exists, err := s.repo.UserNameExists(ctx, in.UserName, id)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrDuplicateUserName
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return User{}, fmt.Errorf("users: hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	u.UserName = in.UserName
	u.Role = in.Role
	u.Mobile = in.Mobile
	u.Email = in.Email
	u.StoreType = in.StoreType
	if in.Status != nil {
		u.Status = *in.Status
	}
	u.UpdatedAt = s.clock()
	updated, err := s.repo.Update(ctx, u)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, "user.update", updated)
	return updated, nil
}

// SetActive activates or deactivates an account.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetStatus(ctx, id, active, s.clock()); err != nil {
		return err
	}
	action := "user.deactivate"
	if active {
		action = "user.activate"
	}
	s.record(ctx, action, User{ID: id})
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "user.delete", User{ID: id})
	return nil
}

func (s *Service) record(ctx context.Context, action string, u User) {
	if s.audit == nil {
		return
	}
	meta := map[string]any{}
	if u.UserName != "" {
		meta["userName"] = u.UserName
		meta["role"] = u.Role
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "user",
		EntityID: fmt.Sprint(u.ID),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("user audit", slog.String("action", action), slog.Any("error", err))
	}
}
