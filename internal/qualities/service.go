package qualities

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rgsons/storeops/internal/shared"
)

// RepositoryPort abstracts persistence for qualities.
type RepositoryPort interface {
	List(ctx context.Context, filter Filter) ([]Quality, error)
	Get(ctx context.Context, id int64) (Quality, error)
	GetByCode(ctx context.Context, code string) (Quality, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Insert(ctx context.Context, q Quality) (Quality, error)
	Update(ctx context.Context, q Quality) (Quality, error)
	Delete(ctx context.Context, id int64) error
}

// SequencePort issues master codes.
type SequencePort interface {
	Next(ctx context.Context, name string) (string, error)
}

// Service implements quality master maintenance.
type Service struct {
	repo   RepositoryPort
	seq    SequencePort
	logger *slog.Logger
	clock  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, seq SequencePort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, seq: seq, logger: logger, clock: time.Now}
}

var validate = shared.NewValidator()

func (s *Service) List(ctx context.Context) ([]Quality, error) {
	return s.repo.List(ctx, Filter{})
}

func (s *Service) Get(ctx context.Context, id int64) (Quality, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (Quality, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) ListActive(ctx context.Context) ([]Quality, error) {
	return s.ListByStatus(ctx, true)
}

func (s *Service) ListByStatus(ctx context.Context, status bool) ([]Quality, error) {
	return s.repo.List(ctx, Filter{Status: &status})
}

// Search filters by name substring and status; both are optional.
func (s *Service) Search(ctx context.Context, name string, status *bool) ([]Quality, error) {
	return s.repo.List(ctx, Filter{Name: name, Status: status})
}

func (s *Service) Exists(ctx context.Context, code string) (bool, error) {
	return s.repo.CodeExists(ctx, code)
}

// Create stores a quality, drawing the code from the master sequence when blank.
func (s *Service) Create(ctx context.Context, in Input) (Quality, error) {
	in = in.normalised()
	if err := validate.Struct(in); err != nil {
		return Quality{}, fmt.Errorf("%w: %s", ErrInvalidInput, shared.ValidationMessage(err))
	}
	if in.Code == "" {
		code, err := s.seq.Next(ctx, shared.MasterSequence)
		if err != nil {
			return Quality{}, err
		}
		in.Code = code
	}
	exists, err := s.repo.CodeExists(ctx, in.Code)
	if err != nil {
		return Quality{}, err
	}
	if exists {
		return Quality{}, fmt.Errorf("%w: %s", ErrDuplicateCode, in.Code)
	}
	now := s.clock()
	q := Quality{Code: in.Code, Name: in.Name, Status: true, CreatedAt: now, UpdatedAt: now}
	if in.Status != nil {
		q.Status = *in.Status
	}
	return s.repo.Insert(ctx, q)
}

// Update edits a quality. A changed code must not clash with another one;
// a blank code keeps the stored one.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Quality, error) {
	in = in.normalised()
	if err := validate.Struct(in); err != nil {
		return Quality{}, fmt.Errorf("%w: %s", ErrInvalidInput, shared.ValidationMessage(err))
	}
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return Quality{}, err
	}
	if in.Code != "" && in.Code != q.Code {
		exists, err := s.repo.CodeExists(ctx, in.Code)
		if err != nil {
			return Quality{}, err
		}
		if exists {
			return Quality{}, fmt.Errorf("%w: %s", ErrDuplicateCode, in.Code)
		}
		q.Code = in.Code
	}
	q.Name = in.Name
	if in.Status != nil {
		q.Status = *in.Status
	}
	q.UpdatedAt = s.clock()
	return s.repo.Update(ctx, q)
}

// Deactivate is the soft delete.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	q.Status = false
	q.UpdatedAt = s.clock()
	_, err = s.repo.Update(ctx, q)
	return err
}

// Delete removes the row.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("quality deleted", slog.Int64("id", id), slog.String("actor", shared.ActorFromContext(ctx)))
	return nil
}
