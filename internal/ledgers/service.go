package ledgers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rgsons/storeops/internal/ordering"
	"github.com/rgsons/storeops/internal/shared"
)

// RepositoryPort abstracts persistence for the ledger service.
type RepositoryPort interface {
	List(ctx context.Context, filter Filter) ([]Ledger, error)
	Get(ctx context.Context, id int64) (Ledger, error)
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	Insert(ctx context.Context, l Ledger) (Ledger, error)
	Update(ctx context.Context, l Ledger) (Ledger, error)
	Delete(ctx context.Context, id int64) error
	IsReferenced(ctx context.Context, code string) (bool, error)
	DistinctTypes(ctx context.Context) ([]string, error)
	DistinctScreens(ctx context.Context) ([]string, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the order rewrite.
type TxRepository interface {
	LockAll(ctx context.Context) ([]Ledger, error)
	ApplyPositions(ctx context.Context, positions map[int64]int) error
}

// Filter narrows ledger listings. Empty fields match everything; Status nil
// matches any status.
type Filter struct {
	Type   string
	Screen string
	Status *int
}

// SequencePort issues master codes.
type SequencePort interface {
	Next(ctx context.Context, name string) (string, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates ledger maintenance and ordering.
type Service struct {
	repo   RepositoryPort
	seq    SequencePort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, seq SequencePort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, seq: seq, audit: audit, logger: logger}
}

var validate = shared.NewValidator()

func (s *Service) List(ctx context.Context) ([]Ledger, error) {
	return s.repo.List(ctx, Filter{})
}

func (s *Service) ListByScreen(ctx context.Context, screen string) ([]Ledger, error) {
	return s.repo.List(ctx, Filter{Screen: screen})
}

func (s *Service) ListByType(ctx context.Context, typ string) ([]Ledger, error) {
	return s.repo.List(ctx, Filter{Type: typ})
}

// ListActive returns active ledgers for a type and screen.
func (s *Service) ListActive(ctx context.Context, typ, screen string) ([]Ledger, error) {
	active := StatusActive
	return s.repo.List(ctx, Filter{Type: typ, Screen: screen, Status: &active})
}

func (s *Service) Types(ctx context.Context) ([]string, error) {
	return s.repo.DistinctTypes(ctx)
}

func (s *Service) Screens(ctx context.Context) ([]string, error) {
	return s.repo.DistinctScreens(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Ledger, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new ledger with a generated master code.
func (s *Service) Create(ctx context.Context, in Input) (Ledger, error) {
	in = in.normalised()
	if err := validate.Struct(in); err != nil {
		return Ledger{}, fmt.Errorf("%w: %s", ErrInvalidInput, shared.ValidationMessage(err))
	}
	exists, err := s.repo.NameExists(ctx, in.Name, 0)
	if err != nil {
		return Ledger{}, err
	}
	if exists {
		return Ledger{}, ErrDuplicateName
	}
	code, err := s.seq.Next(ctx, shared.MasterSequence)
	if err != nil {
		return Ledger{}, err
	}
	l := Ledger{Code: code, Name: in.Name, Type: in.Type, Screen: in.Screen, Status: StatusActive}
	if in.Status != nil {
		l.Status = *in.Status
	}
	created, err := s.repo.Insert(ctx, l)
	if err != nil {
		return Ledger{}, err
	}
	s.record(ctx, "ledger.create", created.Code, map[string]any{"name": created.Name})
	return created, nil
}

// Update edits a ledger. The code is immutable and the stored order is kept.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Ledger, error) {
	in = in.normalised()
	if err := validate.Struct(in); err != nil {
		return Ledger{}, fmt.Errorf("%w: %s", ErrInvalidInput, shared.ValidationMessage(err))
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Ledger{}, err
	}
	exists, err := s.repo.NameExists(ctx, in.Name, id)
	if err != nil {
		return Ledger{}, err
	}
	if exists {
		return Ledger{}, ErrDuplicateName
	}
	existing.Name = in.Name
	existing.Type = in.Type
	existing.Screen = in.Screen
	if in.Status != nil {
		existing.Status = *in.Status
	}
	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return Ledger{}, err
	}
	s.record(ctx, "ledger.update", updated.Code, map[string]any{"name": updated.Name, "status": updated.Status})
	return updated, nil
}

// Delete removes a ledger, or only deactivates it when transactions refer
// to its code or a foreign key blocks the delete.
func (s *Service) Delete(ctx context.Context, id int64) (DeleteResult, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	used, err := s.repo.IsReferenced(ctx, l.Code)
	if err != nil {
		return DeleteResult{}, err
	}
	if !used {
		err := s.repo.Delete(ctx, id)
		switch {
		case err == nil:
			s.record(ctx, "ledger.delete", l.Code, nil)
			return DeleteResult{ID: id}, nil
		case !errors.Is(err, ErrInUse):
			return DeleteResult{}, err
		}
		s.logger.Warn("ledger still referenced, deactivating", slog.Int64("id", id), slog.Any("error", err))
	}
	l.Status = StatusInactive
	if _, err := s.repo.Update(ctx, l); err != nil {
		return DeleteResult{}, err
	}
	s.record(ctx, "ledger.deactivate", l.Code, nil)
	return DeleteResult{ID: id, Soft: true}, nil
}

// OrderView splits ledgers into the unordered pool and the ordered sequence.
// Type and screen narrow the view when set.
func (s *Service) OrderView(ctx context.Context, typ, screen string) (OrderView, error) {
	all, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return OrderView{}, err
	}
	return viewOf(ordering.New(all), typ, screen), nil
}

// UpdateOrder rewrites every shortOrder from the submitted id list: listed
// ledgers get 1..N in list order and all others 0. The rewrite is a single
// transaction.
func (s *Service) UpdateOrder(ctx context.Context, ids []int64) (OrderView, error) {
	var view OrderView
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		all, err := tx.LockAll(ctx)
		if err != nil {
			return err
		}
		positions := ordering.FromOrder(all, ids).Positions()
		if err := tx.ApplyPositions(ctx, positions); err != nil {
			return err
		}
		for i := range all {
			all[i].ShortOrder = positions[all[i].ID]
		}
		view = viewOf(ordering.New(all), "", "")
		return nil
	})
	if err != nil {
		return OrderView{}, err
	}
	s.record(ctx, "ledger.order", "ledgers", map[string]any{"ordered": len(view.Sequence)})
	return view, nil
}

func viewOf(r *ordering.Reconciler[Ledger], typ, screen string) OrderView {
	if typ != "" || screen != "" {
		r = r.Filter(func(l Ledger) bool {
			return (typ == "" || l.Type == typ) && (screen == "" || l.Screen == screen)
		})
	}
	return OrderView{Pool: nonNil(r.Pool()), Sequence: nonNil(r.Sequence())}
}

func nonNil(in []Ledger) []Ledger {
	if in == nil {
		return []Ledger{}
	}
	return in
}

func (s *Service) record(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "ledger", EntityID: entityID, Meta: meta}); err != nil {
		s.logger.Warn("ledger audit", slog.String("action", action), slog.Any("error", err))
	}
}
