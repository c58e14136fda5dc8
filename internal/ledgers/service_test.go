package ledgers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rgsons/storeops/internal/shared"
)

type memoryRepo struct {
	mu         sync.Mutex
	ledgers    map[int64]Ledger
	nextID     int64
	referenced map[string]bool
	failDelete error
	failApply  error
}

func newMemoryRepo(seed ...Ledger) *memoryRepo {
	r := &memoryRepo{ledgers: make(map[int64]Ledger), referenced: make(map[string]bool)}
	for _, l := range seed {
		if l.ID > r.nextID {
			r.nextID = l.ID
		}
		r.ledgers[l.ID] = l
	}
	return r
}

func (r *memoryRepo) sorted() []Ledger {
	out := make([]Ledger, 0, len(r.ledgers))
	for _, l := range r.ledgers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memoryRepo) List(_ context.Context, f Filter) ([]Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Ledger, 0)
	for _, l := range r.sorted() {
		if f.Type != "" && l.Type != f.Type {
			continue
		}
		if f.Screen != "" && l.Screen != f.Screen {
			continue
		}
		if f.Status != nil && l.Status != *f.Status {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.ledgers[id]
	if !ok {
		return Ledger{}, ErrNotFound
	}
	return l, nil
}

func (r *memoryRepo) NameExists(_ context.Context, name string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.ledgers {
		if l.ID != excludeID && strings.EqualFold(l.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Insert(_ context.Context, l Ledger) (Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	l.ID = r.nextID
	r.ledgers[l.ID] = l
	return l, nil
}

func (r *memoryRepo) Update(_ context.Context, l Ledger) (Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.ledgers[l.ID]
	if !ok {
		return Ledger{}, ErrNotFound
	}
	existing.Name, existing.Type, existing.Screen, existing.Status = l.Name, l.Type, l.Screen, l.Status
	r.ledgers[l.ID] = existing
	return existing, nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete != nil {
		return r.failDelete
	}
	delete(r.ledgers, id)
	return nil
}

func (r *memoryRepo) IsReferenced(_ context.Context, code string) (bool, error) {
	return r.referenced[code], nil
}

func (r *memoryRepo) distinct(pick func(Ledger) string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, l := range r.ledgers {
		v := pick(l)
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (r *memoryRepo) DistinctTypes(context.Context) ([]string, error) {
	return r.distinct(func(l Ledger) string { return l.Type }), nil
}

func (r *memoryRepo) DistinctScreens(context.Context) ([]string, error) {
	return r.distinct(func(l Ledger) string { return l.Screen }), nil
}

// WithTx runs fn against a copy and swaps it in only on success.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[int64]Ledger, len(r.ledgers))
	for id, l := range r.ledgers {
		snapshot[id] = l
	}
	tx := &memoryTx{rows: snapshot, failApply: r.failApply}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.ledgers = tx.rows
	return nil
}

type memoryTx struct {
	rows      map[int64]Ledger
	failApply error
}

func (t *memoryTx) LockAll(context.Context) ([]Ledger, error) {
	out := make([]Ledger, 0, len(t.rows))
	for _, l := range t.rows {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memoryTx) ApplyPositions(_ context.Context, positions map[int64]int) error {
	for id, l := range t.rows {
		l.ShortOrder = 0
		t.rows[id] = l
	}
	if t.failApply != nil {
		return t.failApply
	}
	for id, pos := range positions {
		if l, ok := t.rows[id]; ok {
			l.ShortOrder = pos
			t.rows[id] = l
		}
	}
	return nil
}

type fakeSequence struct {
	next int
	err  error
}

func (f *fakeSequence) Next(_ context.Context, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if name != shared.MasterSequence {
		return "", fmt.Errorf("unexpected sequence %q", name)
	}
	f.next++
	return fmt.Sprint(f.next), nil
}

type recordingAudit struct {
	actions []string
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

func seedLedgers() []Ledger {
	return []Ledger{
		{ID: 1, Code: "10000", Name: "Cash", Type: "ASSET", Screen: "SALE", Status: 1, ShortOrder: 2},
		{ID: 2, Code: "10001", Name: "bank", Type: "ASSET", Screen: "SALE", Status: 1, ShortOrder: 1},
		{ID: 3, Code: "10002", Name: "Freight", Type: "EXPENSE", Screen: "PURCHASE", Status: 1},
		{ID: 4, Code: "10003", Name: "Discount", Type: "EXPENSE", Screen: "SALE", Status: 0},
	}
}

func newTestService(repo *memoryRepo) (*Service, *fakeSequence, *recordingAudit) {
	seq := &fakeSequence{next: 10009}
	audit := &recordingAudit{}
	return NewService(repo, seq, audit, nil), seq, audit
}

func intPtr(v int) *int { return &v }

func TestCreateAssignsMasterCodeAndActiveStatus(t *testing.T) {
	repo := newMemoryRepo(seedLedgers()...)
	svc, _, audit := newTestService(repo)

	l, err := svc.Create(context.Background(), Input{Name: "  Round Off ", Type: "EXPENSE", Screen: "SALE"})
	require.NoError(t, err)
	require.Equal(t, "10010", l.Code)
	require.Equal(t, "Round Off", l.Name)
	require.Equal(t, StatusActive, l.Status)
	require.Zero(t, l.ShortOrder)
	require.Equal(t, []string{"ledger.create"}, audit.actions)
}

func TestCreateRejectsDuplicateNameIgnoringCase(t *testing.T) {
	repo := newMemoryRepo(seedLedgers()...)
	svc, seq, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), Input{Name: "CASH"})
	require.ErrorIs(t, err, ErrDuplicateName)
	require.Equal(t, 10009, seq.next, "no code consumed on rejection")
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Input{Name: "   "})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), Input{Name: "X", Status: intPtr(5)})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateHonoursExplicitStatus(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())
	l, err := svc.Create(context.Background(), Input{Name: "Old", Status: intPtr(0)})
	require.NoError(t, err)
	require.Equal(t, StatusInactive, l.Status)
}

func TestCreateSequenceFailure(t *testing.T) {
	repo := newMemoryRepo()
	svc, seq, _ := newTestService(repo)
	seq.err = errors.New("sequence down")

	_, err := svc.Create(context.Background(), Input{Name: "Cash"})
	require.Error(t, err)
	require.Empty(t, repo.ledgers)
}

func TestUpdateKeepsCodeAndAllowsOwnName(t *testing.T) {
	repo := newMemoryRepo(seedLedgers()...)
	svc, _, _ := newTestService(repo)

	l, err := svc.Update(context.Background(), 1, Input{Name: "cash", Type: "ASSET", Screen: "PURCHASE"})
	require.NoError(t, err)
	require.Equal(t, "10000", l.Code)
	require.Equal(t, "cash", l.Name)
	require.Equal(t, "PURCHASE", l.Screen)
	require.Equal(t, 2, l.ShortOrder)
	require.Equal(t, StatusActive, l.Status)

	_, err = svc.Update(context.Background(), 1, Input{Name: "Bank"})
	require.ErrorIs(t, err, ErrDuplicateName)

	_, err = svc.Update(context.Background(), 99, Input{Name: "Nope"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteHardWhenUnused(t *testing.T) {
	repo := newMemoryRepo(seedLedgers()...)
	svc, _, _ := newTestService(repo)

	res, err := svc.Delete(context.Background(), 3)
	require.NoError(t, err)
	require.False(t, res.Soft)
	_, ok := repo.ledgers[3]
	require.False(t, ok)
}

func TestDeleteSoftWhenReferenced(t *testing.T) {
	repo := newMemoryRepo(seedLedgers()...)
	repo.referenced["10000"] = true
	svc, _, audit := newTestService(repo)

	res, err := svc.Delete(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, res.Soft)
	require.Equal(t, StatusInactive, repo.ledgers[1].Status)
	require.Equal(t, []string{"ledger.deactivate"}, audit.actions)
}

func TestDeleteFallsBackToSoftWhenStillReferenced(t *testing.T) {
	repo := newMemoryRepo(seedLedgers()...)
	repo.failDelete = fmt.Errorf("%w: fk_tran_ledger", ErrInUse)
	svc, _, audit := newTestService(repo)

	res, err := svc.Delete(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, res.Soft)
	require.Equal(t, StatusInactive, repo.ledgers[3].Status)
	require.Equal(t, []string{"ledger.deactivate"}, audit.actions)
}

func TestDeleteReturnsOtherFailures(t *testing.T) {
	repo := newMemoryRepo(seedLedgers()...)
	timeout := errors.New("ledgers: delete: timeout")
	repo.failDelete = timeout
	svc, _, audit := newTestService(repo)

	_, err := svc.Delete(context.Background(), 3)
	require.ErrorIs(t, err, timeout)
	require.Equal(t, StatusActive, repo.ledgers[3].Status)
	require.Empty(t, audit.actions)
}

func TestDeleteUnknown(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())
	_, err := svc.Delete(context.Background(), 7)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListFilters(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo(seedLedgers()...))
	ctx := context.Background()

	bySale, err := svc.ListByScreen(ctx, "SALE")
	require.NoError(t, err)
	require.Len(t, bySale, 3)

	byExpense, err := svc.ListByType(ctx, "EXPENSE")
	require.NoError(t, err)
	require.Len(t, byExpense, 2)

	active, err := svc.ListActive(ctx, "EXPENSE", "SALE")
	require.NoError(t, err)
	require.Empty(t, active)

	types, err := svc.Types(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"ASSET", "EXPENSE"}, types)

	screens, err := svc.Screens(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"PURCHASE", "SALE"}, screens)
}

func ids(ls []Ledger) []int64 {
	out := make([]int64, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func TestOrderViewSplitsPoolAndSequence(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo(seedLedgers()...))

	view, err := svc.OrderView(context.Background(), "", "")
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1}, ids(view.Sequence))
	require.Equal(t, []int64{4, 3}, ids(view.Pool), "pool sorted by name")

	view, err = svc.OrderView(context.Background(), "", "SALE")
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1}, ids(view.Sequence))
	require.Equal(t, []int64{4}, ids(view.Pool))
}

func TestUpdateOrderRewritesAllPositions(t *testing.T) {
	repo := newMemoryRepo(seedLedgers()...)
	svc, _, audit := newTestService(repo)

	view, err := svc.UpdateOrder(context.Background(), []int64{3, 1, 3, 42})
	require.NoError(t, err)
	require.Equal(t, []int64{3, 1}, ids(view.Sequence))
	require.Equal(t, []int64{2, 4}, ids(view.Pool))

	require.Equal(t, 1, repo.ledgers[3].ShortOrder)
	require.Equal(t, 2, repo.ledgers[1].ShortOrder)
	require.Zero(t, repo.ledgers[2].ShortOrder)
	require.Zero(t, repo.ledgers[4].ShortOrder)
	require.Equal(t, []string{"ledger.order"}, audit.actions)
}

func TestUpdateOrderEmptyClearsSequence(t *testing.T) {
	repo := newMemoryRepo(seedLedgers()...)
	svc, _, _ := newTestService(repo)

	view, err := svc.UpdateOrder(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, view.Sequence)
	for _, l := range repo.ledgers {
		require.Zero(t, l.ShortOrder)
	}
}

func TestUpdateOrderFailureLeavesStoredOrder(t *testing.T) {
	repo := newMemoryRepo(seedLedgers()...)
	repo.failApply = errors.New("write failed")
	svc, _, _ := newTestService(repo)

	_, err := svc.UpdateOrder(context.Background(), []int64{3})
	require.Error(t, err)
	require.Equal(t, 2, repo.ledgers[1].ShortOrder)
	require.Equal(t, 1, repo.ledgers[2].ShortOrder)
	require.Zero(t, repo.ledgers[3].ShortOrder)
}
