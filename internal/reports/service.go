package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rgsons/storeops/internal/voucher"
)

// RepositoryPort abstracts the report source queries.
type RepositoryPort interface {
	Zones(ctx context.Context) ([]string, error)
	Districts(ctx context.Context, zone string) ([]string, error)
	Columns(ctx context.Context, zone, district string) ([]string, error)
	ClosingStockLines(ctx context.Context, f ClosingStockFilter) ([]StockLine, error)
	DetailLines(ctx context.Context, storeCode string, method voucher.PricingMethod) ([]DetailLine, error)
	SizeOrder(ctx context.Context) (map[string]int, error)
	StoreName(ctx context.Context, storeCode string) (string, error)
	TransferLines(ctx context.Context, f TransferFilter) ([]TransferLine, error)
}

// ServiceConfig carries optional collaborators.
type ServiceConfig struct {
	Cache    *Cache
	Location *time.Location
	Clock    func() time.Time
	Logger   *slog.Logger
}

// Service assembles reports from repository rows.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	loc    *time.Location
	clock  func() time.Time
	logger *slog.Logger
}

// NewService wires a repository with the cache helper.
func NewService(repo RepositoryPort, cfg ServiceConfig) *Service {
	s := &Service{repo: repo, cache: cfg.Cache, loc: cfg.Location, clock: cfg.Clock, logger: cfg.Logger}
	if s.cache == nil {
		s.cache = NewCache(nil, 0)
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) today() time.Time {
	now := s.clock().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func token(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func (s *Service) cached(ctx context.Context, dest any, loader func(context.Context) (any, error), parts ...string) error {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		s.logger.Warn("report cache unavailable", slog.Any("error", err))
		key = "reports:" + strings.Join(parts, ":")
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

func (s *Service) Zones(ctx context.Context) ([]string, error) {
	var out []string
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.Zones(ctx)
	}, "zones")
	return nonNil(out), err
}

func (s *Service) Districts(ctx context.Context, zone string) ([]string, error) {
	var out []string
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.Districts(ctx, zone)
	}, "districts", token(zone))
	return nonNil(out), err
}

func (s *Service) Columns(ctx context.Context, zone, district string) ([]string, error) {
	var out []string
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.Columns(ctx, zone, district)
	}, "columns", token(zone), token(district))
	return nonNil(out), err
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// ClosingStock builds the store by category summary. Columns and rows load
// concurrently.
func (s *Service) ClosingStock(ctx context.Context, f ClosingStockFilter) (ClosingStockReport, error) {
	if f.Method == "" {
		f.Method = voucher.PricingMRP
	}
	asOf := s.today().Format(dateLayout)
	var report ClosingStockReport
	err := s.cached(ctx, &report, func(ctx context.Context) (any, error) {
		var (
			columns []string
			lines   []StockLine
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			columns, err = s.repo.Columns(gctx, f.Zone, f.District)
			return err
		})
		g.Go(func() error {
			var err error
			lines, err = s.repo.ClosingStockLines(gctx, f)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		out := PivotClosingStock(columns, lines)
		out.AsOf = asOf
		out.Method = string(f.Method)
		return out, nil
	}, "closing", token(f.Zone), token(f.District), string(f.Method), asOf)
	return report, err
}

// Detailed builds one store's category/item/size listing.
func (s *Service) Detailed(ctx context.Context, storeCode string, method voucher.PricingMethod) (DetailedReport, error) {
	storeCode = strings.TrimSpace(storeCode)
	if storeCode == "" {
		return DetailedReport{}, ErrStoreRequired
	}
	if method == "" {
		method = voucher.PricingMRP
	}
	asOf := s.today().Format(dateLayout)
	var report DetailedReport
	err := s.cached(ctx, &report, func(ctx context.Context) (any, error) {
		var (
			lines []DetailLine
			order map[string]int
			name  string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			lines, err = s.repo.DetailLines(gctx, storeCode, method)
			return err
		})
		g.Go(func() error {
			var err error
			order, err = s.repo.SizeOrder(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			name, err = s.repo.StoreName(gctx, storeCode)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		out := GroupDetailed(lines, order)
		out.StoreCode = storeCode
		if out.StoreName == "" {
			out.StoreName = name
		}
		out.ReportDate = asOf
		out.Method = string(method)
		return out, nil
	}, "detailed", storeCode, string(method), asOf)
	return report, err
}

// StockTransfers summarises transfers dated within the filter range.
func (s *Service) StockTransfers(ctx context.Context, f TransferFilter) (TransferReport, error) {
	if f.To.IsZero() {
		f.To = s.today()
	}
	if f.From.IsZero() {
		f.From = time.Date(f.To.Year(), f.To.Month(), 1, 0, 0, 0, 0, f.To.Location())
	}
	if f.From.After(f.To) {
		return TransferReport{}, ErrInvalidRange
	}
	from, to := f.From.Format(dateLayout), f.To.Format(dateLayout)
	var report TransferReport
	err := s.cached(ctx, &report, func(ctx context.Context) (any, error) {
		lines, err := s.repo.TransferLines(ctx, f)
		if err != nil {
			return nil, err
		}
		out := SummariseTransfers(lines)
		out.From, out.To = from, to
		return out, nil
	}, "transfers", from, to, token(f.FromStore), token(f.ToStore))
	return report, err
}

// ExportClosingStock renders the detailed sheet when storeCode is set and
// the summary sheet otherwise.
func (s *Service) ExportClosingStock(ctx context.Context, f ClosingStockFilter, storeCode string) (Export, error) {
	asOf := s.today()
	if strings.TrimSpace(storeCode) != "" {
		report, err := s.Detailed(ctx, storeCode, f.Method)
		if err != nil {
			return Export{}, err
		}
		data, err := DetailedWorkbook(report, asOf)
		if err != nil {
			return Export{}, err
		}
		return Export{Name: exportName("closing-stock-"+report.StoreCode, asOf), Data: data}, nil
	}
	report, err := s.ClosingStock(ctx, f)
	if err != nil {
		return Export{}, err
	}
	data, err := ClosingStockWorkbook(report, f.Zone, f.District, asOf)
	if err != nil {
		return Export{}, err
	}
	return Export{Name: exportName("closing-stock", asOf), Data: data}, nil
}

// ExportStockTransfers renders the transfer report workbook.
func (s *Service) ExportStockTransfers(ctx context.Context, f TransferFilter) (Export, error) {
	report, err := s.StockTransfers(ctx, f)
	if err != nil {
		return Export{}, err
	}
	data, err := TransferWorkbook(report)
	if err != nil {
		return Export{}, err
	}
	return Export{Name: exportName("stock-transfer", s.today()), Data: data}, nil
}

// InvalidateCache drops every cached report.
func (s *Service) InvalidateCache(ctx context.Context) (int64, error) {
	ver, err := s.cache.Bump(ctx)
	if err != nil {
		return 0, fmt.Errorf("reports: bump cache: %w", err)
	}
	s.logger.Info("report cache invalidated", slog.Int64("version", ver))
	return ver, nil
}

func exportName(prefix string, asOf time.Time) string {
	return fmt.Sprintf("%s-%s-%s.xlsx", prefix, asOf.Format(dateLayout), uuid.NewString()[:8])
}
