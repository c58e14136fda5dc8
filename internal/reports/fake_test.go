package reports

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rgsons/storeops/internal/voucher"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	day, err := time.Parse(dateLayout, s)
	require.NoError(t, err)
	return day
}

type fakeRepo struct {
	mu            sync.Mutex
	columns       []string
	stock         []StockLine
	detail        []DetailLine
	sizes         map[string]int
	storeNames    map[string]string
	transfers     []TransferLine
	err           error
	stockCalls    atomic.Int32
	detailCalls   atomic.Int32
	transferCalls atomic.Int32
	lastStock     ClosingStockFilter
	lastTransfer  TransferFilter
	lastMethod    voucher.PricingMethod
	gate          chan struct{}
}

func (f *fakeRepo) Zones(context.Context) ([]string, error) {
	return []string{"North", "South"}, f.err
}

func (f *fakeRepo) Districts(_ context.Context, zone string) ([]string, error) {
	if zone == "North" {
		return []string{"Agra"}, f.err
	}
	return []string{"Agra", "Chennai"}, f.err
}

func (f *fakeRepo) Columns(context.Context, string, string) ([]string, error) {
	return f.columns, f.err
}

func (f *fakeRepo) ClosingStockLines(ctx context.Context, filter ClosingStockFilter) ([]StockLine, error) {
	f.stockCalls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.lastStock = filter
	f.mu.Unlock()
	return f.stock, f.err
}

func (f *fakeRepo) DetailLines(_ context.Context, _ string, method voucher.PricingMethod) ([]DetailLine, error) {
	f.detailCalls.Add(1)
	f.mu.Lock()
	f.lastMethod = method
	f.mu.Unlock()
	return f.detail, f.err
}

func (f *fakeRepo) SizeOrder(context.Context) (map[string]int, error) {
	return f.sizes, nil
}

func (f *fakeRepo) StoreName(_ context.Context, code string) (string, error) {
	return f.storeNames[code], nil
}

func (f *fakeRepo) TransferLines(_ context.Context, filter TransferFilter) ([]TransferLine, error) {
	f.transferCalls.Add(1)
	f.mu.Lock()
	f.lastTransfer = filter
	f.mu.Unlock()
	return f.transfers, f.err
}

func sampleRepo() *fakeRepo {
	return &fakeRepo{
		columns: []string{"Shirts", "Trousers"},
		stock: []StockLine{
			{District: "Agra", StoreName: "Agra Main", Category: "Shirts", Qty: 10, Amount: d("1000")},
			{District: "Agra", StoreName: "Agra Main", Category: "Trousers", Qty: 5, Amount: d("750")},
		},
		detail: []DetailLine{
			{District: "Agra", StoreName: "Agra Main", Category: "Shirts", ItemName: "Oxford", SizeName: "M", Qty: 3, Rate: d("500")},
		},
		sizes:      map[string]int{"M": 1},
		storeNames: map[string]string{"S01": "Agra Main", "S09": "Empty Store"},
		transfers: []TransferLine{
			{StoNumber: "STO1", Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), FromStore: "S01", ToStore: "S02", ItemName: "Oxford", Quantity: 2, Price: d("500"), Amount: d("1000")},
		},
	}
}
