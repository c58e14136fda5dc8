// Package reports builds the closing stock and stock transfer reports and
// their spreadsheet exports.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rgsons/storeops/internal/platform/httpx"
	"github.com/rgsons/storeops/internal/voucher"
)

// Money is a decimal amount that serialises as a JSON number with two
// decimal places.
type Money struct {
	decimal.Decimal
}

func money(d decimal.Decimal) Money { return Money{d.Round(2)} }

// MarshalJSON renders the amount unquoted.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// Float returns the amount for spreadsheet cells.
func (m Money) Float() float64 { return m.InexactFloat64() }

// ClosingStockFilter selects stores for the summary report. Empty fields
// match everything.
type ClosingStockFilter struct {
	Zone     string
	District string
	Method   voucher.PricingMethod
}

// StockLine is one district/store/category aggregate from the inventory.
type StockLine struct {
	District  string
	StoreName string
	Category  string
	Qty       float64
	Amount    decimal.Decimal
}

// ClosingStockRow is one store in the summary pivot.
type ClosingStockRow struct {
	District           string             `json:"district"`
	StoreName          string             `json:"storeName"`
	CategoryQuantities map[string]float64 `json:"categoryQuantities"`
	CategoryAmounts    map[string]Money   `json:"categoryAmounts"`
	TotalQty           float64            `json:"totalQty"`
	TotalAmount        Money              `json:"totalAmount"`
}

// ClosingStockReport is the store by category pivot with column totals.
type ClosingStockReport struct {
	AsOf             string             `json:"asOf"`
	Method           string             `json:"valuationMethod"`
	Columns          []string           `json:"columns"`
	Rows             []ClosingStockRow  `json:"rows"`
	ColumnQuantities map[string]float64 `json:"columnQuantities"`
	ColumnAmounts    map[string]Money   `json:"columnAmounts"`
	TotalQty         float64            `json:"totalQty"`
	TotalAmount      Money              `json:"totalAmount"`
}

// DetailLine is one item/size holding of a store.
type DetailLine struct {
	District  string
	StoreName string
	Category  string
	ItemName  string
	SizeName  string
	Qty       float64
	Rate      decimal.Decimal
}

type ItemDetail struct {
	ItemName string  `json:"itemName"`
	SizeName string  `json:"sizeName"`
	Qty      float64 `json:"qty"`
	Rate     Money   `json:"rate"`
	Amount   Money   `json:"amount"`
}

type CategoryGroup struct {
	CategoryName string       `json:"categoryName"`
	TotalQty     float64      `json:"totalQty"`
	TotalAmount  Money        `json:"totalAmount"`
	Items        []ItemDetail `json:"items"`
}

// DetailedReport lists a store's holdings grouped by category.
type DetailedReport struct {
	StoreCode        string          `json:"storeCode"`
	StoreName        string          `json:"storeName"`
	District         string          `json:"district"`
	ReportDate       string          `json:"reportDate"`
	Method           string          `json:"valuationMethod"`
	GrandTotalQty    float64         `json:"grandTotalQty"`
	GrandTotalAmount Money           `json:"grandTotalAmount"`
	Categories       []CategoryGroup `json:"categories"`
	SortedSizes      []string        `json:"sortedSizes"`
}

// TransferFilter selects stock transfers by date range and stores.
type TransferFilter struct {
	From      time.Time
	To        time.Time
	FromStore string
	ToStore   string
}

// TransferLine is one item row of a stock transfer.
type TransferLine struct {
	StoNumber      string
	Date           time.Time
	FromStore      string
	FromStoreName  string
	ToStore        string
	ToStoreName    string
	ReceivedStatus string
	ItemCode       string
	ItemName       string
	SizeName       string
	Quantity       int
	Price          decimal.Decimal
	Amount         decimal.Decimal
}

type TransferItem struct {
	ItemCode string `json:"itemCode"`
	ItemName string `json:"itemName"`
	SizeName string `json:"sizeName"`
	Quantity int    `json:"quantity"`
	Price    Money  `json:"price"`
	Amount   Money  `json:"amount"`
}

// TransferSummary totals one transfer document.
type TransferSummary struct {
	StoNumber      string         `json:"stoNumber"`
	Date           string         `json:"date"`
	FromStore      string         `json:"fromStore"`
	FromStoreName  string         `json:"fromStoreName"`
	ToStore        string         `json:"toStore"`
	ToStoreName    string         `json:"toStoreName"`
	ReceivedStatus string         `json:"receivedStatus"`
	TotalQty       int            `json:"totalQty"`
	TotalAmount    Money          `json:"totalAmount"`
	Items          []TransferItem `json:"items"`
}

// StorePairTotal totals all transfers from one store to another.
type StorePairTotal struct {
	FromStore     string `json:"fromStore"`
	FromStoreName string `json:"fromStoreName"`
	ToStore       string `json:"toStore"`
	ToStoreName   string `json:"toStoreName"`
	Transfers     int    `json:"transfers"`
	TotalQty      int    `json:"totalQty"`
	TotalAmount   Money  `json:"totalAmount"`
}

type TransferReport struct {
	From        string            `json:"from"`
	To          string            `json:"to"`
	Transfers   []TransferSummary `json:"transfers"`
	Pairs       []StorePairTotal  `json:"pairs"`
	TotalQty    int               `json:"totalQty"`
	TotalAmount Money             `json:"totalAmount"`
}

const dateLayout = "2006-01-02"

var (
	ErrStoreRequired  = httpx.NewError(httpx.ErrValidation, "storeCode is required")
	ErrInvalidRange   = httpx.NewError(httpx.ErrValidation, "from date must not be after to date")
	ErrInvalidDate    = httpx.NewError(httpx.ErrValidation, "dates must use YYYY-MM-DD")
	ErrUnknownPricing = httpx.NewError(httpx.ErrValidation, "unknown valuation method")
)
