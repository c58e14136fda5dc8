package reports

import (
	"math"
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// PivotClosingStock folds category aggregates into one row per
// district/store, in first-seen order, and totals every column. Columns
// present in lines but missing from columns are appended in sorted order.
func PivotClosingStock(columns []string, lines []StockLine) ClosingStockReport {
	report := ClosingStockReport{
		Columns:          slices.Clone(columns),
		Rows:             make([]ClosingStockRow, 0),
		ColumnQuantities: make(map[string]float64),
		ColumnAmounts:    make(map[string]Money),
	}
	if report.Columns == nil {
		report.Columns = []string{}
	}
	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		known[c] = struct{}{}
	}
	var extra []string

	type acc struct {
		row     ClosingStockRow
		amounts map[string]decimal.Decimal
		total   decimal.Decimal
	}
	index := make(map[string]int)
	var rows []*acc
	colAmounts := make(map[string]decimal.Decimal)
	grand := decimal.Zero

	for _, l := range lines {
		if _, ok := known[l.Category]; !ok {
			known[l.Category] = struct{}{}
			extra = append(extra, l.Category)
		}
		key := l.District + "|" + l.StoreName
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, &acc{
				row: ClosingStockRow{
					District:           l.District,
					StoreName:          l.StoreName,
					CategoryQuantities: make(map[string]float64),
				},
				amounts: make(map[string]decimal.Decimal),
			})
		}
		a := rows[i]
		a.row.CategoryQuantities[l.Category] += l.Qty
		a.amounts[l.Category] = a.amounts[l.Category].Add(l.Amount)
		a.row.TotalQty += l.Qty
		a.total = a.total.Add(l.Amount)

		report.ColumnQuantities[l.Category] += l.Qty
		colAmounts[l.Category] = colAmounts[l.Category].Add(l.Amount)
		report.TotalQty += l.Qty
		grand = grand.Add(l.Amount)
	}

	sort.Strings(extra)
	report.Columns = append(report.Columns, extra...)
	for _, a := range rows {
		a.row.CategoryAmounts = make(map[string]Money, len(a.amounts))
		for c, amt := range a.amounts {
			a.row.CategoryAmounts[c] = money(amt)
		}
		a.row.TotalAmount = money(a.total)
		report.Rows = append(report.Rows, a.row)
	}
	for c, amt := range colAmounts {
		report.ColumnAmounts[c] = money(amt)
	}
	report.TotalAmount = money(grand)
	return report
}

// GroupDetailed groups a store's lines by category in input order. Sizes
// are ordered by sizeOrder; unknown sizes sort last in first-seen order.
func GroupDetailed(lines []DetailLine, sizeOrder map[string]int) DetailedReport {
	report := DetailedReport{Categories: make([]CategoryGroup, 0), SortedSizes: make([]string, 0)}
	if len(lines) > 0 {
		report.StoreName = lines[0].StoreName
		report.District = lines[0].District
	}
	index := make(map[string]int)
	catTotals := make([]decimal.Decimal, 0)
	seenSize := make(map[string]struct{})
	grand := decimal.Zero

	for _, l := range lines {
		if l.SizeName != "" {
			if _, ok := seenSize[l.SizeName]; !ok {
				seenSize[l.SizeName] = struct{}{}
				report.SortedSizes = append(report.SortedSizes, l.SizeName)
			}
		}
		i, ok := index[l.Category]
		if !ok {
			i = len(report.Categories)
			index[l.Category] = i
			report.Categories = append(report.Categories, CategoryGroup{CategoryName: l.Category, Items: make([]ItemDetail, 0)})
			catTotals = append(catTotals, decimal.Zero)
		}
		amount := l.Rate.Mul(decimal.NewFromFloat(l.Qty))
		g := &report.Categories[i]
		g.Items = append(g.Items, ItemDetail{
			ItemName: l.ItemName,
			SizeName: l.SizeName,
			Qty:      l.Qty,
			Rate:     money(l.Rate),
			Amount:   money(amount),
		})
		g.TotalQty += l.Qty
		catTotals[i] = catTotals[i].Add(amount)
		report.GrandTotalQty += l.Qty
		grand = grand.Add(amount)
	}
	for i := range report.Categories {
		report.Categories[i].TotalAmount = money(catTotals[i])
	}
	report.GrandTotalAmount = money(grand)

	rank := func(size string) int {
		if pos, ok := sizeOrder[size]; ok {
			return pos
		}
		return math.MaxInt
	}
	slices.SortStableFunc(report.SortedSizes, func(a, b string) int {
		ra, rb := rank(a), rank(b)
		switch {
		case ra < rb:
			return -1
		case ra > rb:
			return 1
		}
		return 0
	})
	return report
}

// SummariseTransfers totals transfer lines per document, in first-seen
// order, and per from/to store pair, sorted by store codes.
func SummariseTransfers(lines []TransferLine) TransferReport {
	report := TransferReport{Transfers: make([]TransferSummary, 0), Pairs: make([]StorePairTotal, 0)}

	docIndex := make(map[string]int)
	docAmounts := make([]decimal.Decimal, 0)
	type pairAcc struct {
		total  StorePairTotal
		amount decimal.Decimal
		docs   map[string]struct{}
	}
	pairs := make(map[[2]string]*pairAcc)
	grand := decimal.Zero

	for _, l := range lines {
		i, ok := docIndex[l.StoNumber]
		if !ok {
			i = len(report.Transfers)
			docIndex[l.StoNumber] = i
			date := ""
			if !l.Date.IsZero() {
				date = l.Date.Format(dateLayout)
			}
			report.Transfers = append(report.Transfers, TransferSummary{
				StoNumber:      l.StoNumber,
				Date:           date,
				FromStore:      l.FromStore,
				FromStoreName:  l.FromStoreName,
				ToStore:        l.ToStore,
				ToStoreName:    l.ToStoreName,
				ReceivedStatus: l.ReceivedStatus,
				Items:          make([]TransferItem, 0),
			})
			docAmounts = append(docAmounts, decimal.Zero)
		}
		doc := &report.Transfers[i]
		doc.Items = append(doc.Items, TransferItem{
			ItemCode: l.ItemCode,
			ItemName: l.ItemName,
			SizeName: l.SizeName,
			Quantity: l.Quantity,
			Price:    money(l.Price),
			Amount:   money(l.Amount),
		})
		doc.TotalQty += l.Quantity
		docAmounts[i] = docAmounts[i].Add(l.Amount)

		key := [2]string{l.FromStore, l.ToStore}
		p, ok := pairs[key]
		if !ok {
			p = &pairAcc{
				total: StorePairTotal{
					FromStore:     l.FromStore,
					FromStoreName: l.FromStoreName,
					ToStore:       l.ToStore,
					ToStoreName:   l.ToStoreName,
				},
				docs: make(map[string]struct{}),
			}
			pairs[key] = p
		}
		p.docs[l.StoNumber] = struct{}{}
		p.total.TotalQty += l.Quantity
		p.amount = p.amount.Add(l.Amount)

		report.TotalQty += l.Quantity
		grand = grand.Add(l.Amount)
	}
	for i := range report.Transfers {
		report.Transfers[i].TotalAmount = money(docAmounts[i])
	}
	for _, p := range pairs {
		p.total.Transfers = len(p.docs)
		p.total.TotalAmount = money(p.amount)
		report.Pairs = append(report.Pairs, p.total)
	}
	sort.Slice(report.Pairs, func(i, j int) bool {
		if report.Pairs[i].FromStore != report.Pairs[j].FromStore {
			return report.Pairs[i].FromStore < report.Pairs[j].FromStore
		}
		return report.Pairs[i].ToStore < report.Pairs[j].ToStore
	})
	report.TotalAmount = money(grand)
	return report
}
