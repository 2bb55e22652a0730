package economics

import (
	"sort"

	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// VATLine groups the items sharing one VAT rate.
type VATLine struct {
	Rate decimal.Decimal
	Net  decimal.Decimal
	VAT  decimal.Decimal
}

// VATSummary is the deductible VAT carried by a set of purchases.
type VATSummary struct {
	NetTotal   decimal.Decimal
	VATTotal   decimal.Decimal
	GrossTotal decimal.Decimal
	// ByRate is sorted by ascending rate.
	ByRate []VATLine
}

// SummarizeVAT totals the purchase VAT of items, grouped by rate.
func SummarizeVAT(items []CostLineItem) (VATSummary, error) {
	snapshot := Snapshot(items)
	if err := validate("economics.SummarizeVAT", snapshot, decimal.Zero); err != nil {
		return VATSummary{}, err
	}

	byRate := make(map[string]*VATLine)
	var order []*VATLine
	summary := VATSummary{NetTotal: decimal.Zero, VATTotal: decimal.Zero}
	for _, item := range snapshot {
		net := item.Total()
		vat := mathutil.ApplyPercentage(net, item.VATRate)

		key := item.VATRate.String()
		line, ok := byRate[key]
		if !ok {
			line = &VATLine{Rate: item.VATRate, Net: decimal.Zero, VAT: decimal.Zero}
			byRate[key] = line
			order = append(order, line)
		}
		line.Net = line.Net.Add(net)
		line.VAT = line.VAT.Add(vat)

		summary.NetTotal = summary.NetTotal.Add(net)
		summary.VATTotal = summary.VATTotal.Add(vat)
	}
	summary.GrossTotal = summary.NetTotal.Add(summary.VATTotal)

	sort.Slice(order, func(i, j int) bool {
		return order[i].Rate.LessThan(order[j].Rate)
	})
	summary.ByRate = make([]VATLine, 0, len(order))
	for _, line := range order {
		summary.ByRate = append(summary.ByRate, *line)
	}
	return summary, nil
}
