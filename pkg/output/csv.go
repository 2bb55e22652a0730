package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/sensitivity"
	"github.com/shopspring/decimal"
)

// CsvFormat outputs in comma-separated value format. Every row starts with
// the name of its section; each section opens with its own header row.
func CsvFormat(w io.Writer, report planner.Report) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"section", "product", "sale_price", "cost", "margin", "margin_percent", "volume", "fixed_costs", "break_even", "vat_net", "vat", "vat_gross"},
	}
	for _, product := range report.Products {
		unit := product.Economics
		rows = append(rows, []string{
			"product", product.Name, fixed(unit.SalePrice), fixed(unit.CostToProduce), fixed(unit.Margin),
			unit.MarginPercent.StringFixed(constants.DecimalPlaces), strconv.Itoa(product.Volume),
			fixed(product.FixedCosts), product.BreakEven.StringFixed(constants.DecimalPlaces),
			fixed(product.VAT.NetTotal), fixed(product.VAT.VATTotal), fixed(product.VAT.GrossTotal),
		})
	}

	rows = append(rows, []string{"section", "product", "axis", "variation", "cost", "price", "volume", "margin", "margin_percent", "ca", "profitability", "risk"})
	for _, product := range report.Products {
		for _, axis := range sensitivity.Axes {
			for _, r := range product.Sensitivity.Axis(axis) {
				rows = append(rows, []string{
					"sensitivity", product.Name, string(axis), strconv.Itoa(r.Variation),
					fixed(r.CoutRevient), fixed(r.SalePrice), fixed(r.Volume), fixed(r.Marge),
					r.MargePercent.StringFixed(constants.DecimalPlaces), fixed(r.CA), fixed(r.Rentabilite), string(r.Risk),
				})
			}
		}
	}

	rows = append(rows, []string{"section", "label", "target", "ca", "achats", "charges", "gross", "contributions", "tax", "net", "marginal_rate", "iterations", "converged"})
	for _, s := range report.Scenarios {
		ca := ""
		if s.CA != nil {
			ca = fixed(*s.CA)
		}
		rows = append(rows, []string{
			"scenario", s.Label, fixed(s.RevenuNetCible), ca, fixed(s.AchatsMarchandises),
			fixed(s.ChargesProfessionnelles), fixed(s.RevenuBrut), fixed(s.CotisationsSociales),
			fixed(s.ImpotTotal), fixed(s.ResultatNet), fixed(s.MarginalRate), strconv.Itoa(s.Iterations), strconv.FormatBool(s.Converged),
		})
	}

	rows = append(rows, []string{"section", "month", "index", "cumul_base", "cumul_stress", "ecart", "negative"})
	for _, m := range report.CashFlow.Months {
		rows = append(rows, []string{
			"cashflow", m.MonthLabel, strconv.Itoa(m.MonthIndex), fixed(m.CumulBase),
			fixed(m.CumulStress), fixed(m.Ecart), strconv.FormatBool(m.IsNegative),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(constants.DecimalPlaces)
}
