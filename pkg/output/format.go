// Package output provides utilities for formatting and displaying planning reports.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/economics"
	"github.com/iwvelando/finance-planner/pkg/format"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/iwvelando/finance-planner/pkg/sensitivity"
	"github.com/iwvelando/finance-planner/pkg/solver"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders report in the named output format.
func Write(w io.Writer, outputFormat string, report planner.Report) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, report)
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatYAML:
		return YAMLFormat(w, report)
	default:
		return fmt.Errorf("unsupported output format %s", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, report planner.Report) error {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	fmt.Fprintf(&b, "=== Planning report %s ===\n", report.RunID)
	for _, product := range report.Products {
		writeProduct(&b, p, product)
	}

	if len(report.Scenarios) > 0 {
		b.WriteString("\n--- Revenue targets ---\n")
		b.WriteString("Label | Target | CA | Achats | Charges | Gross | Contributions | Tax | Net | Marginal | Iterations\n")
		for _, s := range report.Scenarios {
			fmt.Fprintf(&b, "%s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s\n",
				s.Label, format.Currency(s.RevenuNetCible), scenarioCA(s, format.Currency),
				format.Currency(s.AchatsMarchandises), format.Currency(s.ChargesProfessionnelles),
				format.Currency(s.RevenuBrut), format.Currency(s.CotisationsSociales),
				format.Currency(s.ImpotTotal), format.Currency(s.ResultatNet),
				format.Percent(mathutil.Defined(s.MarginalRate)), p.Sprintf("%d", s.Iterations))
		}
	}

	if len(report.CashFlow.Months) > 0 {
		b.WriteString("\n--- Cash flow stress test ---\n")
		b.WriteString("Month   | Base | Stress | Gap | Negative\n")
		for _, m := range report.CashFlow.Months {
			fmt.Fprintf(&b, "%s | %s | %s | %s | %s\n", m.MonthLabel,
				format.Currency(m.CumulBase), format.Currency(m.CumulStress), format.Currency(m.Ecart), yesNo(m.IsNegative))
		}
		if label, ok := report.CashFlow.DangerMonth(); ok {
			fmt.Fprintf(&b, "Danger month: %s (minimum %s)\n", label, format.Currency(report.CashFlow.MinStress))
		} else {
			fmt.Fprintf(&b, "No negative month (minimum %s)\n", format.Currency(report.CashFlow.MinStress))
		}
	}

	if len(report.Warnings) > 0 {
		b.WriteString("\n--- Warnings ---\n")
		for _, warning := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeProduct(b *strings.Builder, p *message.Printer, product planner.ProductReport) {
	unit := product.Economics
	fmt.Fprintf(b, "\n--- Product %s ---\n", product.Name)
	fmt.Fprintf(b, "Sale price   | %s\n", format.Currency(unit.SalePrice))
	fmt.Fprintf(b, "Cost         | %s\n", format.Currency(unit.CostToProduce))
	fmt.Fprintf(b, "Margin       | %s (%s)\n", format.Currency(unit.Margin), format.Percent(unit.MarginPercent))
	fmt.Fprintf(b, "Volume       | %s units / month\n", p.Sprintf("%d", product.Volume))
	fmt.Fprintf(b, "Fixed costs  | %s\n", format.Currency(product.FixedCosts))
	fmt.Fprintf(b, "Break-even   | %s units / month\n", product.BreakEven.StringFixed(constants.DecimalPlaces))
	fmt.Fprintf(b, "VAT          | net %s | VAT %s | gross %s\n",
		format.Currency(product.VAT.NetTotal), format.Currency(product.VAT.VATTotal), format.Currency(product.VAT.GrossTotal))

	kinds := make([]string, 0, len(economics.Kinds))
	for _, kind := range economics.Kinds {
		kinds = append(kinds, fmt.Sprintf("%s %s", kind, format.Currency(product.CostByKind[kind])))
	}
	fmt.Fprintf(b, "Cost by kind | %s\n", strings.Join(kinds, " | "))

	for _, axis := range sensitivity.Axes {
		fmt.Fprintf(b, "\nSensitivity (%s)\n", axis)
		b.WriteString("Variation | Cost | Price | Volume | Margin | Margin % | CA (100 units) | Profitability | Risk\n")
		for _, r := range product.Sensitivity.Axis(axis) {
			fmt.Fprintf(b, "%s | %s | %s | %s | %s | %s | %s | %s | %s\n",
				format.Signed(r.Variation), format.Currency(r.CoutRevient), format.Currency(r.SalePrice),
				format.NumericCurrency(r.Volume), format.Currency(r.Marge), format.Percent(r.MargePercent),
				format.Currency(r.CA), format.Currency(r.Rentabilite), r.Risk)
		}
	}
}

func scenarioCA(s solver.SimulationScenario, render func(decimal.Decimal) string) string {
	if s.CA == nil {
		return "not converged"
	}
	return render(*s.CA)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
