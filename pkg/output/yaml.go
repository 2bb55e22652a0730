package output

import (
	"io"

	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/economics"
	"github.com/iwvelando/finance-planner/pkg/sensitivity"
	"gopkg.in/yaml.v3"
)

type yamlReport struct {
	RunID     string         `yaml:"runId"`
	Products  []yamlProduct  `yaml:"products,omitempty"`
	Scenarios []yamlScenario `yaml:"scenarios,omitempty"`
	CashFlow  *yamlCashFlow  `yaml:"cashflow,omitempty"`
	Warnings  []string       `yaml:"warnings,omitempty"`
}

type yamlProduct struct {
	Name          string                          `yaml:"name"`
	SalePrice     string                          `yaml:"salePrice"`
	Cost          string                          `yaml:"cost"`
	Margin        string                          `yaml:"margin"`
	MarginPercent string                          `yaml:"marginPercent"`
	Volume        int                             `yaml:"volume"`
	FixedCosts    string                          `yaml:"fixedCosts"`
	BreakEven     string                          `yaml:"breakEven"`
	VAT           yamlVAT                         `yaml:"vat"`
	CostByKind    map[string]string               `yaml:"costByKind"`
	Sensitivity   map[string][]yamlSensitivityRow `yaml:"sensitivity"`
}

type yamlVAT struct {
	Net    string        `yaml:"net"`
	VAT    string        `yaml:"vat"`
	Gross  string        `yaml:"gross"`
	ByRate []yamlVATLine `yaml:"byRate,omitempty"`
}

type yamlVATLine struct {
	Rate string `yaml:"rate"`
	Net  string `yaml:"net"`
	VAT  string `yaml:"vat"`
}

type yamlSensitivityRow struct {
	Variation     int    `yaml:"variation"`
	Cost          string `yaml:"cost"`
	Price         string `yaml:"price"`
	Volume        string `yaml:"volume"`
	Margin        string `yaml:"margin"`
	MarginPercent string `yaml:"marginPercent"`
	CA            string `yaml:"ca"`
	Profitability string `yaml:"profitability"`
	Risk          string `yaml:"risk"`
}

type yamlScenario struct {
	Label         string `yaml:"label"`
	Target        string `yaml:"target"`
	CA            string `yaml:"ca,omitempty"`
	Achats        string `yaml:"achats"`
	Charges       string `yaml:"charges"`
	Gross         string `yaml:"gross"`
	Contributions string `yaml:"contributions"`
	Tax           string `yaml:"tax"`
	Net           string `yaml:"net"`
	MarginalRate  string `yaml:"marginalRate"`
	Iterations    int    `yaml:"iterations"`
	Converged     bool   `yaml:"converged"`
}

type yamlCashFlow struct {
	DangerMonth string          `yaml:"dangerMonth,omitempty"`
	MinStress   string          `yaml:"minStress"`
	Months      []yamlCashMonth `yaml:"months"`
}

type yamlCashMonth struct {
	Index       int    `yaml:"index"`
	Month       string `yaml:"month"`
	CumulBase   string `yaml:"cumulBase"`
	CumulStress string `yaml:"cumulStress"`
	Ecart       string `yaml:"ecart"`
	Negative    bool   `yaml:"negative"`
}

// YAMLFormat outputs the report as a YAML document. Amounts are rendered as
// fixed-point strings so no precision is lost to floats.
func YAMLFormat(w io.Writer, report planner.Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(toYAML(report)); err != nil {
		return err
	}
	return encoder.Close()
}

func toYAML(report planner.Report) yamlReport {
	doc := yamlReport{
		RunID:    report.RunID.String(),
		Warnings: report.Warnings,
	}

	for _, product := range report.Products {
		unit := product.Economics
		p := yamlProduct{
			Name:          product.Name,
			SalePrice:     fixed(unit.SalePrice),
			Cost:          fixed(unit.CostToProduce),
			Margin:        fixed(unit.Margin),
			MarginPercent: unit.MarginPercent.StringFixed(constants.DecimalPlaces),
			Volume:        product.Volume,
			FixedCosts:    fixed(product.FixedCosts),
			BreakEven:     product.BreakEven.StringFixed(constants.DecimalPlaces),
			VAT: yamlVAT{
				Net:   fixed(product.VAT.NetTotal),
				VAT:   fixed(product.VAT.VATTotal),
				Gross: fixed(product.VAT.GrossTotal),
			},
			CostByKind:  make(map[string]string, len(economics.Kinds)),
			Sensitivity: make(map[string][]yamlSensitivityRow, len(sensitivity.Axes)),
		}
		for _, line := range product.VAT.ByRate {
			p.VAT.ByRate = append(p.VAT.ByRate, yamlVATLine{Rate: line.Rate.String(), Net: fixed(line.Net), VAT: fixed(line.VAT)})
		}
		for _, kind := range economics.Kinds {
			p.CostByKind[string(kind)] = fixed(product.CostByKind[kind])
		}
		for _, axis := range sensitivity.Axes {
			for _, r := range product.Sensitivity.Axis(axis) {
				p.Sensitivity[string(axis)] = append(p.Sensitivity[string(axis)], yamlSensitivityRow{
					Variation:     r.Variation,
					Cost:          fixed(r.CoutRevient),
					Price:         fixed(r.SalePrice),
					Volume:        fixed(r.Volume),
					Margin:        fixed(r.Marge),
					MarginPercent: r.MargePercent.StringFixed(constants.DecimalPlaces),
					CA:            fixed(r.CA),
					Profitability: fixed(r.Rentabilite),
					Risk:          string(r.Risk),
				})
			}
		}
		doc.Products = append(doc.Products, p)
	}

	for _, s := range report.Scenarios {
		row := yamlScenario{
			Label:         s.Label,
			Target:        fixed(s.RevenuNetCible),
			Achats:        fixed(s.AchatsMarchandises),
			Charges:       fixed(s.ChargesProfessionnelles),
			Gross:         fixed(s.RevenuBrut),
			Contributions: fixed(s.CotisationsSociales),
			Tax:           fixed(s.ImpotTotal),
			Net:           fixed(s.ResultatNet),
			MarginalRate:  fixed(s.MarginalRate),
			Iterations:    s.Iterations,
			Converged:     s.Converged,
		}
		if s.CA != nil {
			row.CA = fixed(*s.CA)
		}
		doc.Scenarios = append(doc.Scenarios, row)
	}

	if len(report.CashFlow.Months) > 0 {
		cash := &yamlCashFlow{MinStress: fixed(report.CashFlow.MinStress)}
		cash.DangerMonth, _ = report.CashFlow.DangerMonth()
		for _, m := range report.CashFlow.Months {
			cash.Months = append(cash.Months, yamlCashMonth{
				Index:       m.MonthIndex,
				Month:       m.MonthLabel,
				CumulBase:   fixed(m.CumulBase),
				CumulStress: fixed(m.CumulStress),
				Ecart:       fixed(m.Ecart),
				Negative:    m.IsNegative,
			})
		}
		doc.CashFlow = cash
	}
	return doc
}
