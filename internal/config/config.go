// Package config defines the data structures of a plan file and includes
// functions for loading, normalizing and validating it.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// DateTimeLayout is the month format expected in plan files.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds a whole plan for finance-planner.
type Configuration struct {
	Logging     LoggingConfig     `yaml:"logging,omitempty" mapstructure:"logging"`
	Output      OutputConfig      `yaml:"output,omitempty" mapstructure:"output"`
	Tax         TaxConfig         `yaml:"tax" mapstructure:"tax"`
	Solver      SolverConfig      `yaml:"solver,omitempty" mapstructure:"solver"`
	Sensitivity SensitivityConfig `yaml:"sensitivity,omitempty" mapstructure:"sensitivity"`
	Products    []Product         `yaml:"products" mapstructure:"products"`
	Targets     []Target          `yaml:"targets,omitempty" mapstructure:"targets"`
	CashFlow    CashFlowConfig    `yaml:"cashflow,omitempty" mapstructure:"cashflow"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, yaml
}

// Product is one sold product and its recipe. Volume is in units per month.
type Product struct {
	Name       string     `yaml:"name" mapstructure:"name"`
	SalePrice  float64    `yaml:"salePrice" mapstructure:"salePrice"`
	Volume     int        `yaml:"volume" mapstructure:"volume"`
	FixedCosts float64    `yaml:"fixedCosts,omitempty" mapstructure:"fixedCosts"`
	Items      []LineItem `yaml:"items" mapstructure:"items"`
}

// LineItem is one costed input of a product. VATRate is a percentage.
type LineItem struct {
	Name     string  `yaml:"name" mapstructure:"name"`
	Kind     string  `yaml:"kind" mapstructure:"kind"`
	Quantity float64 `yaml:"quantity" mapstructure:"quantity"`
	UnitCost float64 `yaml:"unitCost" mapstructure:"unitCost"`
	VATRate  float64 `yaml:"vatRate,omitempty" mapstructure:"vatRate"`
}

// Target is one net income objective to solve revenue for. When
// AchatsFromProducts is set, yearly purchases are derived from the product
// costs and volumes instead of Achats.
type Target struct {
	Label              string  `yaml:"label" mapstructure:"label"`
	NetIncome          float64 `yaml:"netIncome" mapstructure:"netIncome"`
	Achats             float64 `yaml:"achats,omitempty" mapstructure:"achats"`
	Charges            float64 `yaml:"charges,omitempty" mapstructure:"charges"`
	AchatsFromProducts bool    `yaml:"achatsFromProducts,omitempty" mapstructure:"achatsFromProducts"`
}

// SensitivityConfig holds the percentage variations to sweep.
type SensitivityConfig struct {
	Variations []int `yaml:"variations,omitempty" mapstructure:"variations"`
}

// CashFlowConfig describes the monthly base plan and its stress scenario.
type CashFlowConfig struct {
	StartMonth     string        `yaml:"startMonth,omitempty" mapstructure:"startMonth"`
	OpeningBalance float64       `yaml:"openingBalance,omitempty" mapstructure:"openingBalance"`
	Months         []MonthConfig `yaml:"months,omitempty" mapstructure:"months"`
	Stress         StressConfig  `yaml:"stress,omitempty" mapstructure:"stress"`
}

// MonthConfig is the planned revenue and costs of one month.
type MonthConfig struct {
	Revenue float64 `yaml:"revenue" mapstructure:"revenue"`
	Costs   float64 `yaml:"costs" mapstructure:"costs"`
}

// StressConfig holds the shocks of the stress scenario, in percent.
type StressConfig struct {
	RevenueShock       float64 `yaml:"revenueShock,omitempty" mapstructure:"revenueShock"`
	CostShock          float64 `yaml:"costShock,omitempty" mapstructure:"costShock"`
	PaymentDelayMonths int     `yaml:"paymentDelayMonths,omitempty" mapstructure:"paymentDelayMonths"`
	Policy             string  `yaml:"policy,omitempty" mapstructure:"policy"` // independent, compounding
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// plan there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted plan from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.Normalize()
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Normalize applies defaults to every section.
func (c *Configuration) Normalize() {
	c.Tax.Normalize()
	c.Solver.Normalize()
	c.Sensitivity.Normalize()
	c.CashFlow.Stress.Policy = strings.ToLower(strings.TrimSpace(c.CashFlow.Stress.Policy))
	for i := range c.Products {
		c.Products[i].Name = strings.TrimSpace(c.Products[i].Name)
		for j := range c.Products[i].Items {
			c.Products[i].Items[j].Kind = strings.ToLower(strings.TrimSpace(c.Products[i].Items[j].Kind))
		}
	}
	for i := range c.Targets {
		c.Targets[i].Label = strings.TrimSpace(c.Targets[i].Label)
		if c.Targets[i].Label == "" {
			c.Targets[i].Label = fmt.Sprintf("target %d", i+1)
		}
	}
}

// Validate returns every structural problem of the plan combined into one
// error. Numeric domain rules are enforced again by the engines.
func (c *Configuration) Validate() error {
	var errs error
	errs = multierr.Append(errs, c.Tax.Validate())
	errs = multierr.Append(errs, c.Solver.Validate())

	seen := make(map[string]struct{}, len(c.Products))
	for i, product := range c.Products {
		if product.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("product %d requires a name", i))
		} else if _, dup := seen[product.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("product %q is declared twice", product.Name))
		}
		seen[product.Name] = struct{}{}

		if product.SalePrice < 0 {
			errs = multierr.Append(errs, fmt.Errorf("product %q sale price %.2f cannot be negative", product.Name, product.SalePrice))
		}
		if product.Volume < 0 {
			errs = multierr.Append(errs, fmt.Errorf("product %q volume %d cannot be negative", product.Name, product.Volume))
		}
		for j, item := range product.Items {
			if item.Quantity < 0 || item.UnitCost < 0 || item.VATRate < 0 {
				errs = multierr.Append(errs, fmt.Errorf("product %q item %d (%s) has a negative quantity, cost or VAT rate", product.Name, j, item.Name))
			}
		}
	}

	for _, target := range c.Targets {
		if target.NetIncome < 0 || target.Achats < 0 || target.Charges < 0 {
			errs = multierr.Append(errs, fmt.Errorf("target %q amounts cannot be negative", target.Label))
		}
	}

	if policy := c.CashFlow.Stress.Policy; policy != "" && policy != "independent" && policy != "compounding" {
		errs = multierr.Append(errs, fmt.Errorf("cashflow stress policy %q is not supported", policy))
	}
	if c.CashFlow.Stress.PaymentDelayMonths < 0 {
		errs = multierr.Append(errs, fmt.Errorf("cashflow payment delay %d cannot be negative", c.CashFlow.Stress.PaymentDelayMonths))
	}
	return errs
}

// ValidateConfiguration inspects a loaded plan and returns warnings about
// figures that are legal but probably mistaken.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(c.Products) == 0 {
		warnings = append(warnings, "No products declared - margin and sensitivity reports will be empty")
	}
	for _, product := range c.Products {
		if len(product.Items) == 0 {
			warnings = append(warnings, fmt.Sprintf("Product '%s' has no cost line items", product.Name))
		}
		if product.SalePrice == 0 {
			warnings = append(warnings, fmt.Sprintf("Product '%s' has a zero sale price - margin percentage is undefined", product.Name))
		}
		if product.Volume == 0 {
			warnings = append(warnings, fmt.Sprintf("Product '%s' has a zero monthly volume", product.Name))
		}
	}

	hasZero := false
	for _, v := range c.Sensitivity.Variations {
		if v == 0 {
			hasZero = true
		}
	}
	if !hasZero {
		warnings = append(warnings, "Sensitivity variations do not include 0 - tables will have no baseline row")
	}

	for _, target := range c.Targets {
		if target.AchatsFromProducts && target.Achats != 0 {
			warnings = append(warnings, fmt.Sprintf("Target '%s' sets achats but derives them from products - achats is ignored", target.Label))
		}
	}

	if len(c.CashFlow.Months) == 0 {
		warnings = append(warnings, "No cashflow months declared - stress test will be empty")
	}
	return warnings
}
