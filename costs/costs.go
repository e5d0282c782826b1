// Package costs prepares the technology cost table consumed by the model
// build steps: unit corrections, per-technology parameter defaults and the
// annualised fixed cost.
package costs

import (
	"fmt"
	"math"
	"strings"

	"github.com/signalsfoundry/gridprep/tabular"
)

// Options carries the economic assumptions applied while preparing the table.
type Options struct {
	USDToEUR     float64
	DiscountRate float64
	// NYears scales the annualised fixed cost to the modelled horizon.
	NYears float64
	// Lifetime is the fallback lifetime in years for technologies that do not
	// specify one.
	Lifetime float64
}

// ApplyDefaults fills zero-valued options with the usual assumptions.
func (o *Options) ApplyDefaults() {
	if o.USDToEUR == 0 {
		o.USDToEUR = 1
	}
	if o.NYears == 0 {
		o.NYears = 1
	}
	if o.Lifetime == 0 {
		o.Lifetime = 25
	}
}

// TechCosts maps technology -> parameter -> value.
type TechCosts map[string]map[string]float64

// Value returns a parameter for a technology, or 0 when absent.
func (tc TechCosts) Value(tech, param string) float64 {
	return tc[tech][param]
}

// Annuity is the annualisation factor for an investment over n years at
// discount rate r. A zero rate degrades to straight-line depreciation.
func Annuity(n, r float64) float64 {
	if r > 0 {
		return r / (1 - 1/math.Pow(1+r, n))
	}
	return 1 / n
}

// Prepare turns the raw two-level cost table (technology x parameter rows
// with value and unit columns) into a per-technology parameter map.
//
// Values quoted per kW are scaled to per MW, values quoted in USD are
// converted to EUR. Rows sharing a (technology, parameter) pair are summed
// after conversion. Missing parameters are filled with defaults, and a
// "fixed" parameter is derived: the annualised investment plus fixed O&M,
// scaled to the modelled horizon.
func Prepare(t *tabular.Table, opts Options) (TechCosts, error) {
	opts.ApplyDefaults()

	techCol, ok := t.Column("technology")
	if !ok {
		return nil, fmt.Errorf("costs: missing technology column")
	}
	paramCol, ok := t.Column("parameter")
	if !ok {
		return nil, fmt.Errorf("costs: missing parameter column")
	}
	valueCol, ok := t.Column("value")
	if !ok {
		return nil, fmt.Errorf("costs: missing value column")
	}
	unitCol, hasUnit := t.Column("unit")

	out := make(TechCosts)
	for i := range t.Rows {
		tech, param := t.Cell(i, techCol), t.Cell(i, paramCol)
		if tech == "" || param == "" {
			continue
		}

		v, present, err := t.Float(i, valueCol)
		if err != nil {
			return nil, fmt.Errorf("costs: %w", err)
		}
		if !present {
			continue
		}

		if hasUnit {
			unit := t.Cell(i, unitCol)
			if strings.Contains(unit, "/kW") {
				v *= 1e3
			}
			if strings.Contains(unit, "USD") {
				v *= opts.USDToEUR
			}
		}

		params, ok := out[tech]
		if !ok {
			params = make(map[string]float64)
			out[tech] = params
		}
		params[param] += v
	}

	for _, params := range out {
		fillDefaults(params, opts)
		params["fixed"] = (Annuity(params["lifetime"], params["discount rate"]) +
			params["FOM"]/100) * params["investment"] * opts.NYears
	}
	return out, nil
}

func fillDefaults(params map[string]float64, opts Options) {
	defaults := map[string]float64{
		"CO2 intensity": 0,
		"FOM":           0,
		"VOM":           0,
		"discount rate": opts.DiscountRate,
		"efficiency":    1,
		"fuel":          0,
		"investment":    0,
		"lifetime":      opts.Lifetime,
	}
	for param, def := range defaults {
		if _, ok := params[param]; !ok {
			params[param] = def
		}
	}
}

// PrepareFile reads the cost CSV at path and prepares it.
func PrepareFile(path string, opts Options) (TechCosts, error) {
	t, err := tabular.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if t.Empty() {
		return TechCosts{}, nil
	}
	return Prepare(t, opts)
}
