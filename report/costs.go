package report

import "github.com/signalsfoundry/gridprep/network"

// CostKey identifies one cost figure: the component table it comes from, the
// cost kind and the carrier.
type CostKey struct {
	Component string // "lines", "links", "generators", "storage_units", "stores"
	Kind      string // "capital" or "marginal"
	Carrier   string
}

// Costs maps cost keys to summed values.
type Costs map[CostKey]float64

const (
	KindCapital  = "capital"
	KindMarginal = "marginal"
)

// AggregateCosts sums capital and marginal costs per component and carrier.
// Capital cost is capacity times specific capital cost, using the optimised
// capacity unless existingOnly is set. Marginal cost is total dispatched
// energy times specific marginal cost; for storage units only net producers
// count, so charging losses do not show up as negative cost. Lines carry no
// marginal cost.
func AggregateCosts(n *network.Network, existingOnly bool) Costs {
	out := make(Costs)

	capacity := func(nom, opt float64) float64 {
		if existingOnly {
			return nom
		}
		return opt
	}

	for _, l := range n.Lines() {
		out[CostKey{"lines", KindCapital, l.Carrier}] += capacity(l.SNom, l.SNomOpt) * l.CapitalCost
	}
	for _, l := range n.Links() {
		out[CostKey{"links", KindCapital, l.Carrier}] += capacity(l.PNom, l.PNomOpt) * l.CapitalCost
		out[CostKey{"links", KindMarginal, l.Carrier}] += sum(l.Dispatch) * l.MarginalCost
	}
	for _, g := range n.Generators() {
		out[CostKey{"generators", KindCapital, g.Carrier}] += capacity(g.PNom, g.PNomOpt) * g.CapitalCost
		out[CostKey{"generators", KindMarginal, g.Carrier}] += sum(g.Dispatch) * g.MarginalCost
	}
	for _, s := range n.StorageUnits() {
		out[CostKey{"storage_units", KindCapital, s.Carrier}] += capacity(s.PNom, s.PNomOpt) * s.CapitalCost
		if p := sum(s.Dispatch); p > 0 {
			out[CostKey{"storage_units", KindMarginal, s.Carrier}] += p * s.MarginalCost
		}
	}
	for _, s := range n.Stores() {
		out[CostKey{"stores", KindCapital, s.Carrier}] += capacity(s.ENom, s.ENomOpt) * s.CapitalCost
		out[CostKey{"stores", KindMarginal, s.Carrier}] += sum(s.Dispatch) * s.MarginalCost
	}
	return out
}

// Flatten collapses the costs into a single carrier-keyed series. Capital
// costs are summed onto the plain carrier key across component tables. A
// marginal cost lands on a separate "<carrier> marginal" key when its carrier
// is one of the supplied conventional technologies, and on the plain carrier
// key otherwise.
func (c Costs) Flatten(convTechs []string) Series {
	conv := make(map[string]struct{}, len(convTechs))
	for _, t := range convTechs {
		conv[t] = struct{}{}
	}

	out := make(Series)
	for key, v := range c {
		name := key.Carrier
		if key.Kind == KindMarginal {
			if _, ok := conv[key.Carrier]; ok {
				name = key.Carrier + " marginal"
			}
		}
		out[name] += v
	}
	return out
}
