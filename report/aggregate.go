// Package report computes carrier-keyed summaries of a network: installed
// capacity, dispatched and curtailed energy, storage capacity, and capital
// plus marginal costs.
package report

import (
	"sort"

	"github.com/signalsfoundry/gridprep/network"
)

// Series maps a carrier (or a derived key) to a value.
type Series map[string]float64

// Keys returns the series keys in sorted order.
func (s Series) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sum(vs []float64) float64 {
	var total float64
	for _, v := range vs {
		total += v
	}
	return total
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	return sum(vs) / float64(len(vs))
}

// AggregateCapacity sums optimised power capacity per carrier across
// generators, storage units and links, plus the time-mean total demand per
// load carrier.
func AggregateCapacity(n *network.Network) Series {
	out := make(Series)
	for _, g := range n.Generators() {
		out[g.Carrier] += g.PNomOpt
	}
	for _, s := range n.StorageUnits() {
		out[s.Carrier] += s.PNomOpt
	}
	for _, l := range n.Links() {
		out[l.Carrier] += l.PNomOpt
	}
	for _, l := range n.Loads() {
		out[l.Carrier] += mean(l.P)
	}
	return out
}

// AggregateDispatch sums dispatched energy per carrier across generators,
// storage units and stores. Demand enters with a negative sign.
func AggregateDispatch(n *network.Network) Series {
	out := make(Series)
	for _, g := range n.Generators() {
		out[g.Carrier] += sum(g.Dispatch)
	}
	for _, s := range n.StorageUnits() {
		out[s.Carrier] += sum(s.Dispatch)
	}
	for _, s := range n.Stores() {
		out[s.Carrier] += sum(s.Dispatch)
	}
	for _, l := range n.Loads() {
		out[l.Carrier] -= sum(l.P)
	}
	return out
}

// AggregateEnergy sums storage energy capacity per carrier: storage units
// contribute p_nom_opt x max_hours, stores contribute e_nom_opt directly.
func AggregateEnergy(n *network.Network) Series {
	out := make(Series)
	for _, s := range n.StorageUnits() {
		out[s.Carrier] += s.PNomOpt * s.MaxHours
	}
	for _, s := range n.Stores() {
		out[s.Carrier] += s.ENomOpt
	}
	return out
}

// AggregateCurtailment sums curtailed energy per carrier. For a variable
// generator the curtailed energy is the available energy (optimised capacity
// times summed availability) minus what was dispatched; generators without an
// availability series are dispatchable and contribute nothing. For a storage
// unit it is spilled inflow.
func AggregateCurtailment(n *network.Network) Series {
	out := make(Series)
	for _, g := range n.Generators() {
		if len(g.PMaxPU) == 0 {
			continue
		}
		available := g.PNomOpt * sum(g.PMaxPU)
		out[g.Carrier] += available - sum(g.Dispatch)
	}
	for _, s := range n.StorageUnits() {
		out[s.Carrier] += sum(s.Inflow) - sum(s.Dispatch)
	}
	return out
}

// UpdatePNomMax lifts each generator's capacity ceiling to at least its
// floor, so a pre-built plant larger than the estimated potential stays
// feasible in the downstream optimisation.
func UpdatePNomMax(n *network.Network) {
	for _, g := range n.Generators() {
		if g.PNomMin > g.PNomMax {
			g.PNomMax = g.PNomMin
		}
	}
}
