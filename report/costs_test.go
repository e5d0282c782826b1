package report

import (
	"testing"

	"github.com/signalsfoundry/gridprep/network"
)

func costNetwork(t *testing.T) *network.Network {
	t.Helper()

	n := network.New()
	for _, id := range []string{"a", "b"} {
		if err := n.AddBus(&network.Bus{ID: id}); err != nil {
			t.Fatalf("AddBus(%s): %v", id, err)
		}
	}

	adds := []error{
		n.AddLine(&network.Line{
			ID: "l1", Bus0: "a", Bus1: "b", Carrier: "AC",
			SNom: 100, SNomOpt: 150, CapitalCost: 2,
		}),
		n.AddLink(&network.Link{
			ID: "dc1", Bus0: "a", Bus1: "b", Carrier: "DC",
			PNom: 50, PNomOpt: 80, CapitalCost: 3, MarginalCost: 0.1,
			Dispatch: []float64{10, 10},
		}),
		n.AddGenerator(&network.Generator{
			ID: "g-coal", Bus: "a", Carrier: "coal",
			PNom: 100, PNomOpt: 120, CapitalCost: 1, MarginalCost: 2,
			Dispatch: []float64{50, 50},
		}),
		n.AddStorageUnit(&network.StorageUnit{
			ID: "s-pump", Bus: "b", Carrier: "PHS",
			PNom: 40, PNomOpt: 40, CapitalCost: 5, MarginalCost: 1,
			Dispatch: []float64{-30, 10}, // net consumer
		}),
		n.AddStorageUnit(&network.StorageUnit{
			ID: "s-hydro", Bus: "b", Carrier: "hydro",
			PNom: 20, PNomOpt: 20, MarginalCost: 1,
			Dispatch: []float64{5, 10}, // net producer
		}),
	}
	for _, err := range adds {
		if err != nil {
			t.Fatalf("build network: %v", err)
		}
	}
	return n
}

func TestAggregateCostsOptimisedCapacity(t *testing.T) {
	costs := AggregateCosts(costNetwork(t), false)

	cases := []struct {
		key  CostKey
		want float64
	}{
		{CostKey{"lines", KindCapital, "AC"}, 300},          // 150 * 2
		{CostKey{"links", KindCapital, "DC"}, 240},          // 80 * 3
		{CostKey{"links", KindMarginal, "DC"}, 2},           // 20 * 0.1
		{CostKey{"generators", KindCapital, "coal"}, 120},   // 120 * 1
		{CostKey{"generators", KindMarginal, "coal"}, 200},  // 100 * 2
		{CostKey{"storage_units", KindCapital, "PHS"}, 200}, // 40 * 5
		{CostKey{"storage_units", KindMarginal, "hydro"}, 15},
	}
	for _, tc := range cases {
		if got := costs[tc.key]; !almostEqual(got, tc.want) {
			t.Errorf("costs[%+v] = %v, want %v", tc.key, got, tc.want)
		}
	}

	// Net-consuming storage must not contribute negative marginal cost.
	if _, ok := costs[CostKey{"storage_units", KindMarginal, "PHS"}]; ok {
		t.Errorf("net-consuming storage unit produced a marginal cost entry")
	}
}

func TestAggregateCostsExistingOnly(t *testing.T) {
	costs := AggregateCosts(costNetwork(t), true)

	if got := costs[CostKey{"lines", KindCapital, "AC"}]; !almostEqual(got, 200) {
		t.Errorf("line capital = %v, want 100 * 2 = 200", got)
	}
	if got := costs[CostKey{"generators", KindCapital, "coal"}]; !almostEqual(got, 100) {
		t.Errorf("generator capital = %v, want 100 * 1 = 100", got)
	}
}

func TestFlattenSuffixesConventionalMarginals(t *testing.T) {
	costs := AggregateCosts(costNetwork(t), false)
	flat := costs.Flatten([]string{"coal"})

	// Conventional carrier: capital stays on the plain key, marginal moves to
	// its own suffixed key.
	if got := flat["coal"]; !almostEqual(got, 120) {
		t.Errorf("coal = %v, want capital-only 120", got)
	}
	if got := flat["coal marginal"]; !almostEqual(got, 200) {
		t.Errorf("coal marginal = %v, want 200", got)
	}

	// Non-conventional carrier: capital and marginal merge onto one key.
	if got := flat["DC"]; !almostEqual(got, 242) {
		t.Errorf("DC = %v, want 240 + 2 = 242", got)
	}
	if got := flat["hydro"]; !almostEqual(got, 15) {
		t.Errorf("hydro = %v, want marginal-only 15", got)
	}
}
