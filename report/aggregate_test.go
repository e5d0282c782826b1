package report

import (
	"math"
	"testing"

	"github.com/signalsfoundry/gridprep/network"
)

func testNetwork(t *testing.T) *network.Network {
	t.Helper()

	n := network.New()
	for _, id := range []string{"a", "b"} {
		if err := n.AddBus(&network.Bus{ID: id}); err != nil {
			t.Fatalf("AddBus(%s): %v", id, err)
		}
	}

	adds := []error{
		n.AddGenerator(&network.Generator{
			ID: "g-solar-1", Bus: "a", Carrier: "solar",
			PNom: 40, PNomOpt: 50, CapitalCost: 2, MarginalCost: 0.5,
			Dispatch: []float64{10, 20, 10},
			PMaxPU:   []float64{0.2, 0.6, 0.4},
		}),
		n.AddGenerator(&network.Generator{
			ID: "g-solar-2", Bus: "b", Carrier: "solar",
			PNomOpt: 30, Dispatch: []float64{5, 5, 5}, PMaxPU: []float64{0.5, 0.5, 0.5},
		}),
		n.AddGenerator(&network.Generator{
			ID: "g-coal", Bus: "b", Carrier: "coal",
			PNom: 100, PNomOpt: 100, CapitalCost: 1, MarginalCost: 3,
			Dispatch: []float64{80, 80, 80},
		}),
		n.AddStorageUnit(&network.StorageUnit{
			ID: "s-hydro", Bus: "a", Carrier: "hydro",
			PNom: 60, PNomOpt: 60, MaxHours: 6, MarginalCost: 0.2,
			Dispatch: []float64{10, -4, 6},
			Inflow:   []float64{8, 8, 8},
		}),
		n.AddStore(&network.Store{
			ID: "st-h2", Bus: "a", Carrier: "H2", ENom: 100, ENomOpt: 120, CapitalCost: 0.5,
		}),
		n.AddLoad(&network.Load{ID: "d1", Bus: "a", Carrier: "", P: []float64{30, 60, 30}}),
	}
	for _, err := range adds {
		if err != nil {
			t.Fatalf("build network: %v", err)
		}
	}
	return n
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregateCapacity(t *testing.T) {
	s := AggregateCapacity(testNetwork(t))

	if !almostEqual(s["solar"], 80) {
		t.Errorf("solar capacity = %v, want 80", s["solar"])
	}
	if !almostEqual(s["coal"], 100) {
		t.Errorf("coal capacity = %v, want 100", s["coal"])
	}
	if !almostEqual(s["hydro"], 60) {
		t.Errorf("hydro capacity = %v, want 60", s["hydro"])
	}
	// Loads contribute their time-mean demand.
	if !almostEqual(s[""], 40) {
		t.Errorf("load mean = %v, want 40", s[""])
	}
}

func TestAggregateDispatch(t *testing.T) {
	s := AggregateDispatch(testNetwork(t))

	if !almostEqual(s["solar"], 55) {
		t.Errorf("solar dispatch = %v, want 55", s["solar"])
	}
	if !almostEqual(s["coal"], 240) {
		t.Errorf("coal dispatch = %v, want 240", s["coal"])
	}
	if !almostEqual(s["hydro"], 12) {
		t.Errorf("hydro dispatch = %v, want 12", s["hydro"])
	}
	// Demand is negative.
	if !almostEqual(s[""], -120) {
		t.Errorf("load dispatch = %v, want -120", s[""])
	}
}

func TestAggregateEnergy(t *testing.T) {
	s := AggregateEnergy(testNetwork(t))

	if !almostEqual(s["hydro"], 360) {
		t.Errorf("hydro energy = %v, want 60*6 = 360", s["hydro"])
	}
	if !almostEqual(s["H2"], 120) {
		t.Errorf("H2 energy = %v, want 120", s["H2"])
	}
}

func TestAggregateCurtailment(t *testing.T) {
	s := AggregateCurtailment(testNetwork(t))

	// solar: 50*1.2 - 40 plus 30*1.5 - 15 = 20 + 30 = 50.
	if !almostEqual(s["solar"], 50) {
		t.Errorf("solar curtailment = %v, want 50", s["solar"])
	}
	// hydro: inflow 24 - dispatch 12.
	if !almostEqual(s["hydro"], 12) {
		t.Errorf("hydro spill = %v, want 12", s["hydro"])
	}
}

func TestAggregateCurtailmentIgnoresDispatchableGenerators(t *testing.T) {
	n := network.New()
	if err := n.AddBus(&network.Bus{ID: "a"}); err != nil {
		t.Fatalf("AddBus: %v", err)
	}
	// Dispatchable unit: no availability series, steady output. Its dispatch
	// must not surface as negative curtailment.
	if err := n.AddGenerator(&network.Generator{
		ID: "g-coal", Bus: "a", Carrier: "coal",
		PNomOpt: 100, Dispatch: []float64{80, 80, 80},
	}); err != nil {
		t.Fatalf("AddGenerator: %v", err)
	}

	s := AggregateCurtailment(n)
	if v, ok := s["coal"]; ok {
		t.Fatalf("dispatchable generator produced a curtailment entry: %v", v)
	}
}

func TestUpdatePNomMax(t *testing.T) {
	n := network.New()
	if err := n.AddBus(&network.Bus{ID: "a"}); err != nil {
		t.Fatalf("AddBus: %v", err)
	}
	if err := n.AddGenerator(&network.Generator{
		ID: "g1", Bus: "a", PNomMin: 150, PNomMax: 100,
	}); err != nil {
		t.Fatalf("AddGenerator: %v", err)
	}
	if err := n.AddGenerator(&network.Generator{
		ID: "g2", Bus: "a", PNomMin: 10, PNomMax: 100,
	}); err != nil {
		t.Fatalf("AddGenerator: %v", err)
	}

	UpdatePNomMax(n)

	if got := n.GetGenerator("g1").PNomMax; got != 150 {
		t.Errorf("g1 p_nom_max = %v, want lifted to 150", got)
	}
	if got := n.GetGenerator("g2").PNomMax; got != 100 {
		t.Errorf("g2 p_nom_max = %v, want unchanged 100", got)
	}
}

func TestSeriesKeysSorted(t *testing.T) {
	s := Series{"solar": 1, "coal": 2, "hydro": 3}
	keys := s.Keys()
	want := []string{"coal", "hydro", "solar"}
	if len(keys) != len(want) {
		t.Fatalf("len(keys) = %d, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}
