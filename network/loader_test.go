package network

import (
	"strings"
	"testing"
)

const exampleNetworkJSON = `{
  "snapshots": 3,
  "buses": [
    {"id": "NG.1_1_AC", "x": 3.4, "y": 6.5, "country": "NG", "carrier": "AC"},
    {"id": "NG.2_1_AC", "x": 8.5, "y": 12.0, "country": "NG", "carrier": "AC"},
    {"id": "BJ.1_1_AC", "x": 2.4, "y": 6.4, "country": "BJ", "carrier": "AC"}
  ],
  "lines": [
    {"id": "line-1", "bus0": "NG.1_1_AC", "bus1": "NG.2_1_AC", "carrier": "AC",
     "length": 820.0, "s_nom": 400.0, "capital_cost": 120.5}
  ],
  "links": [
    {"id": "dc-1", "bus0": "NG.1_1_AC", "bus1": "BJ.1_1_AC", "carrier": "DC",
     "length": 110.0, "underwater_fraction": 0.25, "p_nom": 300.0,
     "p": [100.0, 120.0, 90.0]}
  ],
  "generators": [
    {"id": "NG.1_1_AC solar", "bus": "NG.1_1_AC", "carrier": "solar",
     "p_nom": 50.0, "p_nom_max": 200.0, "marginal_cost": 0.01,
     "p": [0.0, 30.0, 10.0], "p_max_pu": [0.0, 0.7, 0.3]}
  ],
  "storage_units": [
    {"id": "NG.2_1_AC hydro", "bus": "NG.2_1_AC", "carrier": "hydro",
     "p_nom": 80.0, "max_hours": 6.0, "p": [20.0, -5.0, 15.0],
     "inflow": [10.0, 10.0, 10.0]}
  ],
  "stores": [
    {"id": "NG.1_1_AC H2", "bus": "NG.1_1_AC", "carrier": "H2", "e_nom": 500.0}
  ],
  "loads": [
    {"id": "NG.1_1_AC load", "bus": "NG.1_1_AC", "p": [60.0, 70.0, 65.0]}
  ]
}`

func TestDecodeExampleNetwork(t *testing.T) {
	n, summary, err := Decode(strings.NewReader(exampleNetworkJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := Counts{Buses: 3, Lines: 1, Links: 1, Generators: 1, StorageUnits: 1, Stores: 1, Loads: 1}
	if summary.Counts != want {
		t.Fatalf("summary counts = %+v, want %+v", summary.Counts, want)
	}
	if summary.Snapshots != 3 {
		t.Errorf("snapshots = %d, want 3", summary.Snapshots)
	}

	gen := n.GetGenerator("NG.1_1_AC solar")
	if gen == nil {
		t.Fatalf("generator not loaded")
	}
	if gen.Carrier != "solar" || gen.PNomMax != 200.0 {
		t.Errorf("generator = %+v, want carrier solar p_nom_max 200", gen)
	}
	if len(gen.Dispatch) != 3 || gen.Dispatch[1] != 30.0 {
		t.Errorf("dispatch = %v, want 3 snapshots with 30 at index 1", gen.Dispatch)
	}

	links := n.Links()
	if len(links) != 1 {
		t.Fatalf("len(Links) = %d, want 1", len(links))
	}
	if links[0].UnderwaterFraction != 0.25 {
		t.Errorf("underwater_fraction = %v, want 0.25", links[0].UnderwaterFraction)
	}
}

func TestDecodeRejectsDanglingBusReference(t *testing.T) {
	payload := `{
	  "buses": [{"id": "a"}],
	  "lines": [{"id": "l1", "bus0": "a", "bus1": "ghost"}]
	}`

	_, _, err := Decode(strings.NewReader(payload))
	if err == nil {
		t.Fatalf("Decode succeeded with dangling bus reference")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error %q does not name the missing bus", err)
	}
}

func TestDecodeRejectsEmptyIDs(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"bus", `{"buses": [{"x": 1.0}]}`},
		{"line", `{"buses": [{"id": "a"}], "lines": [{"bus0": "a", "bus1": "a"}]}`},
		{"generator", `{"buses": [{"id": "a"}], "generators": [{"bus": "a"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Decode(strings.NewReader(tc.payload)); err == nil {
				t.Fatalf("Decode succeeded with empty %s id", tc.name)
			}
		})
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	if _, _, err := Decode(strings.NewReader(`{"buses": [`)); err == nil {
		t.Fatalf("Decode succeeded on truncated JSON")
	}
}

func TestDecodedLoadsMatchConstructedLoads(t *testing.T) {
	n, _, err := Decode(strings.NewReader(exampleNetworkJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := &Load{ID: "NG.1_1_AC load", Bus: "NG.1_1_AC", P: []float64{60, 70, 65}}
	loads := n.Loads()
	if len(loads) != 1 {
		t.Fatalf("len(Loads) = %d, want 1", len(loads))
	}
	got := loads[0]
	if got.ID != want.ID || got.Bus != want.Bus || len(got.P) != len(want.P) {
		t.Errorf("load = %+v, want %+v", got, want)
	}
}
