package network

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Summary is a small report of what was loaded from JSON. It's mainly useful
// for logging from main().
type Summary struct {
	Counts    Counts
	Snapshots int
}

// internal JSON shapes - kept unexported so we're free to evolve them.
type networkJSON struct {
	Snapshots    int               `json:"snapshots"`
	Buses        []busJSON         `json:"buses"`
	Lines        []lineJSON        `json:"lines"`
	Links        []linkJSON        `json:"links"`
	Generators   []generatorJSON   `json:"generators"`
	StorageUnits []storageUnitJSON `json:"storage_units"`
	Stores       []storeJSON       `json:"stores"`
	Loads        []loadJSON        `json:"loads"`
}

type busJSON struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Country string  `json:"country"`
	Carrier string  `json:"carrier"`
}

type lineJSON struct {
	ID          string  `json:"id"`
	Bus0        string  `json:"bus0"`
	Bus1        string  `json:"bus1"`
	Carrier     string  `json:"carrier"`
	Length      float64 `json:"length"`
	SNom        float64 `json:"s_nom"`
	SNomOpt     float64 `json:"s_nom_opt"`
	CapitalCost float64 `json:"capital_cost"`
}

type linkJSON struct {
	ID                 string    `json:"id"`
	Bus0               string    `json:"bus0"`
	Bus1               string    `json:"bus1"`
	Carrier            string    `json:"carrier"`
	Length             float64   `json:"length"`
	UnderwaterFraction float64   `json:"underwater_fraction"`
	PNom               float64   `json:"p_nom"`
	PNomOpt            float64   `json:"p_nom_opt"`
	CapitalCost        float64   `json:"capital_cost"`
	MarginalCost       float64   `json:"marginal_cost"`
	Dispatch           []float64 `json:"p"`
}

type generatorJSON struct {
	ID           string    `json:"id"`
	Bus          string    `json:"bus"`
	Carrier      string    `json:"carrier"`
	PNom         float64   `json:"p_nom"`
	PNomOpt      float64   `json:"p_nom_opt"`
	PNomMin      float64   `json:"p_nom_min"`
	PNomMax      float64   `json:"p_nom_max"`
	CapitalCost  float64   `json:"capital_cost"`
	MarginalCost float64   `json:"marginal_cost"`
	Dispatch     []float64 `json:"p"`
	PMaxPU       []float64 `json:"p_max_pu"`
}

type storageUnitJSON struct {
	ID           string    `json:"id"`
	Bus          string    `json:"bus"`
	Carrier      string    `json:"carrier"`
	PNom         float64   `json:"p_nom"`
	PNomOpt      float64   `json:"p_nom_opt"`
	MaxHours     float64   `json:"max_hours"`
	CapitalCost  float64   `json:"capital_cost"`
	MarginalCost float64   `json:"marginal_cost"`
	Dispatch     []float64 `json:"p"`
	Inflow       []float64 `json:"inflow"`
}

type storeJSON struct {
	ID           string    `json:"id"`
	Bus          string    `json:"bus"`
	Carrier      string    `json:"carrier"`
	ENom         float64   `json:"e_nom"`
	ENomOpt      float64   `json:"e_nom_opt"`
	CapitalCost  float64   `json:"capital_cost"`
	MarginalCost float64   `json:"marginal_cost"`
	Dispatch     []float64 `json:"p"`
}

type loadJSON struct {
	ID      string    `json:"id"`
	Bus     string    `json:"bus"`
	Carrier string    `json:"carrier"`
	P       []float64 `json:"p"`
}

// Decode reads a JSON network from r, populates a fresh Network, and returns
// it together with a summary of what was loaded. Buses are added first so
// that every branch and one-port component can be validated against them.
func Decode(r io.Reader) (*Network, *Summary, error) {
	var payload networkJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, nil, fmt.Errorf("network: decode failed: %w", err)
	}

	n := New()

	for _, jb := range payload.Buses {
		if jb.ID == "" {
			return nil, nil, fmt.Errorf("network: bus with empty id")
		}
		bus := &Bus{ID: jb.ID, X: jb.X, Y: jb.Y, Country: jb.Country, Carrier: jb.Carrier}
		if err := n.AddBus(bus); err != nil {
			return nil, nil, fmt.Errorf("network: %w", err)
		}
	}

	for _, jl := range payload.Lines {
		if jl.ID == "" {
			return nil, nil, fmt.Errorf("network: line with empty id")
		}
		line := &Line{
			ID:          jl.ID,
			Bus0:        jl.Bus0,
			Bus1:        jl.Bus1,
			Carrier:     jl.Carrier,
			Length:      jl.Length,
			SNom:        jl.SNom,
			SNomOpt:     jl.SNomOpt,
			CapitalCost: jl.CapitalCost,
		}
		if err := n.AddLine(line); err != nil {
			return nil, nil, fmt.Errorf("network: %w", err)
		}
	}

	for _, jl := range payload.Links {
		if jl.ID == "" {
			return nil, nil, fmt.Errorf("network: link with empty id")
		}
		link := &Link{
			ID:                 jl.ID,
			Bus0:               jl.Bus0,
			Bus1:               jl.Bus1,
			Carrier:            jl.Carrier,
			Length:             jl.Length,
			UnderwaterFraction: jl.UnderwaterFraction,
			PNom:               jl.PNom,
			PNomOpt:            jl.PNomOpt,
			CapitalCost:        jl.CapitalCost,
			MarginalCost:       jl.MarginalCost,
			Dispatch:           jl.Dispatch,
		}
		if err := n.AddLink(link); err != nil {
			return nil, nil, fmt.Errorf("network: %w", err)
		}
	}

	for _, jg := range payload.Generators {
		if jg.ID == "" {
			return nil, nil, fmt.Errorf("network: generator with empty id")
		}
		gen := &Generator{
			ID:           jg.ID,
			Bus:          jg.Bus,
			Carrier:      jg.Carrier,
			PNom:         jg.PNom,
			PNomOpt:      jg.PNomOpt,
			PNomMin:      jg.PNomMin,
			PNomMax:      jg.PNomMax,
			CapitalCost:  jg.CapitalCost,
			MarginalCost: jg.MarginalCost,
			Dispatch:     jg.Dispatch,
			PMaxPU:       jg.PMaxPU,
		}
		if err := n.AddGenerator(gen); err != nil {
			return nil, nil, fmt.Errorf("network: %w", err)
		}
	}

	for _, js := range payload.StorageUnits {
		if js.ID == "" {
			return nil, nil, fmt.Errorf("network: storage unit with empty id")
		}
		su := &StorageUnit{
			ID:           js.ID,
			Bus:          js.Bus,
			Carrier:      js.Carrier,
			PNom:         js.PNom,
			PNomOpt:      js.PNomOpt,
			MaxHours:     js.MaxHours,
			CapitalCost:  js.CapitalCost,
			MarginalCost: js.MarginalCost,
			Dispatch:     js.Dispatch,
			Inflow:       js.Inflow,
		}
		if err := n.AddStorageUnit(su); err != nil {
			return nil, nil, fmt.Errorf("network: %w", err)
		}
	}

	for _, js := range payload.Stores {
		if js.ID == "" {
			return nil, nil, fmt.Errorf("network: store with empty id")
		}
		st := &Store{
			ID:           js.ID,
			Bus:          js.Bus,
			Carrier:      js.Carrier,
			ENom:         js.ENom,
			ENomOpt:      js.ENomOpt,
			CapitalCost:  js.CapitalCost,
			MarginalCost: js.MarginalCost,
			Dispatch:     js.Dispatch,
		}
		if err := n.AddStore(st); err != nil {
			return nil, nil, fmt.Errorf("network: %w", err)
		}
	}

	for _, jl := range payload.Loads {
		if jl.ID == "" {
			return nil, nil, fmt.Errorf("network: load with empty id")
		}
		load := &Load{ID: jl.ID, Bus: jl.Bus, Carrier: jl.Carrier, P: jl.P}
		if err := n.AddLoad(load); err != nil {
			return nil, nil, fmt.Errorf("network: %w", err)
		}
	}

	return n, &Summary{Counts: n.Stats(), Snapshots: payload.Snapshots}, nil
}

// LoadFile opens path and decodes the network from it.
func LoadFile(path string) (*Network, *Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Decode(f)
}
