// Package network holds the in-memory component tables of a power network:
// buses, branches (lines and links), generators, storage and loads. It is the
// container the topology builder and the aggregation reports consume.
package network

import (
	"fmt"
	"sort"
	"sync"
)

// Bus is a network node: an electrical busbar placed at a coordinate and
// assigned to a country.
type Bus struct {
	ID      string
	X       float64 // longitude
	Y       float64 // latitude
	Country string
	Carrier string
}

// Line is an AC branch between two buses.
type Line struct {
	ID          string
	Bus0        string
	Bus1        string
	Carrier     string
	Length      float64 // km
	SNom        float64 // MVA
	SNomOpt     float64
	CapitalCost float64
}

// Link is a controllable branch, typically a DC interconnector.
type Link struct {
	ID                 string
	Bus0               string
	Bus1               string
	Carrier            string
	Length             float64
	UnderwaterFraction float64
	PNom               float64
	PNomOpt            float64
	CapitalCost        float64
	MarginalCost       float64
	Dispatch           []float64 // per-snapshot p0
}

// Generator is a dispatchable or variable source attached to a bus.
type Generator struct {
	ID           string
	Bus          string
	Carrier      string
	PNom         float64
	PNomOpt      float64
	PNomMin      float64
	PNomMax      float64
	CapitalCost  float64
	MarginalCost float64
	Dispatch     []float64 // per-snapshot p
	PMaxPU       []float64 // per-snapshot availability; empty for dispatchable units
}

// StorageUnit couples a power rating with an energy reservoir via MaxHours.
type StorageUnit struct {
	ID           string
	Bus          string
	Carrier      string
	PNom         float64
	PNomOpt      float64
	MaxHours     float64
	CapitalCost  float64
	MarginalCost float64
	Dispatch     []float64
	Inflow       []float64
}

// Store is a pure energy buffer without its own power rating.
type Store struct {
	ID           string
	Bus          string
	Carrier      string
	ENom         float64
	ENomOpt      float64
	CapitalCost  float64
	MarginalCost float64
	Dispatch     []float64
}

// Load is a fixed demand attached to a bus.
type Load struct {
	ID      string
	Bus     string
	Carrier string
	P       []float64
}

// Counts summarises the component tables, mainly for logging and gauges.
type Counts struct {
	Buses        int
	Lines        int
	Links        int
	Generators   int
	StorageUnits int
	Stores       int
	Loads        int
}

// Network is a thread-safe store for the component tables. Additions validate
// referential integrity: branch and one-port components must name buses that
// already exist.
type Network struct {
	mu sync.RWMutex

	buses        map[string]*Bus
	lines        map[string]*Line
	links        map[string]*Link
	generators   map[string]*Generator
	storageUnits map[string]*StorageUnit
	stores       map[string]*Store
	loads        map[string]*Load
}

// New constructs an empty network.
func New() *Network {
	return &Network{
		buses:        make(map[string]*Bus),
		lines:        make(map[string]*Line),
		links:        make(map[string]*Link),
		generators:   make(map[string]*Generator),
		storageUnits: make(map[string]*StorageUnit),
		stores:       make(map[string]*Store),
		loads:        make(map[string]*Load),
	}
}

// AddBus adds a new bus. It returns an error if the ID already exists.
func (n *Network) AddBus(b *Bus) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if b.ID == "" {
		return fmt.Errorf("bus with empty id")
	}
	if _, exists := n.buses[b.ID]; exists {
		return fmt.Errorf("bus with ID %q already exists", b.ID)
	}
	n.buses[b.ID] = b
	return nil
}

// AddLine adds a new line. Both endpoint buses must already exist.
func (n *Network) AddLine(l *Line) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.lines[l.ID]; exists {
		return fmt.Errorf("line with ID %q already exists", l.ID)
	}
	if err := n.checkBuses(l.ID, l.Bus0, l.Bus1); err != nil {
		return err
	}
	n.lines[l.ID] = l
	return nil
}

// AddLink adds a new link. Both endpoint buses must already exist.
func (n *Network) AddLink(l *Link) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.links[l.ID]; exists {
		return fmt.Errorf("link with ID %q already exists", l.ID)
	}
	if err := n.checkBuses(l.ID, l.Bus0, l.Bus1); err != nil {
		return err
	}
	n.links[l.ID] = l
	return nil
}

// AddGenerator adds a new generator attached to an existing bus.
func (n *Network) AddGenerator(g *Generator) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.generators[g.ID]; exists {
		return fmt.Errorf("generator with ID %q already exists", g.ID)
	}
	if err := n.checkBuses(g.ID, g.Bus); err != nil {
		return err
	}
	n.generators[g.ID] = g
	return nil
}

// AddStorageUnit adds a new storage unit attached to an existing bus.
func (n *Network) AddStorageUnit(s *StorageUnit) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.storageUnits[s.ID]; exists {
		return fmt.Errorf("storage unit with ID %q already exists", s.ID)
	}
	if err := n.checkBuses(s.ID, s.Bus); err != nil {
		return err
	}
	n.storageUnits[s.ID] = s
	return nil
}

// AddStore adds a new store attached to an existing bus.
func (n *Network) AddStore(s *Store) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.stores[s.ID]; exists {
		return fmt.Errorf("store with ID %q already exists", s.ID)
	}
	if err := n.checkBuses(s.ID, s.Bus); err != nil {
		return err
	}
	n.stores[s.ID] = s
	return nil
}

// AddLoad adds a new load attached to an existing bus.
func (n *Network) AddLoad(l *Load) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.loads[l.ID]; exists {
		return fmt.Errorf("load with ID %q already exists", l.ID)
	}
	if err := n.checkBuses(l.ID, l.Bus); err != nil {
		return err
	}
	n.loads[l.ID] = l
	return nil
}

// checkBuses verifies that every referenced bus exists. Callers hold the lock.
func (n *Network) checkBuses(componentID string, buses ...string) error {
	for _, id := range buses {
		if _, ok := n.buses[id]; !ok {
			return fmt.Errorf("bus with ID %q not found for component %q", id, componentID)
		}
	}
	return nil
}

// GetBus returns the bus with the given ID, or nil if not found.
func (n *Network) GetBus(id string) *Bus {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.buses[id]
}

// GetGenerator returns the generator with the given ID, or nil if not found.
func (n *Network) GetGenerator(id string) *Generator {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.generators[id]
}

// Buses returns a snapshot of all buses, sorted by ID.
func (n *Network) Buses() []*Bus {
	n.mu.RLock()
	defer n.mu.RUnlock()

	res := make([]*Bus, 0, len(n.buses))
	for _, b := range n.buses {
		res = append(res, b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Lines returns a snapshot of all lines, sorted by ID.
func (n *Network) Lines() []*Line {
	n.mu.RLock()
	defer n.mu.RUnlock()

	res := make([]*Line, 0, len(n.lines))
	for _, l := range n.lines {
		res = append(res, l)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Links returns a snapshot of all links, sorted by ID.
func (n *Network) Links() []*Link {
	n.mu.RLock()
	defer n.mu.RUnlock()

	res := make([]*Link, 0, len(n.links))
	for _, l := range n.links {
		res = append(res, l)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Generators returns a snapshot of all generators, sorted by ID.
func (n *Network) Generators() []*Generator {
	n.mu.RLock()
	defer n.mu.RUnlock()

	res := make([]*Generator, 0, len(n.generators))
	for _, g := range n.generators {
		res = append(res, g)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// StorageUnits returns a snapshot of all storage units, sorted by ID.
func (n *Network) StorageUnits() []*StorageUnit {
	n.mu.RLock()
	defer n.mu.RUnlock()

	res := make([]*StorageUnit, 0, len(n.storageUnits))
	for _, s := range n.storageUnits {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Stores returns a snapshot of all stores, sorted by ID.
func (n *Network) Stores() []*Store {
	n.mu.RLock()
	defer n.mu.RUnlock()

	res := make([]*Store, 0, len(n.stores))
	for _, s := range n.stores {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Loads returns a snapshot of all loads, sorted by ID.
func (n *Network) Loads() []*Load {
	n.mu.RLock()
	defer n.mu.RUnlock()

	res := make([]*Load, 0, len(n.loads))
	for _, l := range n.loads {
		res = append(res, l)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Stats returns the component table sizes.
func (n *Network) Stats() Counts {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return Counts{
		Buses:        len(n.buses),
		Lines:        len(n.lines),
		Links:        len(n.links),
		Generators:   len(n.generators),
		StorageUnits: len(n.storageUnits),
		Stores:       len(n.stores),
		Loads:        len(n.loads),
	}
}
