// Package topology derives the branch topology table of a network: one row
// per unique undirected bus pair, merged across the AC line table and the DC
// link table.
package topology

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/signalsfoundry/gridprep/network"
	"github.com/signalsfoundry/gridprep/tabular"
)

// Entry is one row of the topology table.
type Entry struct {
	Index              string
	Bus0               string
	Bus1               string
	Length             float64
	UnderwaterFraction float64
}

// Options controls index construction and direction handling.
type Options struct {
	// Prefix is prepended to every index.
	Prefix string
	// Connector joins the two bus ids in the index. Defaults to " <-> ".
	Connector string
	// Bidirectional marks each row as usable in both directions. When false,
	// an explicit reverse-direction row is emitted per pair instead.
	Bidirectional bool
}

// ApplyDefaults fills zero-valued options.
func (o *Options) ApplyDefaults() {
	if o.Connector == "" {
		o.Connector = " <-> "
	}
}

// branchKey identifies an undirected bus pair after canonicalisation.
type branchKey struct {
	bus0, bus1 string
}

type accumulator struct {
	length     float64
	underwater float64
	count      int
}

// Build derives the topology table from the network's lines and its DC links.
// Parallel branches between the same (canonicalised) bus pair are merged by
// averaging their numeric attributes. Rows are sorted by bus pair; when
// Bidirectional is false each pair is followed by its reverse row at the end
// of the table.
func Build(n *network.Network, opts Options) []Entry {
	opts.ApplyDefaults()

	acc := make(map[branchKey]*accumulator)
	keys := make([]branchKey, 0)

	observe := func(bus0, bus1 string, length, underwater float64) {
		if bus1 < bus0 {
			bus0, bus1 = bus1, bus0
		}
		key := branchKey{bus0, bus1}
		a, ok := acc[key]
		if !ok {
			a = &accumulator{}
			acc[key] = a
			keys = append(keys, key)
		}
		a.length += length
		a.underwater += underwater
		a.count++
	}

	for _, l := range n.Lines() {
		observe(l.Bus0, l.Bus1, l.Length, 0)
	}
	for _, l := range n.Links() {
		if l.Carrier != "DC" {
			continue
		}
		observe(l.Bus0, l.Bus1, l.Length, l.UnderwaterFraction)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].bus0 != keys[j].bus0 {
			return keys[i].bus0 < keys[j].bus0
		}
		return keys[i].bus1 < keys[j].bus1
	})

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		a := acc[key]
		entries = append(entries, Entry{
			Index:              opts.Prefix + key.bus0 + opts.Connector + key.bus1,
			Bus0:               key.bus0,
			Bus1:               key.bus1,
			Length:             a.length / float64(a.count),
			UnderwaterFraction: a.underwater / float64(a.count),
		})
	}

	if !opts.Bidirectional {
		forward := entries
		for _, e := range forward {
			entries = append(entries, Entry{
				Index:              opts.Prefix + e.Bus1 + opts.Connector + e.Bus0,
				Bus0:               e.Bus1,
				Bus1:               e.Bus0,
				Length:             e.Length,
				UnderwaterFraction: e.UnderwaterFraction,
			})
		}
	}
	return entries
}

// ToTable renders the entries as a CSV-writable table.
func ToTable(entries []Entry) *tabular.Table {
	t := &tabular.Table{
		Header: []string{"name", "bus0", "bus1", "length", "underwater_fraction"},
		Rows:   make([][]string, 0, len(entries)),
	}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{
			e.Index,
			e.Bus0,
			e.Bus1,
			formatFloat(e.Length),
			formatFloat(e.UnderwaterFraction),
		})
	}
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes the topology table to path.
func WriteCSV(entries []Entry, path string) error {
	if err := tabular.WriteCSV(ToTable(entries), path); err != nil {
		return fmt.Errorf("topology: %w", err)
	}
	return nil
}
