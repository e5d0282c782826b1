package topology

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalsfoundry/gridprep/network"
)

func testNetwork(t *testing.T) *network.Network {
	t.Helper()

	n := network.New()
	for _, id := range []string{"a", "b", "c"} {
		if err := n.AddBus(&network.Bus{ID: id}); err != nil {
			t.Fatalf("AddBus(%s): %v", id, err)
		}
	}
	return n
}

func TestBuildCanonicalisesDirection(t *testing.T) {
	n := testNetwork(t)
	// Stored in reverse order: the pair must come out as (a, b).
	if err := n.AddLine(&network.Line{ID: "l1", Bus0: "b", Bus1: "a", Length: 100}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	entries := Build(n, Options{Bidirectional: true})
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Bus0 != "a" || e.Bus1 != "b" {
		t.Errorf("pair = (%s, %s), want (a, b)", e.Bus0, e.Bus1)
	}
	if e.Index != "a <-> b" {
		t.Errorf("index = %q, want %q", e.Index, "a <-> b")
	}
}

func TestBuildAveragesParallelBranches(t *testing.T) {
	n := testNetwork(t)
	if err := n.AddLine(&network.Line{ID: "l1", Bus0: "a", Bus1: "b", Length: 100}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := n.AddLine(&network.Line{ID: "l2", Bus0: "b", Bus1: "a", Length: 300}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := n.AddLink(&network.Link{
		ID: "dc1", Bus0: "a", Bus1: "b", Carrier: "DC", Length: 200, UnderwaterFraction: 0.6,
	}); err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	entries := Build(n, Options{Bidirectional: true})
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1 merged pair", len(entries))
	}
	if got := entries[0].Length; got != 200 {
		t.Errorf("mean length = %v, want 200", got)
	}
	if got := entries[0].UnderwaterFraction; math.Abs(got-0.2) > 1e-12 {
		t.Errorf("mean underwater fraction = %v, want 0.2", got)
	}
}

func TestBuildIgnoresNonDCLinks(t *testing.T) {
	n := testNetwork(t)
	if err := n.AddLink(&network.Link{ID: "h2", Bus0: "a", Bus1: "b", Carrier: "H2", Length: 50}); err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	if entries := Build(n, Options{Bidirectional: true}); len(entries) != 0 {
		t.Fatalf("len(entries) = %d, want 0 for non-DC links", len(entries))
	}
}

func TestBuildEmitsReverseRowsWhenNotBidirectional(t *testing.T) {
	n := testNetwork(t)
	if err := n.AddLine(&network.Line{ID: "l1", Bus0: "a", Bus1: "b", Length: 100}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := n.AddLine(&network.Line{ID: "l2", Bus0: "b", Bus1: "c", Length: 50}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	entries := Build(n, Options{Prefix: "line-", Bidirectional: false})
	if len(entries) != 4 {
		t.Fatalf("len(entries) = %d, want 4 (two pairs, both directions)", len(entries))
	}

	// Forward rows first, sorted by pair; reverse rows follow.
	wantIndices := []string{
		"line-a <-> b",
		"line-b <-> c",
		"line-b <-> a",
		"line-c <-> b",
	}
	for i, want := range wantIndices {
		if entries[i].Index != want {
			t.Errorf("entries[%d].Index = %q, want %q", i, entries[i].Index, want)
		}
	}
	if entries[2].Bus0 != "b" || entries[2].Bus1 != "a" {
		t.Errorf("reverse row pair = (%s, %s), want (b, a)", entries[2].Bus0, entries[2].Bus1)
	}
	if entries[2].Length != entries[0].Length {
		t.Errorf("reverse row length = %v, want %v", entries[2].Length, entries[0].Length)
	}
}

func TestWriteCSV(t *testing.T) {
	n := testNetwork(t)
	if err := n.AddLine(&network.Line{ID: "l1", Bus0: "a", Bus1: "b", Length: 123.5}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	path := filepath.Join(t.TempDir(), "topology.csv")
	if err := WriteCSV(Build(n, Options{Bidirectional: true}), path); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "name,bus0,bus1,length,underwater_fraction") {
		t.Errorf("missing header in %q", content)
	}
	if !strings.Contains(content, "a <-> b,a,b,123.5,0") {
		t.Errorf("missing row in %q", content)
	}
}
