package boundary

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

func testLayer() *Layer {
	return &Layer{Records: []Record{
		{ID: "NG.1_1", Country: "NG", Name: "West", Geometry: squarePolygon(0, 0, 4, 4)},
		{ID: "NG.2_1", Country: "NG", Name: "East", Geometry: squarePolygon(5, 0, 9, 4)},
		{ID: "BJ.1_1", Country: "BJ", Name: "Littoral", Geometry: squarePolygon(-5, 0, -1, 4)},
	}}
}

func TestLocatePointInsidePolygon(t *testing.T) {
	layer := testLayer()

	id, err := layer.Locate(1, 1, "NG")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if id != "NG.1_1" {
		t.Fatalf("Locate = %q, want NG.1_1", id)
	}

	id, err = layer.Locate(7, 3, "NG")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if id != "NG.2_1" {
		t.Fatalf("Locate = %q, want NG.2_1", id)
	}
}

func TestLocateFallsBackToNearestPolygon(t *testing.T) {
	layer := testLayer()

	// Offshore point south of the eastern region: contained by nothing,
	// closest to NG.2_1.
	id, err := layer.Locate(8, -0.5, "NG")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if id != "NG.2_1" {
		t.Fatalf("Locate fallback = %q, want NG.2_1", id)
	}

	// A point between the two squares, slightly nearer the western one.
	id, err = layer.Locate(4.2, 2, "NG")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if id != "NG.1_1" {
		t.Fatalf("Locate fallback = %q, want NG.1_1", id)
	}
}

func TestLocateIgnoresOtherCountries(t *testing.T) {
	layer := testLayer()

	// The point sits inside the Benin polygon, but the filter restricts the
	// search to NG rows, so the nearest Nigerian region wins.
	id, err := layer.Locate(-2, 2, "NG")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if id != "NG.1_1" {
		t.Fatalf("Locate = %q, want NG.1_1", id)
	}
}

func TestLocateNoCountryMatchIsFatal(t *testing.T) {
	layer := testLayer()

	_, err := layer.Locate(1, 1, "ZA")
	if err == nil {
		t.Fatalf("Locate succeeded, want error for unmatched country")
	}
	if !errors.Is(err, ErrNoCountryMatch) {
		t.Fatalf("error = %v, want ErrNoCountryMatch", err)
	}
}

func TestLocateMultiPolygon(t *testing.T) {
	layer := &Layer{Records: []Record{
		{
			ID:      "NG.3_1",
			Country: "NG",
			Geometry: orb.MultiPolygon{
				squarePolygon(0, 0, 2, 2),
				squarePolygon(10, 10, 12, 12),
			},
		},
	}}

	id, err := layer.Locate(11, 11, "NG")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if id != "NG.3_1" {
		t.Fatalf("Locate = %q, want NG.3_1", id)
	}
}
