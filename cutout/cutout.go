// Package cutout assembles the request handed to the external climate-data
// retrieval tool: the spatial window covering the model regions and the
// temporal range of the weather year.
package cutout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/signalsfoundry/gridprep/boundary"
)

// Defaults for the ERA5 grid.
const (
	DefaultModule = "era5"
	DefaultDX     = 0.25
	DefaultDY     = 0.25
)

// ErrNoRegions is returned when bounds must be derived but neither region
// layer carries any geometry.
var ErrNoRegions = errors.New("cutout: no regions to derive bounds from")

// Options configures the request builder.
type Options struct {
	Module string
	DX     float64
	DY     float64

	// Bounds, when set, is used verbatim instead of deriving the window from
	// the region layers.
	Bounds *orb.Bound

	Start time.Time
	End   time.Time
}

// ApplyDefaults fills zero-valued options with the ERA5 grid defaults.
func (o *Options) ApplyDefaults() {
	if o.Module == "" {
		o.Module = DefaultModule
	}
	if o.DX == 0 {
		o.DX = DefaultDX
	}
	if o.DY == 0 {
		o.DY = DefaultDY
	}
}

// Request is the serialised retrieval order.
type Request struct {
	Module string  `json:"module"`
	XMin   float64 `json:"x_min"`
	XMax   float64 `json:"x_max"`
	YMin   float64 `json:"y_min"`
	YMax   float64 `json:"y_max"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`

	TimeStart time.Time `json:"time_start"`
	TimeEnd   time.Time `json:"time_end"`
	Frequency string    `json:"frequency"`
}

// BoundsFromLayers unions the onshore and offshore region extents and pads
// the window by two grid cells on every side, so cells at the edge still have
// full neighbourhoods after interpolation.
func BoundsFromLayers(onshore, offshore *boundary.Layer, dx, dy float64) (orb.Bound, error) {
	var bound orb.Bound
	found := false
	for _, layer := range []*boundary.Layer{onshore, offshore} {
		if layer == nil {
			continue
		}
		b, ok := layer.Bound()
		if !ok {
			continue
		}
		if !found {
			bound = b
			found = true
		} else {
			bound = bound.Union(b)
		}
	}
	if !found {
		return orb.Bound{}, ErrNoRegions
	}

	pad := 2 * max(dx, dy)
	bound.Min[0] -= pad
	bound.Min[1] -= pad
	bound.Max[0] += pad
	bound.Max[1] += pad
	return bound, nil
}

// Build derives the retrieval request. Explicit bounds win; otherwise the
// window comes from the region layers.
func Build(opts Options, onshore, offshore *boundary.Layer) (*Request, error) {
	opts.ApplyDefaults()

	if opts.End.Before(opts.Start) {
		return nil, fmt.Errorf("cutout: time range ends (%s) before it starts (%s)",
			opts.End.Format(time.RFC3339), opts.Start.Format(time.RFC3339))
	}

	var bound orb.Bound
	if opts.Bounds != nil {
		bound = *opts.Bounds
	} else {
		var err error
		bound, err = BoundsFromLayers(onshore, offshore, opts.DX, opts.DY)
		if err != nil {
			return nil, err
		}
	}

	return &Request{
		Module:    opts.Module,
		XMin:      bound.Min[0],
		XMax:      bound.Max[0],
		YMin:      bound.Min[1],
		YMax:      bound.Max[1],
		DX:        opts.DX,
		DY:        opts.DY,
		TimeStart: opts.Start,
		TimeEnd:   opts.End,
		Frequency: "h",
	}, nil
}

// Snapshots expands the request's time range into hourly timestamps,
// inclusive of both ends.
func (r *Request) Snapshots() []time.Time {
	var out []time.Time
	for ts := r.TimeStart; !ts.After(r.TimeEnd); ts = ts.Add(time.Hour) {
		out = append(out, ts)
	}
	return out
}

// WriteJSON writes the request to path, indented for hand inspection.
func (r *Request) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
