// Command gridprep runs the data-preparation steps of the energy-model
// workflow: region expansion, boundary download, bus location, topology and
// cost tables, carrier reports and cutout requests.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/spf13/pflag"

	"github.com/signalsfoundry/gridprep/boundary"
	"github.com/signalsfoundry/gridprep/costs"
	"github.com/signalsfoundry/gridprep/country"
	"github.com/signalsfoundry/gridprep/cutout"
	"github.com/signalsfoundry/gridprep/internal/logging"
	"github.com/signalsfoundry/gridprep/internal/observability"
	"github.com/signalsfoundry/gridprep/internal/pipeline"
	"github.com/signalsfoundry/gridprep/network"
	"github.com/signalsfoundry/gridprep/report"
	"github.com/signalsfoundry/gridprep/tabular"
	"github.com/signalsfoundry/gridprep/topology"
)

const usageText = `usage: gridprep <command> [flags]

commands:
  countries      expand region tokens into country codes
  locate         find the admin region containing a coordinate
  fetch-gadm     download and cache boundary layers for a country list
  topology       derive the branch topology table from a network file
  costs          prepare the technology cost table from a cost CSV
  aggregate      carrier-keyed summaries of a network file
  cutout-bounds  build a cutout request from region layers
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	log := logging.NewFromEnv()
	ctx, log := logging.WithRunLogger(context.Background(), log)

	collector, err := observability.NewPipelineCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(os.Getenv("GRIDPREP_METRICS_ADDR"), collector, log)

	stopTracing, err := observability.SetupTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}

	app := &app{log: log, metrics: collector}

	cmd, args := os.Args[1], os.Args[2:]
	var runErr error
	switch cmd {
	case "countries":
		runErr = app.countries(ctx, args)
	case "locate":
		runErr = app.locate(ctx, args)
	case "fetch-gadm":
		runErr = app.fetchGADM(ctx, args)
	case "topology":
		runErr = app.topology(ctx, args)
	case "costs":
		runErr = app.costs(ctx, args)
	case "aggregate":
		runErr = app.aggregate(ctx, args)
	case "cutout-bounds":
		runErr = app.cutoutBounds(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usageText)
		runErr = fmt.Errorf("unknown command %q", cmd)
	}

	stopTracing()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsSrv.Shutdown(shutdownCtx)
		cancel()
	}

	if runErr != nil {
		log.Error(ctx, "command failed",
			logging.String("command", cmd),
			logging.String("error", runErr.Error()),
		)
		os.Exit(1)
	}
}

type app struct {
	log     logging.Logger
	metrics *observability.PipelineCollector
}

func (a *app) resolver(regionsPath string) (*country.Resolver, error) {
	cfg, err := country.LoadRegionConfig(regionsPath)
	if err != nil {
		return nil, fmt.Errorf("load regions config: %w", err)
	}
	return country.NewResolver(cfg, a.log), nil
}

func (a *app) countries(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("countries", pflag.ContinueOnError)
	regionsPath := fs.String("regions", "configs/regions.yaml", "path to the regions definition YAML")
	isoOnly := fs.Bool("iso-only", true, "drop tokens that are not 2-letter codes after expansion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("countries: no region tokens given")
	}

	resolver, err := a.resolver(*regionsPath)
	if err != nil {
		return err
	}

	for _, code := range resolver.ExpandRegionList(ctx, fs.Args(), *isoOnly) {
		fmt.Println(code)
	}
	return nil
}

func (a *app) locate(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("locate", pflag.ContinueOnError)
	layerPath := fs.String("layer", "", "path to the boundary GeoJSON layer")
	lon := fs.Float64("lon", 0, "longitude of the point")
	lat := fs.Float64("lat", 0, "latitude of the point")
	countryCode := fs.String("country", "", "2-letter country code the point belongs to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *layerPath == "" || *countryCode == "" {
		return fmt.Errorf("locate: --layer and --country are required")
	}

	layer, err := boundary.ReadGeoJSON(*layerPath)
	if err != nil {
		return err
	}

	id, err := layer.Locate(*lon, *lat, *countryCode)
	if err != nil {
		return err
	}
	a.log.Info(ctx, "located point",
		logging.Float64("lon", *lon),
		logging.Float64("lat", *lat),
		logging.String("region", id),
	)
	fmt.Println(id)
	return nil
}

func (a *app) fetchGADM(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("fetch-gadm", pflag.ContinueOnError)
	regionsPath := fs.String("regions", "configs/regions.yaml", "path to the regions definition YAML")
	cacheDir := fs.String("cache-dir", "data/gadm", "directory for cached boundary files")
	level := fs.Int("level", 1, "GADM nesting level")
	update := fs.Bool("update", false, "force re-download of cached layers")
	outPath := fs.String("out", "", "optional path to write the combined GeoJSON layer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("fetch-gadm: no region tokens given")
	}

	resolver, err := a.resolver(*regionsPath)
	if err != nil {
		return err
	}
	codes := resolver.ExpandRegionList(ctx, fs.Args(), true)

	fetcher := boundary.NewFetcher(*cacheDir, resolver, a.log, a.metrics)
	fetcher.Update = *update

	var layer *boundary.Layer
	runner := pipeline.NewRunner(a.log, a.metrics)
	return runner.Run(ctx,
		pipeline.Stage{Name: "fetch-boundaries", Run: func(ctx context.Context) error {
			layer, err = fetcher.FetchLayer(ctx, codes, *level)
			return err
		}},
		pipeline.Stage{Name: "write-layer", Run: func(ctx context.Context) error {
			a.log.Info(ctx, "fetched boundary layer",
				logging.Int("countries", len(codes)),
				logging.Int("regions", len(layer.Records)),
			)
			if *outPath == "" {
				return nil
			}
			return boundary.WriteGeoJSON(layer, *outPath)
		}},
	)
}

func (a *app) topology(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("topology", pflag.ContinueOnError)
	networkPath := fs.String("network", "", "path to the network JSON file")
	outPath := fs.String("out", "topology.csv", "path for the topology CSV")
	prefix := fs.String("prefix", "", "prefix for the topology row index")
	connector := fs.String("connector", " <-> ", "string joining the two bus ids in the index")
	bidirectional := fs.Bool("bidirectional", true, "treat each branch as usable in both directions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *networkPath == "" {
		return fmt.Errorf("topology: --network is required")
	}

	var (
		n       *network.Network
		entries []topology.Entry
	)
	runner := pipeline.NewRunner(a.log, a.metrics)
	return runner.Run(ctx,
		pipeline.Stage{Name: "load-network", Run: func(ctx context.Context) error {
			var summary *network.Summary
			var err error
			n, summary, err = network.LoadFile(*networkPath)
			if err != nil {
				return err
			}
			counts := summary.Counts
			a.metrics.SetNetworkCounts(counts.Buses, counts.Lines, counts.Links, counts.Generators)
			a.log.Info(ctx, "loaded network",
				logging.Int("buses", counts.Buses),
				logging.Int("lines", counts.Lines),
				logging.Int("links", counts.Links),
			)
			return nil
		}},
		pipeline.Stage{Name: "build-topology", Run: func(ctx context.Context) error {
			entries = topology.Build(n, topology.Options{
				Prefix:        *prefix,
				Connector:     *connector,
				Bidirectional: *bidirectional,
			})
			a.log.Info(ctx, "built topology", logging.Int("rows", len(entries)))
			return nil
		}},
		pipeline.Stage{Name: "write-topology", Run: func(ctx context.Context) error {
			return topology.WriteCSV(entries, *outPath)
		}},
	)
}

func (a *app) costs(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("costs", pflag.ContinueOnError)
	costsPath := fs.String("costs", "", "path to the raw cost CSV")
	outPath := fs.String("out", "costs_prepared.csv", "path for the prepared cost CSV")
	usdToEUR := fs.Float64("usd-to-eur", 0.92, "USD to EUR conversion rate")
	discountRate := fs.Float64("discount-rate", 0.07, "default discount rate")
	nYears := fs.Float64("nyears", 1, "number of modelled years scaling the fixed cost")
	lifetime := fs.Float64("lifetime", 25, "fallback lifetime in years")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *costsPath == "" {
		return fmt.Errorf("costs: --costs is required")
	}

	tc, err := costs.PrepareFile(*costsPath, costs.Options{
		USDToEUR:     *usdToEUR,
		DiscountRate: *discountRate,
		NYears:       *nYears,
		Lifetime:     *lifetime,
	})
	if err != nil {
		return err
	}
	a.log.Info(ctx, "prepared cost table", logging.Int("technologies", len(tc)))
	return tabular.WriteCSV(costTable(tc), *outPath)
}

// costTable flattens the prepared costs back into long form, sorted for
// reproducible output.
func costTable(tc costs.TechCosts) *tabular.Table {
	t := &tabular.Table{Header: []string{"technology", "parameter", "value"}}

	techs := make([]string, 0, len(tc))
	for tech := range tc {
		techs = append(techs, tech)
	}
	sort.Strings(techs)

	for _, tech := range techs {
		params := make([]string, 0, len(tc[tech]))
		for p := range tc[tech] {
			params = append(params, p)
		}
		sort.Strings(params)
		for _, p := range params {
			t.Rows = append(t.Rows, []string{tech, p, fmt.Sprintf("%g", tc[tech][p])})
		}
	}
	return t
}

func (a *app) aggregate(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("aggregate", pflag.ContinueOnError)
	networkPath := fs.String("network", "", "path to the network JSON file")
	kind := fs.String("report", "capacity", "report kind: capacity, dispatch, energy, curtailment or costs")
	existingOnly := fs.Bool("existing-only", false, "use built capacity instead of optimised capacity for costs")
	convTechs := fs.StringSlice("conv-techs", nil, "conventional carriers whose marginal costs get their own row")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *networkPath == "" {
		return fmt.Errorf("aggregate: --network is required")
	}

	n, summary, err := network.LoadFile(*networkPath)
	if err != nil {
		return err
	}
	counts := summary.Counts
	a.metrics.SetNetworkCounts(counts.Buses, counts.Lines, counts.Links, counts.Generators)

	var series report.Series
	switch *kind {
	case "capacity":
		series = report.AggregateCapacity(n)
	case "dispatch":
		series = report.AggregateDispatch(n)
	case "energy":
		series = report.AggregateEnergy(n)
	case "curtailment":
		series = report.AggregateCurtailment(n)
	case "costs":
		series = report.AggregateCosts(n, *existingOnly).Flatten(*convTechs)
	default:
		return fmt.Errorf("aggregate: unknown report kind %q", *kind)
	}

	a.log.Info(ctx, "aggregated network",
		logging.String("report", *kind),
		logging.Int("carriers", len(series)),
	)
	for _, key := range series.Keys() {
		fmt.Printf("%s,%g\n", key, series[key])
	}
	return nil
}

func (a *app) cutoutBounds(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("cutout-bounds", pflag.ContinueOnError)
	onshorePath := fs.String("onshore", "", "path to the onshore regions GeoJSON")
	offshorePath := fs.String("offshore", "", "path to the offshore regions GeoJSON")
	outPath := fs.String("out", "cutout.json", "path for the cutout request JSON")
	module := fs.String("module", cutout.DefaultModule, "climate dataset module")
	dx := fs.Float64("dx", cutout.DefaultDX, "grid cell width in degrees")
	dy := fs.Float64("dy", cutout.DefaultDY, "grid cell height in degrees")
	startRaw := fs.String("start", "", "start of the weather range (RFC3339 or YYYY-MM-DD)")
	endRaw := fs.String("end", "", "end of the weather range (RFC3339 or YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *onshorePath == "" && *offshorePath == "" {
		return fmt.Errorf("cutout-bounds: at least one of --onshore and --offshore is required")
	}

	start, err := parseTime(*startRaw)
	if err != nil {
		return fmt.Errorf("cutout-bounds: bad --start: %w", err)
	}
	end, err := parseTime(*endRaw)
	if err != nil {
		return fmt.Errorf("cutout-bounds: bad --end: %w", err)
	}

	readLayer := func(path string) (*boundary.Layer, error) {
		if path == "" {
			return &boundary.Layer{}, nil
		}
		return boundary.ReadGeoJSON(path)
	}
	onshore, err := readLayer(*onshorePath)
	if err != nil {
		return err
	}
	offshore, err := readLayer(*offshorePath)
	if err != nil {
		return err
	}

	req, err := cutout.Build(cutout.Options{
		Module: *module,
		DX:     *dx,
		DY:     *dy,
		Start:  start,
		End:    end,
	}, onshore, offshore)
	if err != nil {
		return err
	}

	a.log.Info(ctx, "built cutout request",
		logging.String("module", req.Module),
		logging.Float64("x_min", req.XMin),
		logging.Float64("x_max", req.XMax),
		logging.Float64("y_min", req.YMin),
		logging.Float64("y_max", req.YMax),
	)
	return req.WriteJSON(*outPath)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}

func serveMetrics(addr string, collector *observability.PipelineCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
