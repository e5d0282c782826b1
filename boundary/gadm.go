package boundary

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/signalsfoundry/gridprep/country"
	"github.com/signalsfoundry/gridprep/internal/logging"
	"github.com/signalsfoundry/gridprep/internal/observability"
)

// DefaultGADMBaseURL serves per-country, per-level GADM 4.1 GeoJSON archives
// named gadm41_{ISO3}_{level}.json.zip.
const DefaultGADMBaseURL = "https://geodata.ucdavis.edu/gadm/gadm4.1/json"

// Fetcher downloads GADM boundary layers over HTTPS and caches the extracted
// GeoJSON locally by filename. Downloads are plain blocking calls; a network
// failure is fatal to the invocation.
type Fetcher struct {
	BaseURL  string
	CacheDir string
	Client   *http.Client

	// Update forces a re-download even when the file is cached.
	Update bool

	Resolver *country.Resolver
	Log      logging.Logger
	Metrics  *observability.PipelineCollector
}

// NewFetcher builds a Fetcher with the default GADM endpoint and HTTP client.
func NewFetcher(cacheDir string, resolver *country.Resolver, log logging.Logger, metrics *observability.PipelineCollector) *Fetcher {
	if log == nil {
		log = logging.Noop()
	}
	return &Fetcher{
		BaseURL:  DefaultGADMBaseURL,
		CacheDir: cacheDir,
		Client:   http.DefaultClient,
		Resolver: resolver,
		Log:      log,
		Metrics:  metrics,
	}
}

// Fetch ensures the boundary file for one country and nesting level is
// available locally and returns its path.
func (f *Fetcher) Fetch(ctx context.Context, countryCode string, level int) (string, error) {
	iso3, err := f.Resolver.ToISO3(countryCode)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("gadm41_%s_%d.json", iso3, level)
	local := filepath.Join(f.CacheDir, filename)

	if !f.Update {
		if _, err := os.Stat(local); err == nil {
			f.Metrics.ObserveDownload(countryCode, true)
			f.Log.Debug(ctx, "boundary layer cached", logging.String("path", local))
			return local, nil
		}
	}

	if err := os.MkdirAll(f.CacheDir, 0o755); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s.zip", strings.TrimRight(f.BaseURL, "/"), filename)
	f.Log.Info(ctx, "downloading boundary layer",
		logging.String("country", countryCode),
		logging.String("url", url),
	)

	archive, err := f.download(ctx, url)
	if err != nil {
		return "", err
	}
	defer os.Remove(archive)

	if err := extractJSON(archive, local); err != nil {
		return "", fmt.Errorf("extract %s: %w", filename, err)
	}

	f.Metrics.ObserveDownload(countryCode, false)
	return local, nil
}

// FetchLayer downloads (or reuses) the boundary files for a country list and
// concatenates them into one layer at the given nesting level. Composite ids
// are normalised to carry the ISO2 country prefix so substring filtering by
// 2-letter code works across the layer.
func (f *Fetcher) FetchLayer(ctx context.Context, countries []string, level int) (*Layer, error) {
	combined := &Layer{}
	for _, code := range countries {
		path, err := f.Fetch(ctx, code, level)
		if err != nil {
			return nil, err
		}
		part, err := f.readGADM(path, level)
		if err != nil {
			return nil, err
		}
		combined.Records = append(combined.Records, part.Records...)
	}
	return combined, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(f.CacheDir, "gadm-*.zip")
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save %s: %w", url, err)
	}
	return tmp.Name(), nil
}

// extractJSON pulls the first .json member out of a downloaded archive.
func extractJSON(archivePath, dest string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, member := range zr.File {
		if !strings.HasSuffix(member.Name, ".json") {
			continue
		}
		rc, err := member.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		out, err := os.Create(dest)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}
	return fmt.Errorf("no .json member in %s", archivePath)
}

// readGADM parses a raw GADM file, mapping the level-specific property keys
// onto Layer records and rewriting the ISO3 id prefix to ISO2.
func (f *Fetcher) readGADM(path string, level int) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	idKey := fmt.Sprintf("GID_%d", level)
	nameKey := fmt.Sprintf("NAME_%d", level)
	if level == 0 {
		nameKey = "COUNTRY"
	}

	layer := &Layer{Records: make([]Record, 0, len(fc.Features))}
	for _, feat := range fc.Features {
		if feat == nil || feat.Geometry == nil {
			continue
		}

		gid := feat.Properties.MustString(idKey, "")
		iso3 := feat.Properties.MustString("GID_0", "")
		iso2, err := f.Resolver.ToISO2(iso3)
		if err != nil {
			return nil, fmt.Errorf("normalise %s: %w", path, err)
		}
		if strings.HasPrefix(gid, iso3) {
			gid = iso2 + gid[len(iso3):]
		}

		layer.Records = append(layer.Records, Record{
			ID:       gid,
			Country:  iso2,
			Name:     feat.Properties.MustString(nameKey, ""),
			Geometry: feat.Geometry,
		})
	}
	return layer, nil
}
