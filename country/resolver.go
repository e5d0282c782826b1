package country

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pariz/gountries"
	"github.com/signalsfoundry/gridprep/internal/logging"
)

// Senegal and Gambia are modelled as one shared region upstream. The joined
// codes are recognised by exact match before any generic conversion.
const (
	CompositeISO2 = "SN-GM"
	CompositeISO3 = "SEN-GMB"

	compositeSep = "-"
)

// EarthToken expands to every country of every configured continent.
const EarthToken = "Earth"

// NameStyle selects between the short and the official country name.
type NameStyle string

const (
	NameShort    NameStyle = "short"
	NameOfficial NameStyle = "official"
)

// NameOptions controls DisplayName output shaping.
type NameOptions struct {
	Style NameStyle // defaults to NameShort

	// StripComma turns a name of the form "X, Y" into "Y X"
	// (e.g. "Congo, The Democratic Republic of" -> "The Democratic Republic of Congo").
	StripComma bool

	// DropLeadingWords strips the first matching literal prefix from the
	// result; only the first match is applied and matching is case-sensitive.
	// Include a trailing space in the word to avoid a leading gap.
	DropLeadingWords []string
}

// Resolver converts country identifiers and expands region tokens. The
// conversion table is the embedded gountries dataset; region groups come from
// the RegionConfig supplied at construction.
type Resolver struct {
	q   *gountries.Query
	cfg *RegionConfig
	log logging.Logger
}

// NewResolver builds a Resolver. cfg may be nil when region expansion is not
// needed; log may be nil.
func NewResolver(cfg *RegionConfig, log logging.Logger) *Resolver {
	if log == nil {
		log = logging.Noop()
	}
	return &Resolver{
		q:   gountries.New(),
		cfg: cfg,
		log: log,
	}
}

// ToISO3 converts a 2-letter country code to its 3-letter form. The composite
// shared-region code converts part by part, rejoined with the same separator.
// Unresolvable codes surface as an error from the conversion lookup.
func (r *Resolver) ToISO3(code string) (string, error) {
	if code == CompositeISO2 {
		parts := strings.Split(code, compositeSep)
		out := make([]string, len(parts))
		for i, p := range parts {
			conv, err := r.ToISO3(p)
			if err != nil {
				return "", err
			}
			out[i] = conv
		}
		return strings.Join(out, compositeSep), nil
	}

	c, err := r.q.FindCountryByAlpha(code)
	if err != nil {
		return "", fmt.Errorf("convert %q to ISO3: %w", code, err)
	}
	return c.Alpha3, nil
}

// ToISO2 converts a 3-letter country code to its 2-letter form; inverse of
// ToISO3, with the same composite-handling rule.
func (r *Resolver) ToISO2(code string) (string, error) {
	if code == CompositeISO3 {
		parts := strings.Split(code, compositeSep)
		out := make([]string, len(parts))
		for i, p := range parts {
			conv, err := r.ToISO2(p)
			if err != nil {
				return "", err
			}
			out[i] = conv
		}
		return strings.Join(out, compositeSep), nil
	}

	c, err := r.q.FindCountryByAlpha(code)
	if err != nil {
		return "", fmt.Errorf("convert %q to ISO2: %w", code, err)
	}
	return c.Alpha2, nil
}

// DisplayName converts a 2-letter country code to a display name. The
// composite shared-region code renders both parts with default options,
// joined by the separator.
func (r *Resolver) DisplayName(code string, opts NameOptions) (string, error) {
	if code == CompositeISO2 {
		parts := strings.Split(code, compositeSep)
		out := make([]string, len(parts))
		for i, p := range parts {
			name, err := r.DisplayName(p, NameOptions{})
			if err != nil {
				return "", err
			}
			out[i] = name
		}
		return strings.Join(out, compositeSep), nil
	}

	c, err := r.q.FindCountryByAlpha(code)
	if err != nil {
		return "", fmt.Errorf("convert %q to name: %w", code, err)
	}

	name := c.Name.Common
	if opts.Style == NameOfficial {
		name = c.Name.Official
	}

	if opts.StripComma {
		name = stripComma(name)
	}
	if len(opts.DropLeadingWords) > 0 {
		name = dropLeading(name, opts.DropLeadingWords)
	}
	return name, nil
}

// NameToISO2 converts a full country name to a 2-letter code, with the
// composite shared-region name matched exactly first.
func (r *Resolver) NameToISO2(name string) (string, error) {
	if composite, err := r.DisplayName(CompositeISO2, NameOptions{}); err == nil && name == composite {
		return CompositeISO2, nil
	}

	c, err := r.q.FindCountryByName(name)
	if err != nil {
		return "", fmt.Errorf("convert %q to ISO2: %w", name, err)
	}
	return c.Alpha2, nil
}

// ExpandRegionList turns a list of tokens (country codes, continent names,
// region-group names, or "Earth") into a deduplicated country-code list.
//
// Deduplication happens in an unordered set before the ISO-only filter, so
// the result does not depend on input token order. With isoOnly, tokens that
// are not exactly two characters are dropped after a warning naming them.
// The returned list is sorted.
func (r *Resolver) ExpandRegionList(ctx context.Context, tokens []string, isoOnly bool) []string {
	set := make(map[string]struct{})

	for _, tok := range tokens {
		switch {
		case tok == EarthToken:
			for _, continent := range r.cfg.Continents() {
				for _, code := range r.cfg.ContinentCodes(continent) {
					set[code] = struct{}{}
				}
			}
		case r.cfg != nil && r.cfg.WorldISO[tok] != nil:
			for _, code := range r.cfg.ContinentCodes(tok) {
				set[code] = struct{}{}
			}
		case r.cfg != nil && r.cfg.ContinentRegions[tok] != nil:
			for _, code := range r.cfg.ContinentRegions[tok] {
				set[code] = struct{}{}
			}
		default:
			set[tok] = struct{}{}
		}
	}

	codes := make([]string, 0, len(set))
	var dropped []string
	for code := range set {
		if isoOnly && len(code) != 2 {
			dropped = append(dropped, code)
			continue
		}
		codes = append(codes, code)
	}

	if len(dropped) > 0 {
		sort.Strings(dropped)
		r.log.Warn(ctx, "country list contains non-ISO codes, dropping them",
			logging.String("codes", strings.Join(dropped, ", ")),
		)
	}

	sort.Strings(codes)
	return codes
}

func stripComma(name string) string {
	parts := strings.Split(name, ", ")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " ")
}

func dropLeading(name string, words []string) string {
	for _, word := range words {
		if strings.HasPrefix(name, word) {
			return strings.Replace(name, word, "", 1)
		}
	}
	return name
}
