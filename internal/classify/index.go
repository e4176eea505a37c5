// Package classify maps symbols to market-cap buckets, index memberships and
// sectors. An Index is built once from reference files and is read-only.
package classify

import (
	"sort"
	"strings"

	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// ── Market cap and sector rules ──

// capTiers decide a symbol's market-cap bucket. Tiers are checked in order
// and the first index containing the symbol wins.
var capTiers = []struct {
	cap     models.MarketCap
	indices []string
}{
	{models.MarketCapLarge, []string{"NIFTY50", "NIFTYNEXT50"}},
	{models.MarketCapMid, []string{"NIFTYMIDCAP50", "NIFTYMIDCAP100", "NIFTYMIDCAP150", "NIFTYMIDCAPSELECT"}},
	{models.MarketCapSmall, []string{"NIFTYSMALLCAP50", "NIFTYSMALLCAP100", "NIFTYSMALLCAP250", "NIFTYMICROCAP250"}},
}

// sectorIndices is the fallback from a sector name to its sectoral index,
// used when the sector mapping file does not cover a symbol.
var sectorIndices = []struct {
	sector string
	index  string
}{
	{"Banking", "NIFTYBANK"},
	{"IT", "NIFTYIT"},
	{"Auto", "NIFTYAUTO"},
	{"Pharma", "NIFTYPHARMA"},
	{"FMCG", "NIFTYFMCG"},
	{"Metals", "NIFTYMETAL"},
	{"Energy", "NIFTYOILGAS"},
	{"Healthcare", "NIFTYHEALTHCARE"},
	{"Media", "NIFTYMEDIA"},
	{"Realty", "NIFTYREALTY"},
	{"Financial Services", "NIFTYFINANCE"},
	{"Consumer Durables", "NIFTYCONSUMERDURABLES"},
	{"Chemicals", "NIFTYCHEMICALS"},
	{"Private Banks", "NIFTYPRIVATEBANK"},
	{"PSU Banks", "NIFTYPSUBANK"},
}

// CanonicalIndex normalises an index name: upper case with spaces,
// underscores and hyphens removed. "Nifty Midcap-150" becomes NIFTYMIDCAP150.
func CanonicalIndex(name string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToUpper(strings.TrimSpace(name)))
}

// ── Index ──

// Index is the immutable classification lookup.
type Index struct {
	indices  map[string][]string         // index → sorted symbols
	members  map[string]map[string]bool  // index → symbol set
	bySymbol map[string][]string         // symbol → sorted index names
	category map[string]models.MarketCap // symbol → bucket, absent means UNKNOWN
	sectors  map[string]string           // symbol → sector from the mapping file
}

// Stats summarises an Index.
type Stats struct {
	Indices     int            `json:"indices"`
	Symbols     int            `json:"symbols"`
	SectorRows  int            `json:"sector_rows"`
	MarketCaps  map[string]int `json:"market_caps"`
	LargestName string         `json:"largest_index,omitempty"`
	LargestSize int            `json:"largest_index_size,omitempty"`
}

// NewFromMaps builds an Index from index → symbols and symbol → sector maps.
// Names and symbols are normalised; duplicates collapse.
func NewFromMaps(indices map[string][]string, sectors map[string]string) *Index {
	ix := &Index{
		indices:  make(map[string][]string, len(indices)),
		members:  make(map[string]map[string]bool, len(indices)),
		bySymbol: make(map[string][]string),
		category: make(map[string]models.MarketCap),
		sectors:  make(map[string]string, len(sectors)),
	}

	for name, symbols := range indices {
		key := CanonicalIndex(name)
		if key == "" {
			continue
		}
		set := ix.members[key]
		if set == nil {
			set = make(map[string]bool, len(symbols))
			ix.members[key] = set
		}
		for _, s := range symbols {
			if s = utils.CleanSymbol(s); s != "" {
				set[s] = true
			}
		}
	}

	for key, set := range ix.members {
		list := make([]string, 0, len(set))
		for s := range set {
			list = append(list, s)
			ix.bySymbol[s] = append(ix.bySymbol[s], key)
		}
		sort.Strings(list)
		ix.indices[key] = list
	}
	for s := range ix.bySymbol {
		sort.Strings(ix.bySymbol[s])
	}

	for _, tier := range capTiers {
		for _, name := range tier.indices {
			for s := range ix.members[name] {
				if _, done := ix.category[s]; !done {
					ix.category[s] = tier.cap
				}
			}
		}
	}

	for sym, sector := range sectors {
		sym = utils.CleanSymbol(sym)
		sector = strings.TrimSpace(sector)
		if sym == "" || sector == "" {
			continue
		}
		// Keys that normalise to the same symbol keep the smallest sector.
		if prev, ok := ix.sectors[sym]; !ok || sector < prev {
			ix.sectors[sym] = sector
		}
	}
	return ix
}

// Empty reports whether the index holds no reference data at all.
func (ix *Index) Empty() bool {
	return len(ix.indices) == 0 && len(ix.sectors) == 0
}

// resolve finds the stored key for a user-supplied index name. "IT",
// "nifty it" and "NIFTYIT" all resolve to NIFTYIT.
func (ix *Index) resolve(name string) (string, bool) {
	key := CanonicalIndex(name)
	if key == "" {
		return "", false
	}
	for _, cand := range []string{key, "NIFTY" + key, strings.TrimPrefix(key, "NIFTY")} {
		if _, ok := ix.indices[cand]; ok {
			return cand, true
		}
	}
	return "", false
}

// ListIndices returns every known index name, sorted.
func (ix *Index) ListIndices() []string {
	out := make([]string, 0, len(ix.indices))
	for name := range ix.indices {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IndexSizes returns the constituent count per index.
func (ix *Index) IndexSizes() map[string]int {
	out := make(map[string]int, len(ix.indices))
	for name, list := range ix.indices {
		out[name] = len(list)
	}
	return out
}

// HasIndex reports whether name resolves to a known index.
func (ix *Index) HasIndex(name string) bool {
	_, ok := ix.resolve(name)
	return ok
}

// MembersOf returns the sorted constituents of an index together with the
// canonical name it resolved to.
func (ix *Index) MembersOf(name string) (string, []string, error) {
	key, ok := ix.resolve(name)
	if !ok {
		return "", nil, &UnknownIndexError{Name: name}
	}
	out := make([]string, len(ix.indices[key]))
	copy(out, ix.indices[key])
	return key, out, nil
}

// IndicesOf returns the sorted indices containing symbol, possibly none.
func (ix *Index) IndicesOf(symbol string) []string {
	list := ix.bySymbol[utils.CleanSymbol(symbol)]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// CategoryOf returns the market-cap bucket of symbol.
func (ix *Index) CategoryOf(symbol string) models.MarketCap {
	if c, ok := ix.category[utils.CleanSymbol(symbol)]; ok {
		return c
	}
	return models.MarketCapUnknown
}

// MembersOfCategory returns every symbol in the bucket, sorted. UNKNOWN
// yields nothing since it is the complement of the known buckets.
func (ix *Index) MembersOfCategory(c models.MarketCap) []string {
	var out []string
	for s, cat := range ix.category {
		if cat == c {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// SectorOf returns symbol's sector: the mapping file first, then the first
// sectoral index containing it. "" means unclassified.
func (ix *Index) SectorOf(symbol string) string {
	symbol = utils.CleanSymbol(symbol)
	if s, ok := ix.sectors[symbol]; ok {
		return s
	}
	for _, si := range sectorIndices {
		if ix.members[si.index][symbol] {
			return si.sector
		}
	}
	return ""
}

// SectorMembers returns the symbols in a sector, sorted, along with the
// sector's display name. The mapping file is consulted first (case
// insensitive); failing that, the sector's index constituents are used.
func (ix *Index) SectorMembers(sector string) (string, []string, error) {
	want := strings.TrimSpace(sector)
	if want == "" {
		return "", nil, &UnknownSectorError{Name: sector}
	}

	var (
		name string
		out  []string
	)
	for sym, s := range ix.sectors {
		if strings.EqualFold(s, want) {
			out = append(out, sym)
			if name == "" || s < name {
				name = s
			}
		}
	}
	if len(out) > 0 {
		sort.Strings(out)
		return name, out, nil
	}

	for _, si := range sectorIndices {
		if !strings.EqualFold(si.sector, want) {
			continue
		}
		if list := ix.indices[si.index]; len(list) > 0 {
			out = make([]string, len(list))
			copy(out, list)
			return si.sector, out, nil
		}
	}
	return "", nil, &UnknownSectorError{Name: sector}
}

// ListSectors returns the sector names that resolve to at least one symbol,
// with member counts. Spellings that differ only in case are one sector,
// shown under the lexically smallest spelling as in SectorMembers.
func (ix *Index) ListSectors() map[string]int {
	seen := make(map[string]string) // lower-case → display name
	counts := make(map[string]int)   // lower-case → members
	for _, s := range ix.sectors {
		key := strings.ToLower(s)
		if name, ok := seen[key]; !ok || s < name {
			seen[key] = s
		}
		counts[key]++
	}
	out := make(map[string]int, len(counts))
	for key, n := range counts {
		out[seen[key]] = n
	}
	for _, si := range sectorIndices {
		if _, ok := seen[strings.ToLower(si.sector)]; ok {
			continue
		}
		if n := len(ix.indices[si.index]); n > 0 {
			out[si.sector] = n
		}
	}
	return out
}

// Classify returns everything known about a symbol.
func (ix *Index) Classify(symbol string) models.Classification {
	symbol = utils.CleanSymbol(symbol)
	return models.Classification{
		Symbol:    symbol,
		MarketCap: ix.CategoryOf(symbol),
		Sector:    ix.SectorOf(symbol),
		Indices:   ix.IndicesOf(symbol),
	}
}

// Stats summarises the loaded reference data.
func (ix *Index) Stats() Stats {
	st := Stats{
		Indices:    len(ix.indices),
		Symbols:    len(ix.bySymbol),
		SectorRows: len(ix.sectors),
		MarketCaps: map[string]int{},
	}
	for _, c := range ix.category {
		st.MarketCaps[string(c)]++
	}
	for _, name := range ix.ListIndices() {
		if n := len(ix.indices[name]); n > st.LargestSize {
			st.LargestName, st.LargestSize = name, n
		}
	}
	return st
}

// snapshot exports the raw maps for caching.
func (ix *Index) snapshot() (map[string][]string, map[string]string) {
	indices := make(map[string][]string, len(ix.indices))
	for k, v := range ix.indices {
		indices[k] = v
	}
	sectors := make(map[string]string, len(ix.sectors))
	for k, v := range ix.sectors {
		sectors[k] = v
	}
	return indices, sectors
}
