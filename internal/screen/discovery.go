package screen

import (
	"context"
	"sort"

	"github.com/seenimoa/nsequant/internal/classify"
	"github.com/seenimoa/nsequant/internal/store"
	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// Availability describes what data the engine can answer from.
type Availability struct {
	Status         models.Status   `json:"status"`
	MinDate        string          `json:"min_date,omitempty"`
	MaxDate        string          `json:"max_date,omitempty"`
	Records        int             `json:"record_count"`
	Symbols        int             `json:"symbol_count"`
	TradingDays    int             `json:"trading_days"`
	Source         store.Source    `json:"source,omitempty"`
	Cache          store.CacheInfo `json:"cache"`
	Classification classify.Stats  `json:"classification"`
}

// CheckAvailability reports the loaded range and cache state. Callers use it
// to pick a valid range before querying.
func (e *Engine) CheckAvailability(ctx context.Context) (*Availability, error) {
	if err := e.prices.Load(ctx); err != nil {
		return nil, err
	}
	av := e.prices.AvailableRange()
	out := &Availability{
		Status:         models.StatusOK,
		MinDate:        utils.FormatDate(av.MinDate),
		MaxDate:        utils.FormatDate(av.MaxDate),
		Records:        av.Records,
		Symbols:        av.Symbols,
		TradingDays:    av.TradingDays,
		Source:         e.prices.Source(),
		Cache:          e.prices.CacheStatus(),
		Classification: e.index.Stats(),
	}
	if av.Empty() {
		out.Status = models.StatusNoData
	}
	return out, nil
}

// IndexInfo is one entry of ListIndices.
type IndexInfo struct {
	Name         string `json:"name"`
	Constituents int    `json:"constituents"`
}

// IndexList is the ListIndices result.
type IndexList struct {
	Count   int         `json:"count"`
	Indices []IndexInfo `json:"indices"`
}

// ListIndices returns every recognised index with its size.
func (e *Engine) ListIndices() IndexList {
	sizes := e.index.IndexSizes()
	out := IndexList{Indices: []IndexInfo{}}
	for _, name := range e.index.ListIndices() {
		out.Indices = append(out.Indices, IndexInfo{Name: name, Constituents: sizes[name]})
	}
	out.Count = len(out.Indices)
	return out
}

// Members lists the symbols of an index or sector.
type Members struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	Symbols []string `json:"symbols"`
}

// IndexConstituents returns the members of an index. An unknown name is an
// InvalidUniverseError wrapping classify.UnknownIndexError.
func (e *Engine) IndexConstituents(name string) (*Members, error) {
	key, syms, err := e.index.MembersOf(name)
	if err != nil {
		return nil, &InvalidUniverseError{Selector: SelectIndex, Value: name, Err: err}
	}
	return &Members{Name: key, Count: len(syms), Symbols: syms}, nil
}

// SectorStocks returns the symbols of a sector.
func (e *Engine) SectorStocks(sector string) (*Members, error) {
	name, syms, err := e.index.SectorMembers(sector)
	if err != nil {
		return nil, &InvalidUniverseError{Selector: SelectSector, Value: sector, Err: err}
	}
	return &Members{Name: name, Count: len(syms), Symbols: syms}, nil
}

// SectorInfo is one entry of ListSectors.
type SectorInfo struct {
	Name   string `json:"name"`
	Stocks int    `json:"stocks"`
}

// SectorList is the ListSectors result.
type SectorList struct {
	Count   int          `json:"count"`
	Sectors []SectorInfo `json:"sectors"`
}

// ListSectors returns every sector that resolves to at least one symbol.
func (e *Engine) ListSectors() SectorList {
	counts := e.index.ListSectors()
	out := SectorList{Sectors: make([]SectorInfo, 0, len(counts))}
	for name, n := range counts {
		out.Sectors = append(out.Sectors, SectorInfo{Name: name, Stocks: n})
	}
	sort.Slice(out.Sectors, func(i, j int) bool { return out.Sectors[i].Name < out.Sectors[j].Name })
	out.Count = len(out.Sectors)
	return out
}

// MarketCapCategory classifies each requested symbol. Unknown symbols are
// UNKNOWN, not errors.
func (e *Engine) MarketCapCategory(symbols []string) ([]models.Classification, error) {
	syms := utils.NormalizeTickers(symbols)
	if len(syms) == 0 {
		return nil, &InvalidUniverseError{Selector: SelectSymbols, Err: ErrEmptyUniverse}
	}
	out := make([]models.Classification, len(syms))
	for i, s := range syms {
		out[i] = e.index.Classify(s)
	}
	return out, nil
}
