package screen

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// Selector names how a universe is chosen.
type Selector string

// Selectors accepted by Universe.Kind.
const (
	SelectAll       Selector = "all"
	SelectSymbols   Selector = "symbols"
	SelectSector    Selector = "sector"
	SelectMarketCap Selector = "market_cap"
	SelectIndex     Selector = "index"
)

// Universe is the set of symbols a query runs over. The zero value is the
// whole market.
type Universe struct {
	Kind    Selector
	Symbols []string
	Name    string // sector, market-cap bucket or index name
}

// All is the whole market.
func All() Universe { return Universe{Kind: SelectAll} }

// Symbols is an explicit symbol list.
func Symbols(symbols ...string) Universe {
	return Universe{Kind: SelectSymbols, Symbols: symbols}
}

// Sector selects the symbols mapped to a sector.
func Sector(name string) Universe { return Universe{Kind: SelectSector, Name: name} }

// MarketCap selects a LARGE, MID or SMALL bucket.
func MarketCap(name string) Universe { return Universe{Kind: SelectMarketCap, Name: name} }

// Index selects an index's constituents.
func Index(name string) Universe { return Universe{Kind: SelectIndex, Name: name} }

func (u Universe) kind() Selector {
	if u.Kind == "" {
		return SelectAll
	}
	return u.Kind
}

// ErrEmptyUniverse is wrapped by InvalidUniverseError for an explicit
// symbol list with no usable tickers.
var ErrEmptyUniverse = errors.New("no symbols given")

// ErrUnknownMarketCap is wrapped by InvalidUniverseError for a market-cap
// name outside LARGE, MID and SMALL.
var ErrUnknownMarketCap = errors.New("market cap must be LARGE, MID or SMALL")

// InvalidUniverseError is returned when a selector does not resolve. It is
// a caller error, not a data problem.
type InvalidUniverseError struct {
	Selector Selector
	Value    string
	Err      error
}

func (e *InvalidUniverseError) Error() string {
	return fmt.Sprintf("invalid universe %s %q: %v", e.Selector, e.Value, e.Err)
}

func (e *InvalidUniverseError) Unwrap() error { return e.Err }

// resolved is a universe turned into concrete symbols.
type resolved struct {
	symbols []string // sorted, unique
	label   string
}

func (e *Engine) resolve(u Universe) (resolved, error) {
	switch u.kind() {
	case SelectAll:
		return resolved{symbols: e.prices.Symbols(), label: "all"}, nil

	case SelectSymbols:
		syms := utils.NormalizeTickers(u.Symbols)
		if len(syms) == 0 {
			return resolved{}, &InvalidUniverseError{Selector: SelectSymbols, Value: strings.Join(u.Symbols, ","), Err: ErrEmptyUniverse}
		}
		label := strings.Join(syms, ",")
		sorted := append([]string(nil), syms...)
		sort.Strings(sorted)
		return resolved{symbols: sorted, label: "symbols:" + label}, nil

	case SelectSector:
		name, syms, err := e.index.SectorMembers(u.Name)
		if err != nil {
			return resolved{}, &InvalidUniverseError{Selector: SelectSector, Value: u.Name, Err: err}
		}
		return resolved{symbols: syms, label: "sector:" + name}, nil

	case SelectMarketCap:
		c, ok := models.ParseMarketCap(u.Name)
		if !ok {
			return resolved{}, &InvalidUniverseError{Selector: SelectMarketCap, Value: u.Name, Err: ErrUnknownMarketCap}
		}
		return resolved{symbols: e.index.MembersOfCategory(c), label: "market_cap:" + string(c)}, nil

	case SelectIndex:
		name, syms, err := e.index.MembersOf(u.Name)
		if err != nil {
			return resolved{}, &InvalidUniverseError{Selector: SelectIndex, Value: u.Name, Err: err}
		}
		return resolved{symbols: syms, label: "index:" + name}, nil
	}
	return resolved{}, &InvalidUniverseError{Selector: u.Kind, Value: u.Name, Err: errors.New("unknown selector")}
}
