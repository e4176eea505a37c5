package tools

import (
	"context"

	"github.com/seenimoa/nsequant/internal/screen"
)

// Discovery tool names.
const (
	ToolCheckAvailability  = "check_data_availability"
	ToolListIndices        = "list_indices"
	ToolIndexConstituents  = "get_index_constituents"
	ToolMarketCapCategory  = "get_market_cap_category"
	ToolSectorStocks       = "get_sector_stocks"
	ToolListSectors        = "list_sectors"
	ToolListAvailableTools = "list_available_tools"
)

// Descriptor is the catalog view of a tool.
type Descriptor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters"`
}

// Catalog lists every registered tool.
type Catalog struct {
	Count int          `json:"count"`
	Tools []Descriptor `json:"tools"`
}

// Describe returns the catalog of r.
func (r *Registry) Describe() Catalog {
	list := r.List()
	out := Catalog{Count: len(list), Tools: make([]Descriptor, len(list))}
	for i, t := range list {
		out.Tools[i] = Descriptor{Name: t.Name, Description: t.Description, Parameters: t.Parameters}
	}
	return out
}

func noArgs(desc string) *Schema { return ObjectSchema(desc, map[string]*Schema{}) }

func registerDiscovery(r *Registry, e *screen.Engine) {
	add := func(name, desc string, params *Schema, h Handler) {
		r.Register(Tool{Name: name, Description: desc, Parameters: params, Handler: h})
	}

	add(ToolCheckAvailability, "Loaded date range, record counts and cache state",
		noArgs("Data availability"),
		bind(func(ctx context.Context, _ Args) (any, error) {
			av, err := e.CheckAvailability(ctx)
			if err != nil {
				return nil, err
			}
			return av, nil
		}))

	add(ToolListIndices, "Every recognised index with its constituent count",
		noArgs("List indices"),
		bind(func(context.Context, Args) (any, error) { return e.ListIndices(), nil }))

	add(ToolIndexConstituents, "Symbols belonging to one index",
		ObjectSchema("Index constituents", map[string]*Schema{"index": StringProp("Index name, e.g. NIFTY BANK")}, "index"),
		bind(func(_ context.Context, a Args) (any, error) {
			if err := required("index", a.Index); err != nil {
				return nil, err
			}
			m, err := e.IndexConstituents(a.Index)
			if err != nil {
				return nil, err
			}
			return m, nil
		}))

	add(ToolSectorStocks, "Symbols belonging to one sector",
		ObjectSchema("Sector stocks", map[string]*Schema{"sector": StringProp("Sector name")}, "sector"),
		bind(func(_ context.Context, a Args) (any, error) {
			if err := required("sector", a.Sector); err != nil {
				return nil, err
			}
			m, err := e.SectorStocks(a.Sector)
			if err != nil {
				return nil, err
			}
			return m, nil
		}))

	add(ToolListSectors, "Every sector with its stock count",
		noArgs("List sectors"),
		bind(func(context.Context, Args) (any, error) { return e.ListSectors(), nil }))

	add(ToolMarketCapCategory, "Market-cap bucket, sector and index memberships of each symbol",
		ObjectSchema("Classify symbols", map[string]*Schema{
			"symbols": ArrayProp("NSE symbols", StringProp("NSE symbol")),
			"symbol":  StringProp("A single NSE symbol"),
		}),
		bind(func(_ context.Context, a Args) (any, error) {
			syms := a.Symbols
			if a.Symbol != "" {
				syms = append([]string{a.Symbol}, syms...)
			}
			out, err := e.MarketCapCategory(syms)
			if err != nil {
				return nil, err
			}
			return map[string]any{"count": len(out), "symbols": out}, nil
		}))

	add(ToolListAvailableTools, "Catalog of every tool with its parameters",
		noArgs("List tools"),
		bind(func(context.Context, Args) (any, error) { return r.Describe(), nil }))
}
