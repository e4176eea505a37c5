package tools

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/seenimoa/nsequant/internal/screen"
	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// Args is the union of every tool's JSON arguments. Each tool reads the
// fields it documents and ignores the rest.
type Args struct {
	Symbols     []string `json:"symbols,omitempty"`
	Symbol      string   `json:"symbol,omitempty"`
	Sector      string   `json:"sector,omitempty"`
	Index       string   `json:"index,omitempty"`
	MarketCap   string   `json:"market_cap,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	TopN        int      `json:"top_n,omitempty"`
	DetailLevel string   `json:"detail_level,omitempty"`

	Threshold     *float64 `json:"threshold,omitempty"`
	MaxVolatility *float64 `json:"max_volatility,omitempty"`
	MinDelivery   *float64 `json:"min_delivery,omitempty"`
	MinReturn     *float64 `json:"min_return,omitempty"`
	MinStreak     *int     `json:"min_streak,omitempty"`
	MinDivergence *float64 `json:"min_divergence,omitempty"`
	Side          string   `json:"side,omitempty"`
	Kind          string   `json:"kind,omitempty"`
}

// universe picks the selector from the first populated field, in the order
// symbols, sector, index, market_cap. None means the whole market.
func (a Args) universe() screen.Universe {
	switch {
	case len(a.Symbols) > 0:
		return screen.Symbols(a.Symbols...)
	case strings.TrimSpace(a.Sector) != "":
		return screen.Sector(a.Sector)
	case strings.TrimSpace(a.Index) != "":
		return screen.Index(a.Index)
	case strings.TrimSpace(a.MarketCap) != "":
		return screen.MarketCap(a.MarketCap)
	}
	return screen.All()
}

// Query converts the arguments into an engine query.
func (a Args) Query() (screen.Query, error) {
	start, err := utils.ParseDate(a.StartDate)
	if err != nil {
		return screen.Query{}, fmt.Errorf("%w: start_date: %v", ErrInvalidArguments, err)
	}
	end, err := utils.ParseDate(a.EndDate)
	if err != nil {
		return screen.Query{}, fmt.Errorf("%w: end_date: %v", ErrInvalidArguments, err)
	}
	if a.TopN < 0 {
		return screen.Query{}, fmt.Errorf("%w: top_n must not be negative", ErrInvalidArguments)
	}
	return screen.Query{
		Universe: a.universe(),
		Start:    start,
		End:      end,
		TopN:     a.TopN,
		Detail:   a.DetailLevel,
		Params: screen.Params{
			Threshold:     a.Threshold,
			MaxVolatility: a.MaxVolatility,
			MinDelivery:   a.MinDelivery,
			MinReturn:     a.MinReturn,
			MinStreak:     a.MinStreak,
			MinDivergence: a.MinDivergence,
			Side:          a.Side,
			Kind:          a.Kind,
		},
	}, nil
}

// bind adapts a typed handler to a JSON one.
func bind(fn func(ctx context.Context, a Args) (any, error)) Handler {
	return func(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
		var a Args
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return fn(ctx, a)
	}
}

// ranked binds a ranking tool that takes a Query.
func ranked(fn func(ctx context.Context, q screen.Query) (*models.Result, error)) Handler {
	return bind(func(ctx context.Context, a Args) (any, error) {
		q, err := a.Query()
		if err != nil {
			return nil, err
		}
		return result(fn(ctx, q))
	})
}

// result keeps a nil *models.Result from becoming a non-nil interface.
func result(res *models.Result, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return res, nil
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidArguments, name)
	}
	return nil
}

// ── Schemas ──

var detailProp = EnumProp("Output verbosity; compact returns symbol and metric only", "compact", "standard", "full")

func windowProps(extra map[string]*Schema) map[string]*Schema {
	props := map[string]*Schema{
		"start_date":   StringProp("Window start, YYYY-MM-DD. Defaults to the tool's lookback from end_date"),
		"end_date":     StringProp("Window end, YYYY-MM-DD. Defaults to the last available date"),
		"top_n":        IntProp("Maximum results, default 10"),
		"detail_level": detailProp,
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

func universeProps(extra map[string]*Schema) map[string]*Schema {
	props := windowProps(map[string]*Schema{
		"symbols":    ArrayProp("Explicit NSE symbols", StringProp("NSE symbol")),
		"sector":     StringProp("Sector name, e.g. Banking"),
		"index":      StringProp("Index name, e.g. NIFTY50"),
		"market_cap": EnumProp("Market-cap bucket", "LARGE", "MID", "SMALL"),
	})
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// ════════════════════════════════════════════════════════════════════
// Default tool set
// ════════════════════════════════════════════════════════════════════

// RegisterDefaults registers every analysis and discovery tool of e.
func RegisterDefaults(r *Registry, e *screen.Engine) {
	add := func(name, desc string, params *Schema, h Handler) {
		r.Register(Tool{Name: name, Description: desc, Parameters: params, Handler: h})
	}
	rank := func(name, desc string, extra map[string]*Schema, fn func(context.Context, screen.Query) (*models.Result, error)) {
		add(name, desc, ObjectSchema(desc, universeProps(extra)), ranked(fn))
	}

	rank(screen.ToolTopGainers, "Top gaining stocks by percent return over the window", nil, e.TopGainers)
	rank(screen.ToolTopLosers, "Top losing stocks by percent return over the window", nil, e.TopLosers)
	rank(screen.ToolVolumeSurge, "Stocks whose recent volume exceeds the earlier baseline by more than threshold times",
		map[string]*Schema{"threshold": NumberProp("Surge ratio, default 2.0")}, e.VolumeSurge)
	rank(screen.ToolDeliveryMomentum, "Stocks ranked by average delivery percent",
		map[string]*Schema{"min_delivery": NumberProp("Minimum average delivery percent, default 50")}, e.DeliveryMomentum)
	rank(screen.ToolBreakouts, "Strong returns achieved with contained volatility", map[string]*Schema{
		"threshold":      NumberProp("Minimum return percent, default 10"),
		"max_volatility": NumberProp("Maximum daily volatility, default 15"),
	}, e.Breakouts)
	rank(screen.Tool52WeekHighLow, "Stocks trading near their 52-week high or low",
		map[string]*Schema{"side": EnumProp("Which extreme to screen", "high", "low")}, e.Week52HighLow)
	rank(screen.ToolRiskMetrics, "Stocks ranked by return per unit of volatility", nil, e.RiskMetrics)
	rank(screen.ToolMomentumStocks, "Stocks on a winning streak with a solid return", map[string]*Schema{
		"min_return": NumberProp("Minimum return percent, default 5"),
		"min_streak": IntProp("Minimum consecutive up days, default 3"),
	}, e.MomentumStocks)
	rank(screen.ToolReversalCandidates, "Fallen stocks that have started to climb on rising volume", nil, e.ReversalCandidates)
	rank(screen.ToolVolumePriceDivergence, "Price moves not confirmed by volume", map[string]*Schema{
		"kind":           EnumProp("bearish: price up, volume down. bullish: price down, volume up", "bearish", "bullish"),
		"min_divergence": NumberProp("Minimum volume trend magnitude in percent, default 20"),
	}, e.VolumePriceDivergence)
	rank(screen.ToolCompareStocks, "Compare an explicit list of stocks by return", nil, e.CompareStocks)

	add(screen.ToolSectorTopPerformers, "Top performers within one sector",
		ObjectSchema("Top performers within one sector", windowProps(map[string]*Schema{"sector": StringProp("Sector name")}), "sector"),
		scoped("sector", func(a Args) string { return a.Sector }, e.SectorTopPerformers))
	add(screen.ToolIndexTopPerformers, "Top performers within one index",
		ObjectSchema("Top performers within one index", windowProps(map[string]*Schema{"index": StringProp("Index name")}), "index"),
		scoped("index", func(a Args) string { return a.Index }, e.IndexTopPerformers))
	add(screen.ToolMarketCapTopPerformers, "Top performers within a market-cap bucket",
		ObjectSchema("Top performers within a market-cap bucket", windowProps(map[string]*Schema{
			"market_cap": EnumProp("Market-cap bucket", "LARGE", "MID", "SMALL"),
		}), "market_cap"),
		scoped("market_cap", func(a Args) string { return a.MarketCap }, e.MarketCapTopPerformers))

	add(screen.ToolAnalyzeStock, "Full metric picture, verdict and trend for one stock",
		ObjectSchema("Analyze one stock", windowProps(map[string]*Schema{"symbol": StringProp("NSE symbol")}), "symbol"),
		bind(func(ctx context.Context, a Args) (any, error) {
			if err := required("symbol", a.Symbol); err != nil {
				return nil, err
			}
			q, err := a.Query()
			if err != nil {
				return nil, err
			}
			return result(e.AnalyzeStock(ctx, a.Symbol, q))
		}))

	registerDiscovery(r, e)
}

// scoped binds a ranking tool whose universe is a required named field.
func scoped(field string, get func(Args) string, fn func(context.Context, string, screen.Query) (*models.Result, error)) Handler {
	return bind(func(ctx context.Context, a Args) (any, error) {
		if err := required(field, get(a)); err != nil {
			return nil, err
		}
		q, err := a.Query()
		if err != nil {
			return nil, err
		}
		return result(fn(ctx, get(a), q))
	})
}
