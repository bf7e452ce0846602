// Package fallback merges live provider data over compiled-in reference data
// so every result handed to a screen is complete.
package fallback

// Sentinel is shown for any value neither live nor reference data could supply.
const Sentinel = "-"

// DefaultExchange is assumed when nothing names a symbol's exchange.
const DefaultExchange = "NSE"

// Advisory is the soft, non-fatal message shown when a transport failure forced
// reference data onto the screen.
const Advisory = "Some data missing, showing fallback."

// Point is one chart point: 1-based position and closing value.
type Point struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
}

// Profile is the display form of an overview. Every field is set.
type Profile struct {
	Symbol               string `json:"symbol"`
	Name                 string `json:"name"`
	Sector               string `json:"sector"`
	Industry             string `json:"industry"`
	Exchange             string `json:"exchange"`
	MarketCapitalization string `json:"marketCapitalization"`
	Week52High           string `json:"week52High"`
	Week52Low            string `json:"week52Low"`
}

// Profile builds the display form of o for symbol. Missing or empty fields
// become Sentinel; a missing name becomes the symbol.
func (o Overview) Profile(symbol string) Profile {
	field := func(key string) string {
		if v := o[key]; v != "" {
			return v
		}
		return Sentinel
	}

	name := o["Name"]
	if name == "" {
		name = symbol
	}

	return Profile{
		Symbol:               symbol,
		Name:                 name,
		Sector:               field("Sector"),
		Industry:             field("Industry"),
		Exchange:             field("Exchange"),
		MarketCapitalization: field("MarketCapitalization"),
		Week52High:           field("52WeekHigh"),
		Week52Low:            field("52WeekLow"),
	}
}

// Resolution is the resolved product view for one symbol.
type Resolution struct {
	Symbol           string   `json:"symbol"`
	Overview         Overview `json:"overview"`
	Profile          Profile  `json:"profile"`
	Series           []Point  `json:"series"`
	Advisory         string   `json:"advisory,omitempty"`
	OverviewFallback bool     `json:"overviewFallback"`
	SeriesFallback   bool     `json:"seriesFallback"`
}

// Resolver applies the fallback policy against a reference Table.
type Resolver struct {
	table *Table
}

// NewResolver creates a Resolver over table, or over DefaultTable when table is nil.
func NewResolver(table *Table) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	return &Resolver{table: table}
}

// Category returns the reference category of symbol.
func (r *Resolver) Category(symbol string) Category {
	return r.table.Categories[symbol]
}

// ResolveOverview merges live over the reference record for symbol.
// A non-empty live overview wins field by field with reference data filling
// gaps; an empty one yields the reference record, or {Name: symbol} if there
// is none. Live empty strings are kept and do override reference values.
func (r *Resolver) ResolveOverview(symbol string, live Overview) Overview {
	record, known := r.table.Records[symbol]

	if len(live) > 0 {
		merged := record.Overview.Clone()
		for k, v := range live {
			merged[k] = v
		}
		return merged
	}

	if known {
		return record.Overview.Clone()
	}
	return Overview{"Name": symbol}
}

// ResolveSeries returns live re-indexed from 1 when it has points. Otherwise it
// falls back to the symbol's own reference series, then its category series,
// then the generic series.
func (r *Resolver) ResolveSeries(symbol string, live []float64) []Point {
	if len(live) > 0 {
		return Indexed(live)
	}
	return Indexed(r.referenceSeries(symbol, true))
}

func (r *Resolver) referenceSeries(symbol string, byCategory bool) []float64 {
	if record, ok := r.table.Records[symbol]; ok && len(record.Series) > 0 {
		return record.Series
	}
	if source, ok := r.table.CategorySeries[r.Category(symbol)]; ok && byCategory {
		if record, ok := r.table.Records[source]; ok && len(record.Series) > 0 {
			return record.Series
		}
	}
	return r.table.Records[r.table.GenericSeries].Series
}

// Resolve produces the product view for symbol from live data and the error,
// if any, met while fetching it. A transport error discards the live overview,
// skips the category series and attaches the Advisory; it is never surfaced
// as a hard error.
func (r *Resolver) Resolve(symbol string, live Overview, series []float64, err error) Resolution {
	res := Resolution{Symbol: symbol}

	if err != nil {
		live = nil
		res.Advisory = Advisory
	}

	res.Overview = r.ResolveOverview(symbol, live)
	res.OverviewFallback = len(live) == 0
	if len(series) > 0 {
		res.Series = Indexed(series)
	} else {
		res.Series = Indexed(r.referenceSeries(symbol, err == nil))
	}
	res.SeriesFallback = len(series) == 0
	res.Profile = res.Overview.Profile(symbol)
	return res
}

// ResolveQuote returns live when it carries a price, the reference quote for
// symbol otherwise, and a quote of sentinels on DefaultExchange when neither exists.
func (r *Resolver) ResolveQuote(symbol string, live *Quote) Quote {
	if live != nil && live.Price != "" && live.Price != Sentinel {
		q := *live
		if q.Symbol == "" {
			q.Symbol = symbol
		}
		for _, f := range []*string{&q.Change, &q.ChangePercent, &q.Exchange} {
			if *f == "" {
				*f = Sentinel
			}
		}
		return q
	}

	if q, ok := r.table.Quotes[symbol]; ok {
		return q
	}

	return Quote{
		Symbol:        symbol,
		Price:         Sentinel,
		Change:        Sentinel,
		ChangePercent: Sentinel,
		Exchange:      DefaultExchange,
	}
}

// Movers returns a copy of the reference listing for kind. Unknown kinds yield nil.
func (r *Resolver) Movers(kind Kind) []Mover {
	switch kind {
	case KindGainers:
		return append([]Mover(nil), r.table.Listing.TopGainers...)
	case KindLosers:
		return append([]Mover(nil), r.table.Listing.TopLosers...)
	default:
		return nil
	}
}

// Listing returns a copy of the reference gainers/losers listing.
func (r *Resolver) Listing() Listing {
	return Listing{
		TopGainers: r.Movers(KindGainers),
		TopLosers:  r.Movers(KindLosers),
	}
}

// Indices returns a copy of the static market index rows.
func (r *Resolver) Indices() []IndexRow {
	return append([]IndexRow(nil), r.table.Indices...)
}

// Indexed pairs each value with its 1-based position.
func Indexed(values []float64) []Point {
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{X: i + 1, Y: v}
	}
	return points
}
