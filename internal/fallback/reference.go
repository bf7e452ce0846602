package fallback

// Overview is a company overview as the provider returns it: a flat map of
// string fields such as Name, Sector, MarketCapitalization and 52WeekHigh.
type Overview map[string]string

// Clone returns a copy of o. The copy of a nil Overview is an empty one.
func (o Overview) Clone() Overview {
	out := make(Overview, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Category groups symbols that share a reference price series.
type Category string

const (
	CategoryNone   Category = ""
	CategoryGainer Category = "gainer"
	CategoryLoser  Category = "loser"
)

// Kind selects one side of the top movers listing.
type Kind string

const (
	KindGainers Kind = "gainers"
	KindLosers  Kind = "losers"
)

// Record is the reference data held for one symbol.
type Record struct {
	Overview Overview
	Series   []float64
}

// Mover is one row of the top gainers/losers listing.
type Mover struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangePercentage string `json:"change_percentage"`
}

// Listing is the combined top gainers and top losers.
type Listing struct {
	TopGainers []Mover `json:"top_gainers"`
	TopLosers  []Mover `json:"top_losers"`
}

// Quote is a display-ready price quote. Unknown values are "-".
type Quote struct {
	Symbol        string `json:"symbol"`
	Price         string `json:"price"`
	Change        string `json:"change"`
	ChangePercent string `json:"changePercent"`
	Exchange      string `json:"exchange"`
}

// IndexRow is a static market index ticker row.
type IndexRow struct {
	Symbol        string `json:"symbol"`
	Price         string `json:"price"`
	Change        string `json:"change"`
	ChangePercent string `json:"changePercent"`
}

// Table is the immutable reference data consulted by the Resolver.
type Table struct {
	Records    map[string]Record
	Categories map[string]Category
	// CategorySeries names the symbol whose series stands in for a category.
	CategorySeries map[Category]string
	// GenericSeries names the symbol whose series is used for anything else.
	GenericSeries string
	Listing       Listing
	Quotes        map[string]Quote
	Indices       []IndexRow
}

// DefaultTable returns the compiled-in reference data.
func DefaultTable() *Table {
	listing := Listing{
		TopGainers: []Mover{
			{Ticker: "TCS", Price: "3850", ChangePercentage: "+3.2%"},
			{Ticker: "INFY", Price: "1520", ChangePercentage: "+2.8%"},
			{Ticker: "HDFCBANK", Price: "1725", ChangePercentage: "+2.1%"},
			{Ticker: "RELIANCE", Price: "2805", ChangePercentage: "+1.9%"},
		},
		TopLosers: []Mover{
			{Ticker: "ADANIPORTS", Price: "1210", ChangePercentage: "-3.4%"},
			{Ticker: "SBIN", Price: "645", ChangePercentage: "-2.7%"},
			{Ticker: "ITC", Price: "439", ChangePercentage: "-2.2%"},
			{Ticker: "WIPRO", Price: "492", ChangePercentage: "-1.8%"},
		},
	}

	// gainers with a record chart their own series; other listed gainers
	// such as HDFCBANK take the generic one
	categories := map[string]Category{
		"TCS":        CategoryGainer,
		"INFY":       CategoryGainer,
		"RELIANCE":   CategoryGainer,
		"ADANIPORTS": CategoryLoser,
		"SBIN":       CategoryLoser,
		"ITC":        CategoryLoser,
		"WIPRO":      CategoryLoser,
	}

	return &Table{
		Records: map[string]Record{
			"TCS": {
				Overview: Overview{
					"Name":                 "Tata Consultancy Services",
					"Industry":             "IT Services",
					"Sector":               "Technology",
					"MarketCapitalization": "14,00,000 Cr",
					"52WeekHigh":           "4200",
					"52WeekLow":            "3100",
				},
				Series: []float64{3800, 3850, 3900, 3875, 3920, 3950},
			},
			"INFY": {
				Overview: Overview{
					"Name":                 "Infosys Ltd",
					"Industry":             "IT Services",
					"Sector":               "Technology",
					"MarketCapitalization": "6,40,000 Cr",
					"52WeekHigh":           "1700",
					"52WeekLow":            "1350",
				},
				Series: []float64{1450, 1480, 1500, 1510, 1520, 1535},
			},
			"RELIANCE": {
				Overview: Overview{
					"Name":                 "Reliance Industries",
					"Industry":             "Conglomerate",
					"Sector":               "Energy & Retail",
					"MarketCapitalization": "18,50,000 Cr",
					"52WeekHigh":           "2900",
					"52WeekLow":            "2400",
				},
				Series: []float64{2700, 2750, 2780, 2795, 2805, 2820},
			},
		},
		Categories: categories,
		CategorySeries: map[Category]string{
			CategoryLoser: "RELIANCE",
		},
		GenericSeries: "TCS",
		Listing:       listing,
		Quotes: map[string]Quote{
			"TCS":        {Symbol: "TCS", Price: "3850.00", Change: "120.00", ChangePercent: "3.20", Exchange: "NSE"},
			"INFY":       {Symbol: "INFY", Price: "1520.00", Change: "40.00", ChangePercent: "2.80", Exchange: "NSE"},
			"HDFCBANK":   {Symbol: "HDFCBANK", Price: "1725.00", Change: "35.00", ChangePercent: "2.10", Exchange: "NSE"},
			"RELIANCE":   {Symbol: "RELIANCE", Price: "2805.00", Change: "52.00", ChangePercent: "1.90", Exchange: "BSE"},
			"ADANIPORTS": {Symbol: "ADANIPORTS", Price: "1210.00", Change: "-42.00", ChangePercent: "-3.40", Exchange: "NSE"},
			"SBIN":       {Symbol: "SBIN", Price: "645.00", Change: "-18.00", ChangePercent: "-2.70", Exchange: "NSE"},
			"ITC":        {Symbol: "ITC", Price: "439.00", Change: "-10.00", ChangePercent: "-2.20", Exchange: "BSE"},
			"WIPRO":      {Symbol: "WIPRO", Price: "492.00", Change: "-9.00", ChangePercent: "-1.80", Exchange: "NSE"},
		},
		Indices: []IndexRow{
			{Symbol: "SENSEX", Price: "80,957.66", Change: "+57.75", ChangePercent: "+0.07%"},
			{Symbol: "NIFTY", Price: "24,631.30", Change: "+11.95", ChangePercent: "+0.05%"},
			{Symbol: "BANKNIFTY", Price: "61,625.39", Change: "+11.45", ChangePercent: "+0.02%"},
			{Symbol: "MIDCAP", Price: "45,120.22", Change: "-95.35", ChangePercent: "-0.21%"},
			{Symbol: "SMALLCAP", Price: "15,890.42", Change: "+44.20", ChangePercent: "+0.19%"},
			{Symbol: "FINNIFTY", Price: "20,210.18", Change: "+25.60", ChangePercent: "+0.12%"},
			{Symbol: "IT", Price: "38,240.15", Change: "-180.55", ChangePercent: "-0.47%"},
			{Symbol: "AUTO", Price: "34,512.98", Change: "+88.15", ChangePercent: "+0.25%"},
			{Symbol: "PHARMA", Price: "14,220.77", Change: "+50.20", ChangePercent: "+0.35%"},
			{Symbol: "REALTY", Price: "8,310.65", Change: "-25.80", ChangePercent: "-0.31%"},
			{Symbol: "PSUBANK", Price: "6,140.44", Change: "+19.30", ChangePercent: "+0.21%"},
			{Symbol: "ENERGY", Price: "22,520.55", Change: "+64.40", ChangePercent: "+0.28%"},
		},
	}
}
