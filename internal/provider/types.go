package provider

import "time"

// Right identifies an option contract side.
type Right string

const (
	RightCall Right = "C"
	RightPut  Right = "P"
)

// Quote is a point-in-time underlying snapshot.
type Quote struct {
	Ticker       string    `json:"ticker"`
	Price        float64   `json:"price"`
	MarketCap    float64   `json:"market_cap"`
	Volume       int64     `json:"volume"`
	Beta         float64   `json:"beta"`
	Sector       string    `json:"sector"`
	AnalystCount int       `json:"analyst_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// OptionQuote is one strike row from an option chain.
type OptionQuote struct {
	Strike            float64 `json:"strike"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	LastPrice         float64 `json:"last_price"`
	Volume            int64   `json:"volume"`
	OpenInterest      int64   `json:"open_interest"`
	ImpliedVolatility float64 `json:"implied_volatility"`
}

// OptionChain holds both sides of a chain for one expiration.
type OptionChain struct {
	Ticker     string        `json:"ticker"`
	Expiration time.Time     `json:"expiration"`
	Calls      []OptionQuote `json:"calls"`
	Puts       []OptionQuote `json:"puts"`
}

// Contract identifies a single option contract.
type Contract struct {
	Ticker     string    `json:"ticker"`
	Strike     float64   `json:"strike"`
	Right      Right     `json:"right"`
	Expiration time.Time `json:"expiration"`
}

// Tick is a single option trade print. Ticks are ephemeral: they are
// consumed by the flow classifier and never persisted individually.
type Tick struct {
	Time     time.Time `json:"time"`
	Price    float64   `json:"price"`
	Size     int64     `json:"size"`
	Exchange string    `json:"exchange"`
}

// PriceBar is one daily OHLCV bar.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// NewsItem is a single published headline.
type NewsItem struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Publisher string    `json:"publisher"`
	PubDate   time.Time `json:"pub_date"`
}

// InsiderTransaction is one reported insider buy or sell.
type InsiderTransaction struct {
	Type   string    `json:"type"` // "BUY" or "SELL"
	Value  float64   `json:"value"`
	Shares int64     `json:"shares"`
	Date   time.Time `json:"date"`
}
