package main

import (
	"math"
	"time"

	"github.com/flowradar/flowradar/internal/provider"
)

// seedDemoData installs a deterministic fixture universe on the stub so
// scan, discover and monitor all produce output offline. The first
// watchlist ticker carries a block print plus a multi-exchange sweep;
// the rest get quiet tape.
func seedDemoData(stub *provider.StubProvider, watchlist []string) {
	now := time.Now()
	for i, ticker := range watchlist {
		spot := 100.0 + float64(i)*50
		stub.SetQuote(&provider.Quote{
			Ticker:       ticker,
			Price:        spot,
			MarketCap:    1.5e9 * float64(i+1),
			Volume:       4_000_000,
			Beta:         1.1,
			Sector:       "Technology",
			AnalystCount: 4 + i*6,
			Timestamp:    now,
		})

		expiration := nextFriday(now)
		chain := &provider.OptionChain{
			Ticker:     ticker,
			Expiration: expiration,
		}
		strikes := []float64{math.Round(spot * 0.95), math.Round(spot), math.Round(spot * 1.05)}
		for _, strike := range strikes {
			chain.Calls = append(chain.Calls, provider.OptionQuote{
				Strike: strike, Bid: 2.4, Ask: 2.6, LastPrice: 2.5,
				Volume: 1800, OpenInterest: 5200, ImpliedVolatility: 0.42,
			})
			chain.Puts = append(chain.Puts, provider.OptionQuote{
				Strike: strike, Bid: 2.1, Ask: 2.3, LastPrice: 2.2,
				Volume: 900, OpenInterest: 4100, ImpliedVolatility: 0.45,
			})
		}
		stub.SetChain(chain)

		for _, strike := range strikes {
			for _, right := range []provider.Right{provider.RightCall, provider.RightPut} {
				contract := provider.Contract{
					Ticker: ticker, Strike: strike, Right: right, Expiration: expiration,
				}
				stub.SetTicks(contract, demoTicks(ticker, strike, right, i == 0, now))
			}
		}

		stub.SetPriceHistory(ticker, demoBars(spot, now))
		if i == 0 {
			stub.SetNews(ticker, []provider.NewsItem{
				{Title: ticker + " beats earnings estimates, raised guidance", Publisher: "Goldman Sachs", PubDate: now.Add(-24 * time.Hour)},
			})
			stub.SetInsiderTransactions(ticker, []provider.InsiderTransaction{
				{Type: "BUY", Value: 1_200_000, Shares: 10_000, Date: now.AddDate(0, 0, -12)},
				{Type: "BUY", Value: 800_000, Shares: 6_500, Date: now.AddDate(0, 0, -30)},
				{Type: "BUY", Value: 450_000, Shares: 4_000, Date: now.AddDate(0, 0, -45)},
			})
		}
	}
	// SPY serves as the relative-strength benchmark even when it is not
	// on the watchlist.
	stub.SetPriceHistory("SPY", demoBars(450, now))
}

// demoTicks returns a tape with one 150-lot block and a three-exchange
// burst for hot tickers, or small scattered prints for quiet ones.
func demoTicks(ticker string, strike float64, right provider.Right, hot bool, now time.Time) []provider.Tick {
	base := now.Add(-30 * time.Minute)
	if !hot || right != provider.RightCall {
		return []provider.Tick{
			{Time: base, Price: 2.2, Size: 5, Exchange: "CBOE"},
			{Time: base.Add(5 * time.Minute), Price: 2.25, Size: 8, Exchange: "CBOE"},
			{Time: base.Add(11 * time.Minute), Price: 2.2, Size: 3, Exchange: "ISE"},
		}
	}
	return []provider.Tick{
		{Time: base, Price: 2.45, Size: 20, Exchange: "CBOE"},
		{Time: base.Add(400 * time.Millisecond), Price: 2.5, Size: 40, Exchange: "ISE"},
		{Time: base.Add(900 * time.Millisecond), Price: 2.55, Size: 35, Exchange: "PHLX"},
		{Time: base.Add(10 * time.Minute), Price: 2.6, Size: 150, Exchange: "CBOE"},
	}
}

// demoBars synthesizes a year of gently trending daily bars.
func demoBars(spot float64, now time.Time) []provider.PriceBar {
	bars := make([]provider.PriceBar, 0, 252)
	price := spot * 0.8
	for i := 251; i >= 0; i-- {
		drift := 1.0 + 0.0009*math.Sin(float64(i)/9) + 0.0008
		price *= drift
		date := now.AddDate(0, 0, -i)
		bars = append(bars, provider.PriceBar{
			Date:   date,
			Open:   price * 0.998,
			High:   price * 1.006,
			Low:    price * 0.993,
			Close:  price,
			Volume: 3_000_000 + int64(i%7)*250_000,
		})
	}
	return bars
}

// nextFriday returns the next Friday at least one day out.
func nextFriday(t time.Time) time.Time {
	d := t.AddDate(0, 0, 1)
	for d.Weekday() != time.Friday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
