package domain

import "time"

// Candle is a single OHLCV bar. Candles are immutable once fetched and
// always ordered ascending by OpenTime.
type Candle struct {
	OpenTime time.Time `json:"openTime"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool {
	return c.Close > c.Open
}

// Body returns the absolute size of the candle body.
func (c Candle) Body() float64 {
	if c.Close > c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// UpperWick returns the distance between the high and the body top.
func (c Candle) UpperWick() float64 {
	if c.Close > c.Open {
		return c.High - c.Close
	}
	return c.High - c.Open
}

// LowerWick returns the distance between the body bottom and the low.
func (c Candle) LowerWick() float64 {
	if c.Close > c.Open {
		return c.Open - c.Low
	}
	return c.Close - c.Low
}

// Range returns the full high-low span.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Timeframe identifies a candle interval as used by the market data APIs.
type Timeframe string

const (
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

// Higher returns the next-higher timeframe used for trend confirmation.
func (tf Timeframe) Higher() Timeframe {
	switch tf {
	case Timeframe5m:
		return Timeframe1h
	case Timeframe15m:
		return Timeframe4h
	case Timeframe1h:
		return Timeframe4h
	case Timeframe4h:
		return Timeframe1d
	default:
		return Timeframe1d
	}
}
