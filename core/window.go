package core

import (
	"time"
)

// Window is an OHLCV time series for a single symbol, ordered oldest first.
// All columns stay aligned with Time; the last bar is the most recent one.
type Window struct {
	Symbol    string
	Timeframe string

	Open   Series[float64]
	High   Series[float64]
	Low    Series[float64]
	Close  Series[float64]
	Volume Series[float64]

	Time       []time.Time
	LastUpdate time.Time
}

// Bar is a single row of a window
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

func NewWindow(symbol, timeframe string) *Window {
	return &Window{Symbol: symbol, Timeframe: timeframe}
}

// Len returns the number of bars in the window
func (w *Window) Len() int {
	return len(w.Time)
}

// Append adds a bar to the end of the window, keeping all columns aligned
func (w *Window) Append(b Bar) {
	w.Open = append(w.Open, b.Open)
	w.High = append(w.High, b.High)
	w.Low = append(w.Low, b.Low)
	w.Close = append(w.Close, b.Close)
	w.Volume = append(w.Volume, b.Volume)
	w.Time = append(w.Time, b.Time)
	w.LastUpdate = b.Time
}

// Bar returns the row at index i
func (w *Window) Bar(i int) Bar {
	return Bar{
		Time:   w.Time[i],
		Open:   w.Open[i],
		High:   w.High[i],
		Low:    w.Low[i],
		Close:  w.Close[i],
		Volume: w.Volume[i],
	}
}

// LastPrice returns the close of the most recent bar
func (w *Window) LastPrice() float64 {
	return w.Close.Last(0)
}

// Sample returns a window holding the last positions bars.
// The whole window is returned when it is already small enough.
func (w *Window) Sample(positions int) *Window {
	size := len(w.Time)
	start := size - positions

	if start <= 0 {
		return w
	}

	return &Window{
		Symbol:     w.Symbol,
		Timeframe:  w.Timeframe,
		Open:       w.Open.LastValues(positions),
		High:       w.High.LastValues(positions),
		Low:        w.Low.LastValues(positions),
		Close:      w.Close.LastValues(positions),
		Volume:     w.Volume.LastValues(positions),
		Time:       w.Time[start:],
		LastUpdate: w.LastUpdate,
	}
}

// Prefix returns a view of the first n bars, sharing the backing arrays.
// Used to replay a window bar by bar.
func (w *Window) Prefix(n int) *Window {
	if n >= len(w.Time) {
		return w
	}

	return &Window{
		Symbol:     w.Symbol,
		Timeframe:  w.Timeframe,
		Open:       w.Open[:n],
		High:       w.High[:n],
		Low:        w.Low[:n],
		Close:      w.Close[:n],
		Volume:     w.Volume[:n],
		Time:       w.Time[:n],
		LastUpdate: w.Time[n-1],
	}
}
