package models

import "time"

// Sample is one observation of an asset's price and traded volume.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
}

// AssetSample is a Sample tagged with its asset, as carried by the ingest path.
type AssetSample struct {
	AssetID string `json:"asset_id"`
	Sample
}

// TimeSeries is the ordered sample sequence of a single asset.
type TimeSeries struct {
	AssetID string    `json:"asset_id"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Count   int       `json:"count"`
	Samples []Sample  `json:"samples"`
}

// Prices extracts the price column of samples.
func Prices(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Price
	}
	return out
}

// Candle is an OHLCV bucket built from samples.
type Candle struct {
	Bucket  time.Time `json:"bucket"`
	AssetID string    `json:"asset_id"`
	Open    float64   `json:"open"`
	High    float64   `json:"high"`
	Low     float64   `json:"low"`
	Close   float64   `json:"close"`
	Volume  float64   `json:"volume"`
	Count   int       `json:"count"`
}

// PriceHistory is the candle view returned by the price-history operation.
type PriceHistory struct {
	AssetID  string    `json:"asset_id"`
	Interval string    `json:"interval"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Candles  []Candle  `json:"candles"`
}
