package stockdeck

import "time"

// Index identifies a market index available from the backend.
type Index struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Quote is a point-in-time snapshot for an index. The backend uses
// finnhub-style short keys on the wire.
type Quote struct {
	Current       float64 `json:"c"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
}

// HistoricalSeries holds an ordered time/close sequence for charting.
// Timestamps are epoch seconds, strictly increasing, and Closes[i]
// corresponds to Timestamps[i].
type HistoricalSeries struct {
	Status     string    `json:"s"`
	Timestamps []int64   `json:"t"`
	Closes     []float64 `json:"c"`
}

// OK reports whether the backend returned usable data. A series that is
// not OK must not be plotted.
func (h *HistoricalSeries) OK() bool {
	return h.Status == "ok"
}

// Alert directions.
const (
	DirectionAbove = "above"
	DirectionBelow = "below"
)

// Alert is a server-stored price threshold alert. Alerts are created and
// deleted, never updated in place.
type Alert struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Threshold float64   `json:"threshold"`
	Direction string    `json:"direction"`
	CreatedAt time.Time `json:"createdAt"`
}

// AlertSpec is the client-supplied portion of an alert; the server assigns
// the ID and creation time.
type AlertSpec struct {
	Symbol    string  `json:"symbol"`
	Threshold float64 `json:"threshold"`
	Direction string  `json:"direction"`
}

// UsageStats is a single snapshot of backend API usage.
type UsageStats struct {
	Requests    int       `json:"requests"`
	LastUpdated time.Time `json:"lastUpdated"`
}
