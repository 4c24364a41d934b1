package model

import "time"

// VisitData is the aggregated engagement for one room across all tours.
type VisitData struct {
	Name    string  `json:"name"`
	Visits  int64   `json:"visits"`
	AvgTime float64 `json:"avg_time"` // minutes
}

// VisitEvent is a single room visit recorded during a tour.
type VisitEvent struct {
	SessionID string    `json:"session_id"`
	BuyerID   string    `json:"buyer_id"`
	UnitID    string    `json:"unit_id"`
	Room      string    `json:"room"`
	Minutes   float64   `json:"minutes"`
	VisitedAt time.Time `json:"visited_at"`
}

// BufferedVisit is a pending visit event held in the write-behind buffer.
type BufferedVisit struct {
	SessionID string    `json:"session_id"`
	BuyerID   string    `json:"buyer_id"`
	UnitID    string    `json:"unit_id"`
	Room      string    `json:"room"`
	Minutes   float64   `json:"minutes"`
	VisitedAt time.Time `json:"visited_at"`
}
