package models

// TankSummary aggregates the entries of one tank within a session. It is
// derived on every read and never persisted.
type TankSummary struct {
	Tank           string  `json:"tank"`
	EntryCount     int     `json:"entryCount"`
	PatluCount     int     `json:"patluCount"`   // entries measured as two crates
	SinglesCount   int     `json:"singlesCount"` // entries measured as one crate
	CrateCount     int     `json:"crateCount"`
	TotalWeight    float64 `json:"totalWeight"`    // gross, including tare
	AbsoluteWeight float64 `json:"absoluteWeight"` // raw net sum, not clamped
	ShrimpCount    int     `json:"shrimpCount"`    // last seen count for the tank
}

// RunningTotal is the cumulative progress up to and including one entry of a
// tank's chronological sequence.
type RunningTotal struct {
	Gross float64 `json:"gross"`
	Net   float64 `json:"net"` // per-entry contributions clamped at zero
}
