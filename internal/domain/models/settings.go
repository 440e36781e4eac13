package models

// HarvestSettings is the single mutable settings document. It carries the
// default context stamped onto new entries plus per-tank memory used when the
// operator switches tanks.
type HarvestSettings struct {
	ActiveTank     string            `bson:"active_tank" json:"activeTank"`
	ShrimpCount    int               `bson:"shrimp_count" json:"shrimpCount"`
	CrateWeight    float64           `bson:"crate_weight" json:"crateWeight"`
	TeamName       string            `bson:"team_name" json:"teamName"`
	FarmName       string            `bson:"farm_name" json:"farmName"`
	SessionName    string            `bson:"session_name" json:"sessionName"`
	TankCounts     map[string]int    `bson:"tank_counts" json:"tankCounts"`
	TankPrices     map[string]string `bson:"tank_prices" json:"tankPrices"`
	GoogleSheetURL string            `bson:"google_sheet_url" json:"googleSheetUrl"`
}

// DefaultSettings returns the settings used before the operator has saved any.
func DefaultSettings() HarvestSettings {
	return HarvestSettings{
		ActiveTank:  "Tank 1",
		ShrimpCount: 100,
		CrateWeight: DefaultCrateWeight,
		TankCounts:  map[string]int{},
		TankPrices:  map[string]string{},
	}
}

// CountFor returns the remembered count for a tank, falling back to the
// current shrimp count when the tank has no memory yet.
func (s HarvestSettings) CountFor(tank string) int {
	if c, ok := s.TankCounts[tank]; ok && c > 0 {
		return c
	}
	return s.ShrimpCount
}
