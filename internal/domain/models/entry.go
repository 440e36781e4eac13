package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDPrefix is the identifier convention shared with the remote sheet. Rows
// recalled from the remote are rejected when their id does not carry it.
const IDPrefix = "id_"

// DefaultCrateWeight is the tare applied when an entry does not carry one.
const DefaultCrateWeight = 1.8

// HarvestEntry is one recorded crate measurement. The id is assigned at
// creation and never reused; every other field may be rewritten in place by
// edits, retrospective count propagation or sync acknowledgement.
type HarvestEntry struct {
	ID          string    `bson:"_id" json:"id"`
	FarmName    string    `bson:"farm_name" json:"farmName"`
	SessionName string    `bson:"session_name" json:"sessionName"`
	Tank        string    `bson:"tank" json:"tank"`
	Count       int       `bson:"count" json:"count"`
	Weight      float64   `bson:"weight" json:"weight"`
	CrateCount  int       `bson:"crate_count" json:"crateCount"`
	CrateWeight float64   `bson:"crate_weight" json:"crateWeight"`
	Team        string    `bson:"team" json:"team"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
	Synced      bool      `bson:"synced" json:"synced"`
}

// NewEntryID generates a fresh local identifier following the id_ convention.
func NewEntryID() string {
	return IDPrefix + uuid.NewString()
}

// ValidEntryID reports whether id follows the identifier convention.
func ValidEntryID(id string) bool {
	return strings.HasPrefix(id, IDPrefix) && len(id) > len(IDPrefix)
}

// InSession reports whether the entry belongs to the given (farm, session)
// partition.
func (e HarvestEntry) InSession(farm, session string) bool {
	return e.FarmName == farm && e.SessionName == session
}

// RawNetWeight is gross weight minus container tare, without a zero floor.
// Tank summaries accumulate this raw value; display layers and running totals
// clamp it at zero instead (see the aggregation functions).
func (e HarvestEntry) RawNetWeight() float64 {
	crates := e.CrateCount
	if crates == 0 {
		crates = 1
	}
	tare := e.CrateWeight
	if tare == 0 {
		tare = DefaultCrateWeight
	}
	return e.Weight - float64(crates)*tare
}

// NetWeight is RawNetWeight floored at zero.
func (e HarvestEntry) NetWeight() float64 {
	if net := e.RawNetWeight(); net > 0 {
		return net
	}
	return 0
}
