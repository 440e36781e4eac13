package remote

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mamadbah2/harvestledger/internal/domain/models"
)

// Column order is a wire-format contract shared with the remote sheet and the
// CSV export. Reordering columns is a breaking change, not a migration.
var HeaderColumns = []string{
	"ID", "Tank", "Count", "Weight", "CrateCount", "CrateWeight",
	"Team", "Timestamp", "Farm", "Session",
}

// HeaderRow returns the header in sink row form.
func HeaderRow() []any {
	row := make([]any, len(HeaderColumns))
	for i, col := range HeaderColumns {
		row[i] = col
	}
	return row
}

// EntryToRow serializes an entry into the positional wire row.
func EntryToRow(e models.HarvestEntry) []any {
	return []any{
		e.ID,
		e.Tank,
		e.Count,
		e.Weight,
		e.CrateCount,
		e.CrateWeight,
		e.Team,
		e.Timestamp.UTC().Format(time.RFC3339),
		e.FarmName,
		e.SessionName,
	}
}

// RowToEntry parses one snapshot row. Rows with a missing or malformed id,
// too few columns or unparsable numeric fields return an error wrapping
// ErrBadRow and are skipped by the caller.
func RowToEntry(row []any) (models.HarvestEntry, error) {
	if len(row) < len(HeaderColumns) {
		return models.HarvestEntry{}, fmt.Errorf("%w: got %d columns", ErrBadRow, len(row))
	}

	id := asString(row[0])
	if !models.ValidEntryID(id) {
		return models.HarvestEntry{}, fmt.Errorf("%w: bad id %q", ErrBadRow, id)
	}

	count, err := asInt(row[2])
	if err != nil {
		return models.HarvestEntry{}, fmt.Errorf("%w: count: %v", ErrBadRow, err)
	}
	weight, err := asFloat(row[3])
	if err != nil {
		return models.HarvestEntry{}, fmt.Errorf("%w: weight: %v", ErrBadRow, err)
	}
	crateCount, err := asInt(row[4])
	if err != nil {
		return models.HarvestEntry{}, fmt.Errorf("%w: crateCount: %v", ErrBadRow, err)
	}
	crateWeight, err := asFloat(row[5])
	if err != nil {
		return models.HarvestEntry{}, fmt.Errorf("%w: crateWeight: %v", ErrBadRow, err)
	}
	timestamp, err := asTime(row[7])
	if err != nil {
		return models.HarvestEntry{}, fmt.Errorf("%w: timestamp: %v", ErrBadRow, err)
	}

	return models.HarvestEntry{
		ID:          id,
		Tank:        asString(row[1]),
		Count:       count,
		Weight:      weight,
		CrateCount:  crateCount,
		CrateWeight: crateWeight,
		Team:        asString(row[6]),
		Timestamp:   timestamp,
		FarmName:    asString(row[8]),
		SessionName: asString(row[9]),
	}, nil
}

func asString(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

func asInt(value any) (int, error) {
	str := asString(value)
	if str == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(str)
	if err != nil {
		// Sheets may hand back integers as floats.
		f, ferr := strconv.ParseFloat(str, 64)
		if ferr != nil {
			return 0, err
		}
		return int(f), nil
	}
	return n, nil
}

func asFloat(value any) (float64, error) {
	str := asString(value)
	if str == "" {
		return 0, nil
	}
	return strconv.ParseFloat(str, 64)
}

func asTime(value any) (time.Time, error) {
	str := asString(value)
	if str == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	return time.Parse(time.RFC3339, str)
}
