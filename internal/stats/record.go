package stats

import (
	"bytes"
	"encoding/json"
	"time"
)

// UserStat is one user's record in the shared file.
type UserStat struct {
	Name              string    `json:"name"`
	TotalSwitches     int       `json:"totalSwitches"`
	TotalDuration     float64   `json:"totalDuration"`     // seconds
	TotalSpaceCleaned int64     `json:"totalSpaceCleaned"` // bytes
	LastActive        Timestamp `json:"lastActive"`
}

// Totals returns the cumulative counters of s.
func (s UserStat) Totals() Totals {
	return Totals{
		Switches:     s.TotalSwitches,
		Duration:     s.TotalDuration,
		SpaceCleaned: s.TotalSpaceCleaned,
	}
}

// Totals are a user's cumulative counters.
type Totals struct {
	Switches     int     `json:"switches"`
	Duration     float64 `json:"duration"`
	SpaceCleaned int64   `json:"spaceCleaned"`
}

// Timestamp is a time that decodes leniently. Values with or without a UTC
// offset are accepted; anything unparseable decodes as the zero time
// instead of failing the whole document.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02 15:04:05",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decode parses a stats document. Blank input is an empty document.
func decode(data []byte) ([]UserStat, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(data) == 0 {
		return nil, nil
	}
	var list []UserStat
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func encode(list []UserStat) ([]byte, error) {
	if list == nil {
		list = []UserStat{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
