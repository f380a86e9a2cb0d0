package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Kind string

const (
	KindDuration  Kind = "duration"
	KindTimestamp Kind = "timestamp"
)

// Record is one completed focus session.
type Record struct {
	DurationMinutes float64   `json:"durationMinutes"`
	EndedAt         time.Time `json:"endedAt,omitzero"`
	Kind            Kind      `json:"kind"`
	Label           string    `json:"label,omitempty"`
}

type Tier int

const (
	TierNone Tier = iota
	TierOneHour
	TierTwoHours
)

type Motivation struct {
	Tier         Tier
	TotalMinutes float64
	Message      string
}

const (
	tierOneMessage = "You have focused for more than 1 hour! Excellent progress!"
	tierTwoMessage = "Great work! You have focused for more than 2 hours! Keep it up!"
)

var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"1/2/2006, 3:04:05 PM",
	"02/01/2006, 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
}

// DecodeRecords reads the stored history list. Besides canonical objects it
// accepts bare numbers (minutes) and bare strings (end timestamps).
func DecodeRecords(raw []byte) ([]Record, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []Record{}, nil
	}
	items := []json.RawMessage{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	out := make([]Record, 0, len(items))
	for i, item := range items {
		record, err := decodeRecord(item)
		if err != nil {
			return nil, fmt.Errorf("decode history entry %d: %w", i, err)
		}
		out = append(out, record)
	}
	return out, nil
}

func decodeRecord(item json.RawMessage) (Record, error) {
	trimmed := bytes.TrimSpace(item)
	if len(trimmed) == 0 {
		return Record{}, fmt.Errorf("empty entry")
	}
	switch trimmed[0] {
	case '{':
		record := Record{}
		if err := json.Unmarshal(trimmed, &record); err != nil {
			return Record{}, err
		}
		if record.Kind == "" {
			record.Kind = KindDuration
		}
		return record, nil
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return Record{}, err
		}
		if minutes, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return Record{DurationMinutes: minutes, Kind: KindDuration}, nil
		}
		return Record{Kind: KindTimestamp, EndedAt: parseLegacyTime(text), Label: text}, nil
	default:
		var minutes float64
		if err := json.Unmarshal(trimmed, &minutes); err != nil {
			return Record{}, err
		}
		return Record{DurationMinutes: minutes, Kind: KindDuration}, nil
	}
}

func parseLegacyTime(text string) time.Time {
	text = strings.TrimSpace(text)
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func EncodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return raw, nil
}

// SortByDuration orders records longest first; equal durations keep their
// stored order.
func SortByDuration(records []Record) []Record {
	out := append([]Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DurationMinutes > out[j].DurationMinutes
	})
	return out
}

func TotalMinutes(records []Record) float64 {
	total := 0.0
	for _, r := range records {
		if r.Kind == KindDuration {
			total += r.DurationMinutes
		}
	}
	return total
}

func Motivate(records []Record) Motivation {
	total := TotalMinutes(records)
	switch {
	case total >= 120:
		return Motivation{Tier: TierTwoHours, TotalMinutes: total, Message: tierTwoMessage}
	case total >= 60:
		return Motivation{Tier: TierOneHour, TotalMinutes: total, Message: tierOneMessage}
	default:
		return Motivation{Tier: TierNone, TotalMinutes: total}
	}
}

// FormatMinutes prints minutes with the shortest exact decimal form, so 25
// stays "25" and 0.125 stays "0.125".
func FormatMinutes(minutes float64) string {
	return strconv.FormatFloat(minutes, 'f', -1, 64)
}
