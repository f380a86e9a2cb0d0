package out

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"focuslock/internal/modules/history/domain"
	historyout "focuslock/internal/modules/history/port/out"
	apperrors "focuslock/internal/platform/errors"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

type exportDocument struct {
	ExportedAt   string         `json:"exported_at" yaml:"exported_at" toml:"exported_at"`
	TotalMinutes float64        `json:"total_minutes" yaml:"total_minutes" toml:"total_minutes"`
	Sessions     []exportRecord `json:"sessions" yaml:"sessions" toml:"sessions"`
}

type exportRecord struct {
	DurationMinutes float64 `json:"duration_minutes" yaml:"duration_minutes" toml:"duration_minutes"`
	EndedAt         string  `json:"ended_at,omitempty" yaml:"ended_at,omitempty" toml:"ended_at,omitempty"`
	Kind            string  `json:"kind" yaml:"kind" toml:"kind"`
	Label           string  `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
}

type MultiFormatExporter struct {
	now func() time.Time
}

func NewMultiFormatExporter() historyout.Exporter {
	return &MultiFormatExporter{now: func() time.Time { return time.Now().UTC() }}
}

func (e *MultiFormatExporter) Export(records []domain.Record, format string) ([]byte, error) {
	doc := exportDocument{
		ExportedAt:   e.now().Format(time.RFC3339),
		TotalMinutes: domain.TotalMinutes(records),
		Sessions:     make([]exportRecord, 0, len(records)),
	}
	for _, r := range records {
		item := exportRecord{DurationMinutes: r.DurationMinutes, Kind: string(r.Kind), Label: r.Label}
		if !r.EndedAt.IsZero() {
			item.EndedAt = r.EndedAt.UTC().Format(time.RFC3339)
		}
		doc.Sessions = append(doc.Sessions, item)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		raw, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json export: %w", err)
		}
		return append(raw, '\n'), nil
	case FormatYAML, "yml":
		raw, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode yaml export: %w", err)
		}
		return raw, nil
	case FormatTOML:
		raw, err := toml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode toml export: %w", err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", apperrors.ErrInvalidInput, format)
	}
}
