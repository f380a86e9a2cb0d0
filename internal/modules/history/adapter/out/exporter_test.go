package out

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"focuslock/internal/modules/history/domain"
	apperrors "focuslock/internal/platform/errors"
)

func fixedExporter() *MultiFormatExporter {
	return &MultiFormatExporter{now: func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }}
}

func sampleRecords() []domain.Record {
	return []domain.Record{
		{DurationMinutes: 50, EndedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), Kind: domain.KindDuration},
		{DurationMinutes: 0, Kind: domain.KindTimestamp, Label: "01/03/2026, 09:00:00"},
	}
}

func TestExportFormatsDecodeToSameDocument(t *testing.T) {
	t.Parallel()
	exporter := fixedExporter()

	tests := []struct {
		format string
		decode func([]byte, any) error
	}{
		{format: FormatJSON, decode: json.Unmarshal},
		{format: FormatYAML, decode: yaml.Unmarshal},
		{format: FormatTOML, decode: toml.Unmarshal},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			raw, err := exporter.Export(sampleRecords(), tt.format)
			require.NoError(t, err)

			doc := exportDocument{}
			require.NoError(t, tt.decode(raw, &doc))
			assert.Equal(t, "2026-03-02T08:00:00Z", doc.ExportedAt)
			assert.Equal(t, 50.0, doc.TotalMinutes)
			require.Len(t, doc.Sessions, 2)
			assert.Equal(t, "2026-03-01T10:00:00Z", doc.Sessions[0].EndedAt)
			assert.Equal(t, "timestamp", doc.Sessions[1].Kind)
			assert.Equal(t, "01/03/2026, 09:00:00", doc.Sessions[1].Label)
		})
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	t.Parallel()
	_, err := fixedExporter().Export(sampleRecords(), "csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
