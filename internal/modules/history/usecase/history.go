package usecase

import (
	"context"

	"focuslock/internal/modules/history/domain"
	"focuslock/internal/modules/history/dto"
	historyin "focuslock/internal/modules/history/port/in"
	historyout "focuslock/internal/modules/history/port/out"
	"focuslock/internal/modules/history/service"
)

type Interactor struct {
	svc      *service.HistoryService
	exporter historyout.Exporter
}

func NewInteractor(svc *service.HistoryService, exporter historyout.Exporter) historyin.Usecase {
	return &Interactor{svc: svc, exporter: exporter}
}

func (i *Interactor) Record(ctx context.Context, input dto.RecordInput) (dto.Entry, error) {
	record, err := i.svc.Append(ctx, input.DurationMinutes)
	if err != nil {
		return dto.Entry{}, err
	}
	return toEntry(0, record), nil
}

// List returns entries longest first, numbered from 1 in display order.
func (i *Interactor) List(ctx context.Context) (dto.ListOutput, error) {
	records, err := i.svc.List(ctx)
	if err != nil {
		return dto.ListOutput{}, err
	}
	sorted := domain.SortByDuration(records)
	entries := make([]dto.Entry, 0, len(sorted))
	for idx, record := range sorted {
		entries = append(entries, toEntry(idx+1, record))
	}
	motivation := domain.Motivate(records)
	return dto.ListOutput{
		Entries:      entries,
		TotalMinutes: motivation.TotalMinutes,
		Tier:         int(motivation.Tier),
		Motivation:   motivation.Message,
	}, nil
}

func (i *Interactor) Export(ctx context.Context, format string) (dto.ExportOutput, error) {
	records, err := i.svc.List(ctx)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	payload, err := i.exporter.Export(domain.SortByDuration(records), format)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	return dto.ExportOutput{Format: format, Payload: payload}, nil
}

func toEntry(index int, record domain.Record) dto.Entry {
	return dto.Entry{
		Index:           index,
		DurationMinutes: record.DurationMinutes,
		EndedAt:         record.EndedAt,
		Kind:            string(record.Kind),
		Label:           record.Label,
	}
}
