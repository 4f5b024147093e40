package service

import (
	"context"
	"sort"

	"metaregistry/internal/domain"
)

// List восстанавливает список записей полным повтором журнала событий
// контракта: сначала события создания, поверх них — обновления.
// Проекция пересчитывается на каждый вызов; для больших реестров это
// потолок масштабируемости, инкрементального курсора нет.
func (s *RecordService) List(ctx context.Context) ([]domain.Record, error) {
	created, err := s.ledger.QueryCreationEvents(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := s.ledger.QueryUpdateEvents(ctx)
	if err != nil {
		return nil, err
	}

	items := make(map[string]*domain.Record, len(created))

	for _, e := range created {
		items[e.RecordID] = &domain.Record{
			RecordID:    e.RecordID,
			ContentHash: e.ContentHash,
			URI:         e.URI,
			Version:     e.Version,
			Owner:       e.Account,
			UpdatedBy:   e.Account,
			CreatedAt:   e.Timestamp,
			UpdatedAt:   e.Timestamp,
		}
	}

	for _, e := range updated {
		rec, ok := items[e.RecordID]
		if !ok {
			// Обновление без события создания: допускаем частичную
			// запись, пробел в журнале — не повод ронять листинг
			rec = &domain.Record{RecordID: e.RecordID}
			items[e.RecordID] = rec
		}
		rec.ContentHash = e.ContentHash
		rec.URI = e.URI
		rec.Version = e.Version
		rec.UpdatedBy = e.Account
		rec.UpdatedAt = e.Timestamp
	}

	out := make([]domain.Record, 0, len(items))
	for _, rec := range items {
		out = append(out, *rec)
	}

	// Новые сверху; вторичный ключ держит порядок стабильным между вызовами
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].RecordID < out[j].RecordID
	})

	return out, nil
}
