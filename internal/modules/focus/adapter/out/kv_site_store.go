package out

import (
	"context"
	"encoding/json"
	"fmt"

	focusout "focuslock/internal/modules/focus/port/out"
	"focuslock/internal/platform/kv"
)

type KVSiteStore struct {
	store kv.Store
}

func NewKVSiteStore(store kv.Store) focusout.SiteStore {
	return &KVSiteStore{store: store}
}

func (s *KVSiteStore) Load(ctx context.Context) ([]string, error) {
	raw, ok, err := s.store.Get(ctx, kv.KeyWebsites)
	if err != nil {
		return nil, err
	}
	sites := []string{}
	if !ok {
		return sites, nil
	}
	if err := json.Unmarshal(raw, &sites); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kv.KeyWebsites, err)
	}
	return sites, nil
}

func (s *KVSiteStore) Save(ctx context.Context, sites []string) error {
	if sites == nil {
		sites = []string{}
	}
	raw, err := json.Marshal(sites)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kv.KeyWebsites, err)
	}
	return s.store.Set(ctx, kv.KeyWebsites, raw)
}
