package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

// MemoryStore keeps preferences in process memory. Entries never expire.
type MemoryStore struct {
	items *gocache.Cache
	now   func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: gocache.New(gocache.NoExpiration, 0),
		now:   time.Now,
	}
}

func memoryKey(clientID, key string) string {
	return clientID + "/" + key
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) GetPreference(_ context.Context, clientID, key string) (*models.Preference, error) {
	v, ok := s.items.Get(memoryKey(clientID, key))
	if !ok {
		return nil, ErrNotFound
	}
	p := v.(models.Preference)
	return &p, nil
}

func (s *MemoryStore) SetPreference(_ context.Context, pref *models.Preference) error {
	pref.UpdatedAt = s.now().UTC()
	s.items.Set(memoryKey(pref.ClientID, pref.Key), *pref, gocache.NoExpiration)
	return nil
}

func (s *MemoryStore) DeletePreference(_ context.Context, clientID, key string) error {
	k := memoryKey(clientID, key)
	if _, ok := s.items.Get(k); !ok {
		return ErrNotFound
	}
	s.items.Delete(k)
	return nil
}

var _ PreferenceStore = (*MemoryStore)(nil)
