package library

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/cheese-review/internal/domain"
)

// memrepo keeps records in process memory; used when no database is
// configured.
type memrepo struct {
	mu sync.RWMutex

	byID    map[string]*domain.GameRecord
	byOwner map[string][]string           // owner -> ids, insertion order
	byURL   map[string]*domain.GameRecord // owner|url -> record
}

func NewMemoryRepository() Repository {
	return &memrepo{
		byID:    make(map[string]*domain.GameRecord),
		byOwner: make(map[string][]string),
		byURL:   make(map[string]*domain.GameRecord),
	}
}

func (m *memrepo) InsertGame(ctx context.Context, game *domain.GameRecord) error {
	if game == nil {
		return ErrDuplicateGame
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[game.ID]; exists {
		return ErrDuplicateGame
	}
	urlKey := m.urlKey(game.Owner, game.URL)
	if urlKey != "" {
		if _, exists := m.byURL[urlKey]; exists {
			return ErrDuplicateGame
		}
	}

	copy := *game
	m.byID[copy.ID] = &copy
	m.byOwner[copy.Owner] = append(m.byOwner[copy.Owner], copy.ID)
	if urlKey != "" {
		m.byURL[urlKey] = &copy
	}
	return nil
}

func (m *memrepo) ListGames(ctx context.Context, owner string, f Filter) ([]*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*domain.GameRecord, 0, len(m.byOwner[owner]))
	for _, id := range m.byOwner[owner] {
		g := m.byID[id]
		if g == nil {
			continue
		}
		if f.Source != "" && g.Source != f.Source {
			continue
		}
		copy := *g
		items = append(items, &copy)
	}
	// Newest game first, then newest import.
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].ImportedAt.After(items[j].ImportedAt)
	})
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return items, nil
}

func (m *memrepo) GetGame(ctx context.Context, owner, id string) (*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.byID[id]
	if !ok || g == nil || g.Owner != owner {
		return nil, nil
	}
	copy := *g
	return &copy, nil
}

func (m *memrepo) DeleteGame(ctx context.Context, owner, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.byID[id]
	if !ok || g.Owner != owner {
		return false, nil
	}
	delete(m.byID, id)
	if key := m.urlKey(g.Owner, g.URL); key != "" {
		delete(m.byURL, key)
	}
	ids := m.byOwner[owner]
	for i, v := range ids {
		if v == id {
			m.byOwner[owner] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *memrepo) urlKey(owner, url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	return strings.TrimSpace(owner) + "|" + url
}
