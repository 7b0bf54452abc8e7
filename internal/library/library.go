// Package library stores each user's lookup history and named book lists on
// top of a key-value store. Collections are JSON arrays, most recent first.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/booklens/internal/models"
	"github.com/lehigh-university-libraries/booklens/internal/normalize"
	"github.com/lehigh-university-libraries/booklens/internal/storage"
)

const (
	MaxHistory   = 200
	MaxLists     = 200
	MaxListItems = 300

	DefaultHistoryLimit = 50
	DefaultListsLimit   = 50
	DefaultItemsLimit   = 100

	keyPrefix = "booklens"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyName = errors.New("list name must not be empty")
)

// Library is safe for concurrent use within one process.
type Library struct {
	store storage.Store
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// New creates a Library over store
func New(store storage.Store) *Library {
	return &Library{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func historyKey(user string) string {
	return fmt.Sprintf("%s:%s:history", keyPrefix, user)
}

func listsKey(user string) string {
	return fmt.Sprintf("%s:%s:lists", keyPrefix, user)
}

func itemsKey(user, listID string) string {
	return fmt.Sprintf("%s:%s:list:%s:items", keyPrefix, user, listID)
}

// SaveHistory prepends r to the user's history.
func (l *Library) SaveHistory(ctx context.Context, user string, r models.BookRecord) (models.HistoryEntry, error) {
	entry := models.HistoryEntry{ID: l.newID(), BookRecord: stored(r), CreatedAt: l.now()}

	l.mu.Lock()
	defer l.mu.Unlock()

	var history []models.HistoryEntry
	if err := l.load(ctx, historyKey(user), &history); err != nil {
		return models.HistoryEntry{}, err
	}
	history = prepend(history, entry, MaxHistory)
	if err := l.save(ctx, historyKey(user), history); err != nil {
		return models.HistoryEntry{}, err
	}
	return entry, nil
}

// History returns up to limit entries, newest first. limit <= 0 means
// DefaultHistoryLimit.
func (l *Library) History(ctx context.Context, user string, limit int) ([]models.HistoryEntry, error) {
	var history []models.HistoryEntry
	if err := l.load(ctx, historyKey(user), &history); err != nil {
		return nil, err
	}
	return head(history, limit, DefaultHistoryLimit), nil
}

// DeleteHistory removes one entry.
func (l *Library) DeleteHistory(ctx context.Context, user, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var history []models.HistoryEntry
	if err := l.load(ctx, historyKey(user), &history); err != nil {
		return err
	}
	kept, found := without(history, func(e models.HistoryEntry) bool { return e.ID == id })
	if !found {
		return ErrNotFound
	}
	return l.save(ctx, historyKey(user), kept)
}

// Lists returns up to limit lists, newest first.
func (l *Library) Lists(ctx context.Context, user string, limit int) ([]models.BookList, error) {
	var lists []models.BookList
	if err := l.load(ctx, listsKey(user), &lists); err != nil {
		return nil, err
	}
	return head(lists, limit, DefaultListsLimit), nil
}

// CreateList adds a list named name.
func (l *Library) CreateList(ctx context.Context, user, name string) (models.BookList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.BookList{}, ErrEmptyName
	}
	list := models.BookList{ID: l.newID(), Name: name, CreatedAt: l.now()}

	l.mu.Lock()
	defer l.mu.Unlock()

	var lists []models.BookList
	if err := l.load(ctx, listsKey(user), &lists); err != nil {
		return models.BookList{}, err
	}
	lists = prepend(lists, list, MaxLists)
	if err := l.save(ctx, listsKey(user), lists); err != nil {
		return models.BookList{}, err
	}
	return list, nil
}

// RenameList replaces the list record with one carrying the new name. The
// id and creation time are kept, as is the list's position.
func (l *Library) RenameList(ctx context.Context, user, id, name string) (models.BookList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.BookList{}, ErrEmptyName
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var lists []models.BookList
	if err := l.load(ctx, listsKey(user), &lists); err != nil {
		return models.BookList{}, err
	}
	for i, list := range lists {
		if list.ID != id {
			continue
		}
		renamed := models.BookList{ID: list.ID, Name: name, CreatedAt: list.CreatedAt}
		updated := append([]models.BookList(nil), lists...)
		updated[i] = renamed
		if err := l.save(ctx, listsKey(user), updated); err != nil {
			return models.BookList{}, err
		}
		return renamed, nil
	}
	return models.BookList{}, ErrNotFound
}

// DeleteList removes the list and all of its items.
func (l *Library) DeleteList(ctx context.Context, user, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lists []models.BookList
	if err := l.load(ctx, listsKey(user), &lists); err != nil {
		return err
	}
	kept, found := without(lists, func(b models.BookList) bool { return b.ID == id })
	if !found {
		return ErrNotFound
	}
	if err := l.store.Delete(ctx, itemsKey(user, id)); err != nil {
		return fmt.Errorf("failed to delete list items: %w", err)
	}
	return l.save(ctx, listsKey(user), kept)
}

// ListItems returns up to limit items of a list, newest first.
func (l *Library) ListItems(ctx context.Context, user, listID string, limit int) ([]models.ListItem, error) {
	var items []models.ListItem
	if err := l.load(ctx, itemsKey(user, listID), &items); err != nil {
		return nil, err
	}
	return head(items, limit, DefaultItemsLimit), nil
}

// AddToList prepends r to an existing list.
func (l *Library) AddToList(ctx context.Context, user, listID string, r models.BookRecord) (models.ListItem, error) {
	item := models.ListItem{ID: l.newID(), BookRecord: stored(r), CreatedAt: l.now()}

	l.mu.Lock()
	defer l.mu.Unlock()

	ok, err := l.listExists(ctx, user, listID)
	if err != nil {
		return models.ListItem{}, err
	}
	if !ok {
		return models.ListItem{}, ErrNotFound
	}

	var items []models.ListItem
	if err := l.load(ctx, itemsKey(user, listID), &items); err != nil {
		return models.ListItem{}, err
	}
	items = prepend(items, item, MaxListItems)
	if err := l.save(ctx, itemsKey(user, listID), items); err != nil {
		return models.ListItem{}, err
	}
	return item, nil
}

// RemoveFromList removes one item from a list.
func (l *Library) RemoveFromList(ctx context.Context, user, listID, itemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var items []models.ListItem
	if err := l.load(ctx, itemsKey(user, listID), &items); err != nil {
		return err
	}
	kept, found := without(items, func(i models.ListItem) bool { return i.ID == itemID })
	if !found {
		return ErrNotFound
	}
	return l.save(ctx, itemsKey(user, listID), kept)
}

func (l *Library) listExists(ctx context.Context, user, id string) (bool, error) {
	var lists []models.BookList
	if err := l.load(ctx, listsKey(user), &lists); err != nil {
		return false, err
	}
	for _, list := range lists {
		if list.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (l *Library) load(ctx context.Context, key string, v any) error {
	data, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (l *Library) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := l.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// stored copies r with its recommendations capped.
func stored(r models.BookRecord) models.BookRecord {
	out := r.Clone()
	if len(out.Recommendations) > normalize.MaxRecommendations {
		out.Recommendations = out.Recommendations[:normalize.MaxRecommendations]
	}
	if out.Recommendations == nil {
		out.Recommendations = models.Recommendations{}
	}
	return out
}

func prepend[T any](items []T, item T, max int) []T {
	out := make([]T, 0, min(len(items)+1, max))
	out = append(out, item)
	for _, it := range items {
		if len(out) == max {
			break
		}
		out = append(out, it)
	}
	return out
}

func head[T any](items []T, limit, fallback int) []T {
	if limit <= 0 {
		limit = fallback
	}
	if len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		return []T{}
	}
	return items
}

func without[T any](items []T, match func(T) bool) ([]T, bool) {
	out := make([]T, 0, len(items))
	found := false
	for _, it := range items {
		if match(it) {
			found = true
			continue
		}
		out = append(out, it)
	}
	return out, found
}
