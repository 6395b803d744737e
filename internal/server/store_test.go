package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/slideshow-studio/internal/db"
	"github.com/jonathan/slideshow-studio/internal/styles"
	"github.com/jonathan/slideshow-studio/internal/types"
)

// memStore is an in-memory Store with the same not-found conventions as *db.DB
type memStore struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*db.User
	slideshows map[uuid.UUID]*types.Slideshow
	slides     map[uuid.UUID][]db.SlideRecord
	masters    map[uuid.UUID]styles.Ledger
	saves      int
	failSave   error
	pingErr    error
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:      map[uuid.UUID]*db.User{},
		slideshows: map[uuid.UUID]*types.Slideshow{},
		slides:     map[uuid.UUID][]db.SlideRecord{},
		masters:    map[uuid.UUID]styles.Ledger{},
	}
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) CreateUserWithPassword(_ context.Context, name, email, hash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	u := &db.User{ID: uuid.New(), Name: name, Email: strings.ToLower(email), PasswordHash: hash, PasswordSet: true, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	u, err := m.GetUserByEmail(ctx, email)
	return u != nil, err
}

func (m *memStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, db.ErrNotFound)
	}
	u.PasswordHash = hash
	return nil
}

func (m *memStore) CreateSlideshow(_ context.Context, userID uuid.UUID, title string, settings types.GenerationSettings) (*types.Slideshow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	show := &types.Slideshow{ID: uuid.New(), UserID: userID, Title: title, Settings: settings, CreatedAt: now, UpdatedAt: now}
	m.slideshows[show.ID] = show
	cp := *show
	return &cp, nil
}

func (m *memStore) ListSlideshows(_ context.Context, userID uuid.UUID) ([]types.Slideshow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Slideshow
	for _, s := range m.slideshows {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memStore) GetSlideshow(_ context.Context, id, userID uuid.UUID) (*types.Slideshow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slideshows[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) UpdateSlideshow(_ context.Context, id, userID uuid.UUID, update db.SlideshowUpdate) (*types.Slideshow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slideshows[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	if update.Title != nil {
		s.Title = *update.Title
	}
	if update.Settings != nil {
		s.Settings = *update.Settings
	}
	s.UpdatedAt = time.Now()
	cp := *s
	return &cp, nil
}

func (m *memStore) DeleteSlideshow(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slideshows[id]
	if !ok || s.UserID != userID {
		return fmt.Errorf("slideshow %s: %w", id, db.ErrNotFound)
	}
	delete(m.slideshows, id)
	delete(m.slides, id)
	delete(m.masters, id)
	return nil
}

func (m *memStore) ListSlides(_ context.Context, slideshowID uuid.UUID) ([]db.SlideRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.SlideRecord(nil), m.slides[slideshowID]...), nil
}

func (m *memStore) GetSlide(_ context.Context, id uuid.UUID) (*db.SlideRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, recs := range m.slides {
		for _, rec := range recs {
			if rec.ID == id {
				return &rec, nil
			}
		}
	}
	return nil, nil
}

func (m *memStore) AppendSlide(_ context.Context, slideshowID uuid.UUID, slide types.Slide) (*db.SlideRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := slideIDTaken(m.slides[slideshowID], slide.ID, uuid.Nil); err != nil {
		return nil, err
	}
	rec := db.SlideRecord{ID: uuid.New(), SlideshowID: slideshowID, OrderIndex: len(m.slides[slideshowID]), Data: slide}
	m.slides[slideshowID] = append(m.slides[slideshowID], rec)
	return &rec, nil
}

func slideIDTaken(recs []db.SlideRecord, slideID string, except uuid.UUID) error {
	for _, r := range recs {
		if r.ID != except && r.Data.ID == slideID {
			return fmt.Errorf("slide id %q: %w", slideID, db.ErrDuplicateSlideID)
		}
	}
	return nil
}

func (m *memStore) ReplaceSlides(_ context.Context, slideshowID uuid.UUID, slides []types.Slide) ([]db.SlideRecord, error) {
	if err := db.UniqueSlideIDs(slides); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceLocked(slideshowID, slides)
	return append([]db.SlideRecord(nil), m.slides[slideshowID]...), nil
}

func (m *memStore) replaceLocked(slideshowID uuid.UUID, slides []types.Slide) {
	recs := make([]db.SlideRecord, len(slides))
	for i, s := range slides {
		recs[i] = db.SlideRecord{ID: uuid.New(), SlideshowID: slideshowID, OrderIndex: i, Data: s}
	}
	m.slides[slideshowID] = recs
}

func (m *memStore) UpdateSlide(_ context.Context, id uuid.UUID, update db.SlideUpdate) (*db.SlideRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for showID, recs := range m.slides {
		for i := range recs {
			if recs[i].ID != id {
				continue
			}
			if update.Data != nil {
				if err := slideIDTaken(recs, update.Data.ID, id); err != nil {
					return nil, err
				}
			}
			to := i
			if update.OrderIndex != nil {
				to = *update.OrderIndex
				if to < 0 || to >= len(recs) {
					return nil, fmt.Errorf("order index %d out of range", to)
				}
				if to-i > 1 || i-to > 1 {
					return nil, fmt.Errorf("move %d to %d: %w", i, to, db.ErrNotAdjacent)
				}
			}
			if update.Data != nil {
				recs[i].Data = *update.Data
			}
			if to != i {
				recs[i], recs[to] = recs[to], recs[i]
				recs[i].OrderIndex, recs[to].OrderIndex = i, to
				m.slides[showID] = recs
			}
			rec := recs[to]
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("slide %s: %w", id, db.ErrNotFound)
}

func (m *memStore) DeleteSlide(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for showID, recs := range m.slides {
		for i := range recs {
			if recs[i].ID == id {
				recs = append(recs[:i], recs[i+1:]...)
				for j := range recs {
					recs[j].OrderIndex = j
				}
				m.slides[showID] = recs
				return nil
			}
		}
	}
	return fmt.Errorf("slide %s: %w", id, db.ErrNotFound)
}

func (m *memStore) SwapSlides(_ context.Context, slideshowID uuid.UUID, i, j int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i-j != 1 && j-i != 1 {
		return fmt.Errorf("swap %d and %d: %w", i, j, db.ErrNotAdjacent)
	}
	recs := m.slides[slideshowID]
	if i < 0 || j < 0 || i >= len(recs) || j >= len(recs) {
		return fmt.Errorf("swap %d and %d: %w", i, j, db.ErrNotFound)
	}
	recs[i], recs[j] = recs[j], recs[i]
	recs[i].OrderIndex, recs[j].OrderIndex = i, j
	return nil
}

func (m *memStore) SaveEditorState(_ context.Context, slideshowID uuid.UUID, slides []types.Slide, masters styles.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	if _, ok := m.slideshows[slideshowID]; !ok {
		return errors.New("slideshow deleted")
	}
	m.replaceLocked(slideshowID, slides)
	m.masters[slideshowID] = masters
	m.saves++
	return nil
}

func (m *memStore) LoadEditorState(_ context.Context, slideshowID uuid.UUID) (*db.EditorState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	show, ok := m.slideshows[slideshowID]
	if !ok {
		return nil, nil
	}
	state := &db.EditorState{Slideshow: *show, Masters: m.masters[slideshowID]}
	for _, rec := range m.slides[slideshowID] {
		state.Slides = append(state.Slides, rec.Data)
	}
	return state, nil
}

// storedTitles returns the stored slide titles in order
func (m *memStore) storedTitles(slideshowID uuid.UUID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, rec := range m.slides[slideshowID] {
		out = append(out, rec.Data.Title)
	}
	return out
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
