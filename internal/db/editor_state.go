package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/slideshow-studio/internal/styles"
	"github.com/jonathan/slideshow-studio/internal/types"
)

// SaveEditorState writes the full slide list and master references in one
// transaction. It is the write path of the debounced flusher.
func (db *DB) SaveEditorState(ctx context.Context, slideshowID uuid.UUID, slides []types.Slide, masters styles.Ledger) error {
	mastersJSON, err := json.Marshal(masters)
	if err != nil {
		return fmt.Errorf("failed to marshal masters: %w", err)
	}

	return db.withTx(ctx, func(tx pgx.Tx) error {
		if err := lockSlideshow(ctx, tx, slideshowID); err != nil {
			return err
		}
		if err := replaceSlides(ctx, tx, slideshowID, slides); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE slideshows SET masters = $1, updated_at = NOW() WHERE id = $2`,
			mastersJSON, slideshowID,
		); err != nil {
			return fmt.Errorf("failed to save masters: %w", err)
		}
		return nil
	})
}

// LoadEditorState reads a slideshow with its slides and masters. Returns nil
// if the slideshow does not exist.
func (db *DB) LoadEditorState(ctx context.Context, slideshowID uuid.UUID) (*EditorState, error) {
	var state EditorState
	var mastersJSON []byte
	s, err := scanSlideshowWith(db.pool.QueryRow(ctx,
		`SELECT `+slideshowColumns+`, masters FROM slideshows WHERE id = $1`, slideshowID,
	), &mastersJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load slideshow: %w", err)
	}
	state.Slideshow = *s

	if len(mastersJSON) > 0 {
		if err := json.Unmarshal(mastersJSON, &state.Masters); err != nil {
			return nil, fmt.Errorf("failed to decode masters: %w", err)
		}
	}

	records, err := db.ListSlides(ctx, slideshowID)
	if err != nil {
		return nil, err
	}
	state.Slides = make([]types.Slide, len(records))
	for i, r := range records {
		state.Slides[i] = r.Data
	}
	state.Masters.Prune(state.Slides)
	return &state, nil
}

func scanSlideshowWith(row pgx.Row, extra ...any) (*types.Slideshow, error) {
	var s types.Slideshow
	var settingsJSON []byte
	dest := append([]any{&s.ID, &s.UserID, &s.Title, &settingsJSON, &s.CreatedAt, &s.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &s.Settings); err != nil {
			return nil, fmt.Errorf("failed to decode settings of slideshow %s: %w", s.ID, err)
		}
	}
	s.Settings = s.Settings.WithDefaults()
	return &s, nil
}
