package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/slideshow-studio/internal/types"
)

const slideshowColumns = `id, user_id, title, settings, created_at, updated_at`

func scanSlideshow(row pgx.Row) (*types.Slideshow, error) {
	return scanSlideshowWith(row)
}

// CreateSlideshow creates a slideshow owned by userID. An empty title uses the default.
func (db *DB) CreateSlideshow(ctx context.Context, userID uuid.UUID, title string, settings types.GenerationSettings) (*types.Slideshow, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = types.DefaultSlideshowTitle
	}
	settingsJSON, err := json.Marshal(settings.WithDefaults())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}

	s, err := scanSlideshow(db.pool.QueryRow(ctx,
		`INSERT INTO slideshows (user_id, title, settings)
		 VALUES ($1, $2, $3)
		 RETURNING `+slideshowColumns,
		userID, title, settingsJSON,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create slideshow: %w", err)
	}
	return s, nil
}

// ListSlideshows returns a user's slideshows, most recently updated first
func (db *DB) ListSlideshows(ctx context.Context, userID uuid.UUID) ([]types.Slideshow, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+slideshowColumns+` FROM slideshows
		 WHERE user_id = $1
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list slideshows: %w", err)
	}
	defer rows.Close()

	slideshows := []types.Slideshow{}
	for rows.Next() {
		s, err := scanSlideshow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slideshow: %w", err)
		}
		slideshows = append(slideshows, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list slideshows: %w", err)
	}
	return slideshows, nil
}

// GetSlideshow retrieves a slideshow owned by userID. Returns nil if it does
// not exist or belongs to someone else.
func (db *DB) GetSlideshow(ctx context.Context, id, userID uuid.UUID) (*types.Slideshow, error) {
	s, err := scanSlideshow(db.pool.QueryRow(ctx,
		`SELECT `+slideshowColumns+` FROM slideshows WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get slideshow: %w", err)
	}
	return s, nil
}

// UpdateSlideshow applies the non-nil fields of update
func (db *DB) UpdateSlideshow(ctx context.Context, id, userID uuid.UUID, update SlideshowUpdate) (*types.Slideshow, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id, userID}
	argNum := 3

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			title = types.DefaultSlideshowTitle
		}
		sets = append(sets, fmt.Sprintf("title = $%d", argNum))
		args = append(args, title)
		argNum++
	}
	if update.Settings != nil {
		settingsJSON, err := json.Marshal(update.Settings.WithDefaults())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal settings: %w", err)
		}
		sets = append(sets, fmt.Sprintf("settings = $%d", argNum))
		args = append(args, settingsJSON)
	}

	s, err := scanSlideshow(db.pool.QueryRow(ctx,
		`UPDATE slideshows SET `+strings.Join(sets, ", ")+`
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+slideshowColumns,
		args...,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("slideshow %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update slideshow: %w", err)
	}
	return s, nil
}

// DeleteSlideshow deletes a slideshow and its slides (via cascade)
func (db *DB) DeleteSlideshow(ctx context.Context, id, userID uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM slideshows WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete slideshow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("slideshow %s: %w", id, ErrNotFound)
	}
	return nil
}

// SlideshowOwner returns the owner of a slideshow, or uuid.Nil if it does not exist
func (db *DB) SlideshowOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID
	err := db.pool.QueryRow(ctx, `SELECT user_id FROM slideshows WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("failed to get slideshow owner: %w", err)
	}
	return owner, nil
}

// lockSlideshow takes a row lock so concurrent order_index writers serialize
func lockSlideshow(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM slideshows WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("slideshow %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to lock slideshow: %w", err)
	}
	return nil
}

func touchSlideshow(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	if _, err := tx.Exec(ctx, `UPDATE slideshows SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to touch slideshow: %w", err)
	}
	return nil
}
