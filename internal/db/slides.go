package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/slideshow-studio/internal/types"
)

// order_index is contiguous from 0 within a slideshow. Writers that shift
// indexes lock the slideshow row and defer the unique check to commit.

const slideColumns = `id, slideshow_id, order_index, slide_data, created_at, updated_at`

func scanSlide(row pgx.Row) (*SlideRecord, error) {
	var r SlideRecord
	var data []byte
	if err := row.Scan(&r.ID, &r.SlideshowID, &r.OrderIndex, &data, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &r.Data); err != nil {
		return nil, fmt.Errorf("failed to decode slide %s: %w", r.ID, err)
	}
	r.Data.Normalize()
	return &r, nil
}

func marshalSlide(s types.Slide) ([]byte, error) {
	s.Normalize()
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal slide: %w", err)
	}
	return data, nil
}

func deferOrderCheck(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `SET CONSTRAINTS slides_slideshow_order_key DEFERRED`); err != nil {
		return fmt.Errorf("failed to defer order constraint: %w", err)
	}
	return nil
}

// checkSlideID reports ErrDuplicateSlideID when another row of the slideshow
// already carries slideID. except is the row being rewritten, if any.
func checkSlideID(ctx context.Context, tx pgx.Tx, slideshowID uuid.UUID, slideID string, except uuid.UUID) error {
	var taken bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM slides WHERE slideshow_id = $1 AND slide_data->>'id' = $2 AND id <> $3)`,
		slideshowID, slideID, except,
	).Scan(&taken); err != nil {
		return fmt.Errorf("failed to check slide id: %w", err)
	}
	if taken {
		return fmt.Errorf("slide id %q: %w", slideID, ErrDuplicateSlideID)
	}
	return nil
}

// UniqueSlideIDs reports ErrDuplicateSlideID when two slides share an id
func UniqueSlideIDs(slides []types.Slide) error {
	seen := make(map[string]struct{}, len(slides))
	for _, s := range slides {
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("slide id %q: %w", s.ID, ErrDuplicateSlideID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// ListSlides returns a slideshow's slides in order
func (db *DB) ListSlides(ctx context.Context, slideshowID uuid.UUID) ([]SlideRecord, error) {
	return listSlides(ctx, db.pool, slideshowID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listSlides(ctx context.Context, q querier, slideshowID uuid.UUID) ([]SlideRecord, error) {
	rows, err := q.Query(ctx,
		`SELECT `+slideColumns+` FROM slides
		 WHERE slideshow_id = $1
		 ORDER BY order_index ASC`,
		slideshowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list slides: %w", err)
	}
	defer rows.Close()

	records := []SlideRecord{}
	for rows.Next() {
		r, err := scanSlide(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slide: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list slides: %w", err)
	}
	return records, nil
}

// GetSlide retrieves a slide row by ID. Returns nil if not found.
func (db *DB) GetSlide(ctx context.Context, id uuid.UUID) (*SlideRecord, error) {
	r, err := scanSlide(db.pool.QueryRow(ctx,
		`SELECT `+slideColumns+` FROM slides WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get slide: %w", err)
	}
	return r, nil
}

// AppendSlide adds a slide after the last one
func (db *DB) AppendSlide(ctx context.Context, slideshowID uuid.UUID, slide types.Slide) (*SlideRecord, error) {
	data, err := marshalSlide(slide)
	if err != nil {
		return nil, err
	}

	var rec *SlideRecord
	err = db.withTx(ctx, func(tx pgx.Tx) error {
		if err := lockSlideshow(ctx, tx, slideshowID); err != nil {
			return err
		}
		if err := checkSlideID(ctx, tx, slideshowID, slide.ID, uuid.Nil); err != nil {
			return err
		}
		r, err := scanSlide(tx.QueryRow(ctx,
			`INSERT INTO slides (slideshow_id, order_index, slide_data)
			 SELECT $1, COALESCE(MAX(order_index) + 1, 0), $2 FROM slides WHERE slideshow_id = $1
			 RETURNING `+slideColumns,
			slideshowID, data,
		))
		if err != nil {
			return fmt.Errorf("failed to append slide: %w", err)
		}
		rec = r
		return touchSlideshow(ctx, tx, slideshowID)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ReplaceSlides swaps the whole slide list for slides, indexed 0..n-1
func (db *DB) ReplaceSlides(ctx context.Context, slideshowID uuid.UUID, slides []types.Slide) ([]SlideRecord, error) {
	if err := UniqueSlideIDs(slides); err != nil {
		return nil, err
	}
	var records []SlideRecord
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		if err := lockSlideshow(ctx, tx, slideshowID); err != nil {
			return err
		}
		if err := replaceSlides(ctx, tx, slideshowID, slides); err != nil {
			return err
		}
		if err := touchSlideshow(ctx, tx, slideshowID); err != nil {
			return err
		}
		var err error
		records, err = listSlides(ctx, tx, slideshowID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func replaceSlides(ctx context.Context, tx pgx.Tx, slideshowID uuid.UUID, slides []types.Slide) error {
	if _, err := tx.Exec(ctx, `DELETE FROM slides WHERE slideshow_id = $1`, slideshowID); err != nil {
		return fmt.Errorf("failed to clear slides: %w", err)
	}
	if len(slides) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, s := range slides {
		data, err := marshalSlide(s)
		if err != nil {
			return err
		}
		batch.Queue(
			`INSERT INTO slides (slideshow_id, order_index, slide_data) VALUES ($1, $2, $3)`,
			slideshowID, i, data,
		)
	}
	results := tx.SendBatch(ctx, batch)
	for i := range slides {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to insert slide %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to insert slides: %w", err)
	}
	return nil
}

// UpdateSlide changes a slide's data and/or position. A slide moves one place at a
// time, trading places with its neighbour.
func (db *DB) UpdateSlide(ctx context.Context, id uuid.UUID, update SlideUpdate) (*SlideRecord, error) {
	var rec *SlideRecord
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		current, err := scanSlide(tx.QueryRow(ctx,
			`SELECT `+slideColumns+` FROM slides WHERE id = $1`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("slide %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to get slide: %w", err)
		}
		if err := lockSlideshow(ctx, tx, current.SlideshowID); err != nil {
			return err
		}

		if update.Data != nil {
			if err := checkSlideID(ctx, tx, current.SlideshowID, update.Data.ID, current.ID); err != nil {
				return err
			}
			data, err := marshalSlide(*update.Data)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`UPDATE slides SET slide_data = $1, updated_at = NOW() WHERE id = $2`, data, id); err != nil {
				return fmt.Errorf("failed to update slide: %w", err)
			}
		}

		if update.OrderIndex != nil && *update.OrderIndex != current.OrderIndex {
			if err := moveSlide(ctx, tx, current, *update.OrderIndex); err != nil {
				return err
			}
		}

		if err := touchSlideshow(ctx, tx, current.SlideshowID); err != nil {
			return err
		}
		rec, err = scanSlide(tx.QueryRow(ctx,
			`SELECT `+slideColumns+` FROM slides WHERE id = $1`, id))
		if err != nil {
			return fmt.Errorf("failed to reload slide: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func moveSlide(ctx context.Context, tx pgx.Tx, current *SlideRecord, to int) error {
	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM slides WHERE slideshow_id = $1`, current.SlideshowID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count slides: %w", err)
	}
	if to < 0 || to >= count {
		return fmt.Errorf("order index %d out of range [0, %d)", to, count)
	}
	from := current.OrderIndex
	if !adjacent(from, to) {
		return fmt.Errorf("move %d to %d: %w", from, to, ErrNotAdjacent)
	}
	if err := deferOrderCheck(ctx, tx); err != nil {
		return err
	}

	var shift string
	if to > from {
		shift = `UPDATE slides SET order_index = order_index - 1
		 WHERE slideshow_id = $1 AND order_index > $2 AND order_index <= $3`
	} else {
		shift = `UPDATE slides SET order_index = order_index + 1
		 WHERE slideshow_id = $1 AND order_index >= $3 AND order_index < $2`
	}
	if _, err := tx.Exec(ctx, shift, current.SlideshowID, from, to); err != nil {
		return fmt.Errorf("failed to shift slides: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE slides SET order_index = $1, updated_at = NOW() WHERE id = $2`, to, current.ID); err != nil {
		return fmt.Errorf("failed to move slide: %w", err)
	}
	return nil
}

// DeleteSlide removes a slide and closes the gap it leaves
func (db *DB) DeleteSlide(ctx context.Context, id uuid.UUID) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		var slideshowID uuid.UUID
		var orderIndex int
		err := tx.QueryRow(ctx,
			`SELECT slideshow_id, order_index FROM slides WHERE id = $1`, id,
		).Scan(&slideshowID, &orderIndex)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("slide %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to get slide: %w", err)
		}
		if err := lockSlideshow(ctx, tx, slideshowID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM slides WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete slide: %w", err)
		}
		if err := deferOrderCheck(ctx, tx); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE slides SET order_index = order_index - 1
			 WHERE slideshow_id = $1 AND order_index > $2`,
			slideshowID, orderIndex,
		); err != nil {
			return fmt.Errorf("failed to compact slides: %w", err)
		}
		return touchSlideshow(ctx, tx, slideshowID)
	})
}

func adjacent(i, j int) bool {
	return i-j == 1 || j-i == 1
}

// SwapSlides exchanges the neighbouring slides at positions i and j
func (db *DB) SwapSlides(ctx context.Context, slideshowID uuid.UUID, i, j int) error {
	if !adjacent(i, j) {
		return fmt.Errorf("swap %d and %d: %w", i, j, ErrNotAdjacent)
	}
	return db.withTx(ctx, func(tx pgx.Tx) error {
		if err := lockSlideshow(ctx, tx, slideshowID); err != nil {
			return err
		}
		if err := deferOrderCheck(ctx, tx); err != nil {
			return err
		}
		result, err := tx.Exec(ctx,
			`UPDATE slides
			 SET order_index = CASE WHEN order_index = $2 THEN $3 ELSE $2 END, updated_at = NOW()
			 WHERE slideshow_id = $1 AND order_index IN ($2, $3)`,
			slideshowID, i, j,
		)
		if err != nil {
			return fmt.Errorf("failed to swap slides: %w", err)
		}
		if result.RowsAffected() != 2 {
			return fmt.Errorf("swap %d and %d in slideshow %s: %w", i, j, slideshowID, ErrNotFound)
		}
		return touchSlideshow(ctx, tx, slideshowID)
	})
}
