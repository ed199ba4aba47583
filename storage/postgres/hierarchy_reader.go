package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/open-rails/learnkit/hierarchy"
)

// HierarchyReader implements hierarchy.Reader over the external content
// schema. Read-only; this module never migrates or writes content tables.
type HierarchyReader struct {
	db     *DB
	schema string
}

// NewHierarchyReader constructs the reader. An empty schema defaults to
// "content".
func NewHierarchyReader(db *DB, schema string) *HierarchyReader {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "content"
	}
	return &HierarchyReader{db: db, schema: s}
}

func (r *HierarchyReader) pathsTable() string  { return r.schema + ".paths" }
func (r *HierarchyReader) levelsTable() string { return r.schema + ".levels" }

func (r *HierarchyReader) GetPath(ctx context.Context, pathID uuid.UUID) (hierarchy.Path, error) {
	var p hierarchy.Path
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, category_id FROM `+r.pathsTable()+` WHERE id=$1`,
		pathID,
	).Scan(&p.ID, &p.CategoryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return hierarchy.Path{}, fmt.Errorf("path %s: %w", pathID, hierarchy.ErrNotFound)
	}
	if err != nil {
		return hierarchy.Path{}, err
	}

	levels, err := r.GetLevelsForPath(ctx, pathID)
	if err != nil {
		return hierarchy.Path{}, err
	}
	p.LevelIDs = make([]uuid.UUID, len(levels))
	for i, l := range levels {
		p.LevelIDs[i] = l.ID
	}
	return p, nil
}

func (r *HierarchyReader) GetLevel(ctx context.Context, levelID uuid.UUID) (hierarchy.Level, error) {
	var l hierarchy.Level
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, path_id, sort_order FROM `+r.levelsTable()+` WHERE id=$1`,
		levelID,
	).Scan(&l.ID, &l.PathID, &l.Order)
	if errors.Is(err, pgx.ErrNoRows) {
		return hierarchy.Level{}, fmt.Errorf("level %s: %w", levelID, hierarchy.ErrNotFound)
	}
	if err != nil {
		return hierarchy.Level{}, err
	}
	return l, nil
}

// GetLevelsForPath orders by sort_order with the level ID as tiebreak, so
// equal orders still yield one stable total order.
func (r *HierarchyReader) GetLevelsForPath(ctx context.Context, pathID uuid.UUID) ([]hierarchy.Level, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, path_id, sort_order FROM `+r.levelsTable()+`
		 WHERE path_id=$1 ORDER BY sort_order, id`,
		pathID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hierarchy.Level
	for rows.Next() {
		var l hierarchy.Level
		if err := rows.Scan(&l.ID, &l.PathID, &l.Order); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *HierarchyReader) ListPathIDs(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id FROM `+r.pathsTable()+` WHERE category_id=$1 ORDER BY id`,
		categoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
