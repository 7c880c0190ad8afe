package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

type projectRow struct {
	bun.BaseModel `bun:"table:projects,alias:pr"`

	ID               string    `bun:"id,pk"`
	Name             string    `bun:"name,notnull"`
	Domain           string    `bun:"domain"`
	Description      string    `bun:"description"`
	Industry         string    `bun:"industry"`
	PrimaryObjective string    `bun:"primary_objective"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
	UpdatedAt        time.Time `bun:"updated_at,notnull"`
	Metadata         string    `bun:"metadata"`
}

// Store is CRUD over project records in the embedded sqlite database.
// Records never expire; only explicit tool calls mutate them.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

var _ contractx.ProjectStore = (*Store)(nil)

type StoreOption func(*Store)

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(ctx context.Context, db *bun.DB, opts ...StoreOption) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if _, err := db.NewCreateTable().Model((*projectRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("create projects table: %w", err)
	}
	return s, nil
}

// Create stores a new project record. A generated id overrides any id on
// rec; the metadata bag is seeded with goals/notes/contacts lists.
func (s *Store) Create(ctx context.Context, rec *contractx.ProjectRecord) (*contractx.ProjectRecord, error) {
	if rec == nil || strings.TrimSpace(rec.Name) == "" {
		return nil, fmt.Errorf("%w: project name is required", contractx.ErrValidation)
	}

	now := s.now().UTC()
	metadata := map[string]any{
		"goals":    []any{},
		"notes":    []any{},
		"contacts": []any{},
	}
	for k, v := range rec.Metadata {
		metadata[k] = v
	}

	created := &contractx.ProjectRecord{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(rec.Name),
		Domain:           rec.Domain,
		Description:      rec.Description,
		Industry:         rec.Industry,
		PrimaryObjective: rec.PrimaryObjective,
		CreatedAt:        now,
		UpdatedAt:        now,
		Metadata:         metadata,
	}

	row, err := encodeRow(created)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return created, nil
}

// Get looks a project up by exact id or, failing that, by case-insensitive
// partial name match.
func (s *Store) Get(ctx context.Context, id, name string) (*contractx.ProjectRecord, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" && name == "" {
		return nil, fmt.Errorf("%w: project id or name is required", contractx.ErrValidation)
	}

	row := new(projectRow)
	q := s.db.NewSelect().Model(row).Order("created_at ASC").Limit(1)
	if id != "" {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("lower(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: project %q", contractx.ErrNotFound, firstNonEmpty(id, name))
		}
		return nil, fmt.Errorf("select project: %w", err)
	}
	return decodeRow(row)
}

// List returns all projects, oldest first.
func (s *Store) List(ctx context.Context) ([]contractx.ProjectRecord, error) {
	var rows []projectRow
	if err := s.db.NewSelect().Model(&rows).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}

	records := make([]contractx.ProjectRecord, 0, len(rows))
	for i := range rows {
		rec, err := decodeRow(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// Update applies a partial field merge. The "metadata" key deep-merges into
// the stored bag; unknown keys land in the bag as-is.
func (s *Store) Update(ctx context.Context, id string, updates map[string]any) (*contractx.ProjectRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: project id is required", contractx.ErrValidation)
	}

	var updated *contractx.ProjectRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(projectRow)
		if err := tx.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: project %q", contractx.ErrNotFound, id)
			}
			return fmt.Errorf("select project: %w", err)
		}

		rec, err := decodeRow(row)
		if err != nil {
			return err
		}
		if rec.Metadata == nil {
			rec.Metadata = map[string]any{}
		}

		for key, value := range updates {
			switch key {
			case "name":
				if v, ok := value.(string); ok && strings.TrimSpace(v) != "" {
					rec.Name = strings.TrimSpace(v)
				}
			case "domain":
				if v, ok := value.(string); ok {
					rec.Domain = v
				}
			case "description":
				if v, ok := value.(string); ok {
					rec.Description = v
				}
			case "industry":
				if v, ok := value.(string); ok {
					rec.Industry = v
				}
			case "primary_objective":
				if v, ok := value.(string); ok {
					rec.PrimaryObjective = v
				}
			case "metadata":
				if bag, ok := value.(map[string]any); ok {
					for k, v := range bag {
						rec.Metadata[k] = v
					}
				}
			default:
				rec.Metadata[key] = value
			}
		}
		rec.UpdatedAt = s.now().UTC()

		encoded, err := encodeRow(rec)
		if err != nil {
			return err
		}
		if _, err := tx.NewUpdate().Model(encoded).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a project by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: project id is required", contractx.ErrValidation)
	}

	res, err := s.db.NewDelete().Model((*projectRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: project %q", contractx.ErrNotFound, id)
	}
	return nil
}

func encodeRow(rec *contractx.ProjectRecord) (*projectRow, error) {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode project metadata: %w", err)
	}
	return &projectRow{
		ID:               rec.ID,
		Name:             rec.Name,
		Domain:           rec.Domain,
		Description:      rec.Description,
		Industry:         rec.Industry,
		PrimaryObjective: rec.PrimaryObjective,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
		Metadata:         string(metadata),
	}, nil
}

func decodeRow(row *projectRow) (*contractx.ProjectRecord, error) {
	rec := &contractx.ProjectRecord{
		ID:               row.ID,
		Name:             row.Name,
		Domain:           row.Domain,
		Description:      row.Description,
		Industry:         row.Industry,
		PrimaryObjective: row.PrimaryObjective,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if row.Metadata != "" {
		if err := json.Unmarshal([]byte(row.Metadata), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decode project metadata: %w", err)
		}
	}
	return rec, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
