package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

const (
	// Retention cap on stored turns per user.
	defaultRetention = 100

	defaultProfileName = "Bull"
)

type profileRow struct {
	bun.BaseModel `bun:"table:user_profiles,alias:p"`

	UserID          string    `bun:"user_id,pk"`
	Name            string    `bun:"name,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	Preferences     string    `bun:"preferences"`
	BusinessContext string    `bun:"business_context"`
	VoiceProfile    string    `bun:"voice_profile"`
}

type turnRow struct {
	bun.BaseModel `bun:"table:conversation_turns,alias:t"`

	ID                int64     `bun:"id,pk,autoincrement"`
	UserID            string    `bun:"user_id,notnull"`
	Timestamp         time.Time `bun:"timestamp,notnull"`
	UserMessage       string    `bun:"user_message,notnull"`
	AssistantResponse string    `bun:"assistant_response,notnull"`
}

// StoreOption customizes Store.
type StoreOption func(*Store)

func WithRetention(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.retention = n
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store persists user profiles and the bounded conversation log in an
// embedded sqlite database. All read-modify-write sequences run inside a
// transaction so concurrent turns cannot interleave a read and a stale write.
type Store struct {
	db        *bun.DB
	retention int
	now       func() time.Time
}

var _ contractx.MemoryStore = (*Store)(nil)

func NewStore(ctx context.Context, db *bun.DB, opts ...StoreOption) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}

	s := &Store{
		db:        db,
		retention: defaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if _, err := db.NewCreateTable().Model((*profileRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("create user_profiles table: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*turnRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("create conversation_turns table: %w", err)
	}
	return s, nil
}

// GetProfile returns the stored profile, creating a default one on first
// access.
func (s *Store) GetProfile(ctx context.Context, userID string) (*contractx.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is empty", contractx.ErrValidation)
	}

	var profile *contractx.UserProfile
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row, err := s.loadOrCreateProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		profile, err = decodeProfile(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile applies a partial update: name, voice_profile, preferences,
// and business_context keys replace the stored values wholesale.
func (s *Store) UpdateProfile(ctx context.Context, userID string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row, err := s.loadOrCreateProfile(ctx, tx, userID)
		if err != nil {
			return err
		}

		for key, value := range updates {
			switch key {
			case "name":
				if v, ok := value.(string); ok {
					row.Name = v
				}
			case "voice_profile":
				if v, ok := value.(string); ok {
					row.VoiceProfile = v
				}
			case "preferences", "business_context":
				encoded, err := json.Marshal(value)
				if err != nil {
					return fmt.Errorf("encode profile %s: %w", key, err)
				}
				if key == "preferences" {
					row.Preferences = string(encoded)
				} else {
					row.BusinessContext = string(encoded)
				}
			}
		}

		_, err = tx.NewUpdate().Model(row).WherePK().Exec(ctx)
		return err
	})
}

// AppendTurn stores one finished exchange and enforces the retention cap in
// the same transaction.
func (s *Store) AppendTurn(ctx context.Context, userID, userMessage, response string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is empty", contractx.ErrValidation)
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &turnRow{
			UserID:            userID,
			Timestamp:         s.now().UTC(),
			UserMessage:       userMessage,
			AssistantResponse: response,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}

		_, err := tx.NewDelete().
			Model((*turnRow)(nil)).
			Where("user_id = ?", userID).
			Where("id NOT IN (SELECT id FROM conversation_turns WHERE user_id = ? ORDER BY id DESC LIMIT ?)", userID, s.retention).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("trim turns: %w", err)
		}
		return nil
	})
}

// RecentTurns returns up to limit stored turns, most recent last.
func (s *Store) RecentTurns(ctx context.Context, userID string, limit int) ([]contractx.ConversationTurn, error) {
	if limit <= 0 {
		return nil, nil
	}

	var rows []turnRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select turns: %w", err)
	}

	turns := make([]contractx.ConversationTurn, len(rows))
	for i, row := range rows {
		turns[len(rows)-1-i] = contractx.ConversationTurn{
			UserID:    row.UserID,
			Timestamp: row.Timestamp,
			UserMsg:   row.UserMessage,
			Response:  row.AssistantResponse,
		}
	}
	return turns, nil
}

// ExtractContext runs keyword capture over the user message and merges any
// new snippets into the profile's business context, deduplicated per
// category.
func (s *Store) ExtractContext(ctx context.Context, userID, message, response string) error {
	extracted := ExtractBusinessContext(message, BusinessKeywords)
	if len(extracted) == 0 {
		return nil
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row, err := s.loadOrCreateProfile(ctx, tx, userID)
		if err != nil {
			return err
		}

		var existing map[string][]string
		if row.BusinessContext != "" {
			if err := json.Unmarshal([]byte(row.BusinessContext), &existing); err != nil {
				return fmt.Errorf("decode business context: %w", err)
			}
		}

		merged := MergeContext(existing, extracted)
		encoded, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode business context: %w", err)
		}
		row.BusinessContext = string(encoded)

		_, err = tx.NewUpdate().Model(row).WherePK().Exec(ctx)
		return err
	})
}

func (s *Store) loadOrCreateProfile(ctx context.Context, tx bun.Tx, userID string) (*profileRow, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is empty", contractx.ErrValidation)
	}

	row := new(profileRow)
	err := tx.NewSelect().Model(row).Where("user_id = ?", userID).Scan(ctx)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("select profile: %w", err)
	}

	row = &profileRow{
		UserID:    userID,
		Name:      defaultProfileName,
		CreatedAt: s.now().UTC(),
	}
	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert default profile: %w", err)
	}
	return row, nil
}

func decodeProfile(row *profileRow) (*contractx.UserProfile, error) {
	profile := &contractx.UserProfile{
		UserID:       row.UserID,
		Name:         row.Name,
		CreatedAt:    row.CreatedAt,
		VoiceProfile: row.VoiceProfile,
	}
	if row.Preferences != "" {
		if err := json.Unmarshal([]byte(row.Preferences), &profile.Preferences); err != nil {
			return nil, fmt.Errorf("decode preferences: %w", err)
		}
	}
	if row.BusinessContext != "" {
		if err := json.Unmarshal([]byte(row.BusinessContext), &profile.BusinessContext); err != nil {
			return nil, fmt.Errorf("decode business context: %w", err)
		}
	}
	return profile, nil
}
