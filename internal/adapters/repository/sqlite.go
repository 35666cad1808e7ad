package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/pkg/metrics"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS answers (
	key        TEXT PRIMARY KEY,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	choices    TEXT NOT NULL DEFAULT '[]',
	intent     TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_answers_updated ON answers(updated_at);

CREATE TABLE IF NOT EXISTS intent_answers (
	intent     TEXT PRIMARY KEY,
	answer     TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS profile (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// SQLiteStore is a Store persisted in a SQLite database file.
type SQLiteStore struct {
	db       *sql.DB
	opts     options
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s := &SQLiteStore{db: db, opts: defaultOptions(), stopChan: make(chan struct{})}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.startMetricsUpdater(ctx)
	return s, nil
}

func (s *SQLiteStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				if n, err := s.Count(ctx); err == nil {
					metrics.UpdateAnswersTotal(n)
				}
			}
		}
	}()
}

// Close stops the metrics updater and closes the database.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return s.db.Close()
}

// Get implements Store.Get.
func (s *SQLiteStore) Get(ctx context.Context, key string) (model.AnswerRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, question, answer, choices, intent, updated_at FROM answers WHERE key = ?`, key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AnswerRecord{}, ErrNotFound
	}
	if err != nil {
		return model.AnswerRecord{}, fmt.Errorf("get answer: %w", err)
	}
	return rec, nil
}

// Put implements Store.Put.
func (s *SQLiteStore) Put(ctx context.Context, rec model.AnswerRecord) (bool, error) {
	if rec.Key == "" {
		return false, ErrInvalidKey
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.opts.now()
	}
	choices, err := json.Marshal(nonNil(rec.Choices))
	if err != nil {
		return false, fmt.Errorf("encode choices: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var old string
	err = tx.QueryRowContext(ctx, `SELECT answer FROM answers WHERE key = ?`, rec.Key).Scan(&old)
	existed := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("read answer: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO answers (key, question, answer, choices, intent, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			question = excluded.question,
			answer = excluded.answer,
			choices = excluded.choices,
			intent = excluded.intent,
			updated_at = excluded.updated_at`,
		rec.Key, rec.Question, rec.Answer, string(choices), string(rec.Intent), formatTime(rec.UpdatedAt))
	if err != nil {
		return false, fmt.Errorf("upsert answer: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return existed && old != rec.Answer, nil
}

// IntentAnswer implements Store.IntentAnswer.
func (s *SQLiteStore) IntentAnswer(ctx context.Context, intent model.Intent) (string, error) {
	var answer string
	err := s.db.QueryRowContext(ctx,
		`SELECT answer FROM intent_answers WHERE intent = ?`, string(intent)).Scan(&answer)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get intent answer: %w", err)
	}
	return answer, nil
}

// PutIntentAnswer implements Store.PutIntentAnswer.
func (s *SQLiteStore) PutIntentAnswer(ctx context.Context, intent model.Intent, answer string) (bool, error) {
	if intent == model.IntentNone {
		return false, ErrInvalidKey
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var old string
	err = tx.QueryRowContext(ctx, `SELECT answer FROM intent_answers WHERE intent = ?`, string(intent)).Scan(&old)
	existed := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("read intent answer: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO intent_answers (intent, answer, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(intent) DO UPDATE SET answer = excluded.answer, updated_at = excluded.updated_at`,
		string(intent), answer, formatTime(s.opts.now()))
	if err != nil {
		return false, fmt.Errorf("upsert intent answer: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return existed && old != answer, nil
}

// List implements Store.List.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]model.AnswerRecord, error) {
	q := `SELECT key, question, answer, choices, intent, updated_at FROM answers ORDER BY updated_at DESC, key ASC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []model.AnswerRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM answers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}
	return n, nil
}

// SaveProfile implements Store.SaveProfile.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p model.Profile) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profile (id, body, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		string(body), formatTime(s.opts.now()))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// LoadProfile implements Store.LoadProfile.
func (s *SQLiteStore) LoadProfile(ctx context.Context) (model.Profile, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM profile WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	var p model.Profile
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return model.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(r rowScanner) (model.AnswerRecord, error) {
	var (
		rec     model.AnswerRecord
		choices string
		intent  string
		updated string
	)
	if err := r.Scan(&rec.Key, &rec.Question, &rec.Answer, &choices, &intent, &updated); err != nil {
		return model.AnswerRecord{}, err
	}
	if err := json.Unmarshal([]byte(choices), &rec.Choices); err != nil {
		return model.AnswerRecord{}, fmt.Errorf("decode choices: %w", err)
	}
	if len(rec.Choices) == 0 {
		rec.Choices = nil
	}
	rec.Intent = model.Intent(intent)
	t, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return model.AnswerRecord{}, fmt.Errorf("decode updated_at: %w", err)
	}
	rec.UpdatedAt = t
	return rec, nil
}

// formatTime renders UTC with a fixed width so text ordering matches time ordering.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
