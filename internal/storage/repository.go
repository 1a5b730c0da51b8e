package storage

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// LearnedEntry is one row of learned_knowledge.
type LearnedEntry struct {
	ID        string
	Question  string
	Answer    string
	UpdatedAt time.Time
}

// IgnoredQuestion is one row of ignored_questions.
type IgnoredQuestion struct {
	ID       string
	UserID   string
	Question string
	AskedAt  time.Time
}

func newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// UpsertLearned inserts the pair or overwrites the answer of an existing
// question.
func (db *DB) UpsertLearned(ctx context.Context, question, answer string) error {
	now := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO learned_knowledge (id, question, answer, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(question) DO UPDATE SET
			answer = excluded.answer,
			updated_at = excluded.updated_at`,
		newID(now), question, answer, now.UnixMilli())
	if err != nil {
		return fmt.Errorf("storage: upsert learned: %w", err)
	}
	return nil
}

// LearnedEntries returns every learned pair in insertion order.
func (db *DB) LearnedEntries(ctx context.Context) ([]LearnedEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, question, answer, updated_at FROM learned_knowledge ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("storage: query learned: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []LearnedEntry
	for rows.Next() {
		var (
			e  LearnedEntry
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &ms); err != nil {
			return nil, fmt.Errorf("storage: scan learned: %w", err)
		}
		e.UpdatedAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate learned: %w", err)
	}
	return out, nil
}

// CountLearned returns the number of learned pairs.
func (db *DB) CountLearned(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM learned_knowledge`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count learned: %w", err)
	}
	return n, nil
}

// InsertIgnored records an unanswered question.
func (db *DB) InsertIgnored(ctx context.Context, userID, question string) error {
	now := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ignored_questions (id, user_id, question, asked_at) VALUES (?, ?, ?, ?)`,
		newID(now), userID, question, now.UnixMilli())
	if err != nil {
		return fmt.Errorf("storage: insert ignored: %w", err)
	}
	return nil
}

// RecentIgnored returns up to limit unanswered questions, newest first.
func (db *DB) RecentIgnored(ctx context.Context, limit int) ([]IgnoredQuestion, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, question, asked_at FROM ignored_questions ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: query ignored: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []IgnoredQuestion
	for rows.Next() {
		var (
			q  IgnoredQuestion
			ms int64
		)
		if err := rows.Scan(&q.ID, &q.UserID, &q.Question, &ms); err != nil {
			return nil, fmt.Errorf("storage: scan ignored: %w", err)
		}
		q.AskedAt = time.UnixMilli(ms)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate ignored: %w", err)
	}
	return out, nil
}
