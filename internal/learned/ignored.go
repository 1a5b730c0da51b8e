package learned

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/garyellow/aulabot-go/internal/storage"
)

// IgnoredLog records questions the bot could not answer.
type IgnoredLog interface {
	Record(ctx context.Context, userID, question string) error
}

// FileLog appends one raw line per question to a rotated text file.
type FileLog struct {
	mu sync.Mutex
	w  *lumberjack.Logger
}

// NewFileLog appends to path, rotating at maxSizeMB and keeping maxBackups
// old files.
func NewFileLog(path string, maxSizeMB, maxBackups int) *FileLog {
	return &FileLog{w: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		LocalTime:  true,
	}}
}

// Record writes question on its own line. Embedded newlines are folded to
// spaces so each entry stays one line.
func (l *FileLog) Record(_ context.Context, _ string, question string) error {
	line := strings.Join(strings.Fields(question), " ") + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write([]byte(line)); err != nil {
		return fmt.Errorf("learned: write ignored log: %w", err)
	}
	return nil
}

// Close closes the current log file.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}

// SQLLog stores questions in the ignored_questions table.
type SQLLog struct {
	db *storage.DB
}

// NewSQLLog returns a log over db.
func NewSQLLog(db *storage.DB) *SQLLog {
	return &SQLLog{db: db}
}

// Record inserts one row.
func (l *SQLLog) Record(ctx context.Context, userID, question string) error {
	return l.db.InsertIgnored(ctx, userID, question)
}
