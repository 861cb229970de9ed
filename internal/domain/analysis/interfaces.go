package analysis

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

// ErrNotFound is returned by stores when a record or job is unknown to the account.
var ErrNotFound = errors.New("analysis not found")

// MemberSource resolves stored family members into engine input.
type MemberSource interface {
	Profiles(ctx context.Context, accountID int64, ids []string) ([]nutrition.ProfileInput, error)
}

// ComboSource turns combos into a total intake.
type ComboSource interface {
	Aggregate(ctx context.Context, ids []string) (nutrition.Intake, error)
}

// HistoryRepository persists finished analyses.
type HistoryRepository interface {
	Save(ctx context.Context, record Record) error
	Get(ctx context.Context, accountID int64, id string) (Record, error)
	List(ctx context.Context, accountID int64, limit int) ([]Record, error)
}

// ResultCache memoises batch results by request hash.
type ResultCache interface {
	Get(ctx context.Context, key string) (nutrition.BatchResult, bool, error)
	Set(ctx context.Context, key string, result nutrition.BatchResult, ttl time.Duration) error
}

// ReportStore holds exported report blobs.
type ReportStore interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// JobStore keeps async job state.
type JobStore interface {
	Save(ctx context.Context, job Job) error
	Get(ctx context.Context, accountID int64, id string) (Job, error)
}

// JobQueue enqueues processing tasks.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload any) error
}

// LLM generates the narrative text for a prompt.
type LLM interface {
	Chat(ctx context.Context, messages []LLMMessage) (string, error)
}

// LLMMessage mirrors a simplified chat payload.
type LLMMessage struct {
	Role    string
	Content string
}

// TokenCounter measures and trims prompt text.
type TokenCounter interface {
	Count(text string) int
	Truncate(text string, maxTokens int) string
}
