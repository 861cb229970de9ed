package analysis

import (
	"time"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	"github.com/yanqian/nutriforecast/pkg/metrics"
)

// Request describes one family analysis. Members are loaded from the account,
// profiles are given inline, and both can be mixed. A shared intake comes either
// from SharedIntake or from the summed combos, never both.
type Request struct {
	MemberIDs    []string                 `json:"memberIds,omitempty"`
	Profiles     []nutrition.ProfileInput `json:"profiles,omitempty"`
	SharedIntake *nutrition.Intake        `json:"sharedIntake,omitempty"`
	ComboIDs     []string                 `json:"comboIds,omitempty"`
	HorizonDays  int                      `json:"horizonDays,omitempty"`
	Mode         string                   `json:"mode,omitempty"`
	Allocation   string                   `json:"allocation,omitempty"`
	Narrative    bool                     `json:"narrative,omitempty"`
}

// Record is a stored analysis.
type Record struct {
	ID           string                `json:"id"`
	AccountID    int64                 `json:"-"`
	CreatedAt    time.Time             `json:"createdAt"`
	Request      Request               `json:"request"`
	SharedIntake *nutrition.Intake     `json:"sharedIntake,omitempty"`
	Result       nutrition.BatchResult `json:"result"`
	Narrative    string                `json:"narrative,omitempty"`
	TokenUsage   *metrics.TokenUsage   `json:"tokenUsage,omitempty"`
	Cached       bool                  `json:"cached"`
	ReportKey    string                `json:"reportKey,omitempty"`
}

// Summary is the history list view of a record.
type Summary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	HorizonDays int       `json:"horizonDays"`
	Members     int       `json:"members"`
	Failed      int       `json:"failed"`
	HasReport   bool      `json:"hasReport"`
}

// JobStatus tracks async analysis progress.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is an async analysis request and its state.
type Job struct {
	ID        string    `json:"id"`
	AccountID int64     `json:"-"`
	Status    JobStatus `json:"status"`
	Request   Request   `json:"-"`
	RecordID  string    `json:"recordId,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
