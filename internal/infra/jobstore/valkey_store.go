package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
)

const defaultJobTTL = 24 * time.Hour

// storedJob carries the fields the API view hides.
type storedJob struct {
	analysis.Job
	AccountID int64            `json:"accountId"`
	Request   analysis.Request `json:"request"`
}

// ValkeyStore keeps job state in Valkey so any instance can report progress.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs the store. Jobs expire after a day.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "nutriforecast"
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: defaultJobTTL}
}

func (s *ValkeyStore) Save(ctx context.Context, job analysis.Job) error {
	payload, err := json.Marshal(storedJob{Job: job, AccountID: job.AccountID, Request: job.Request})
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(s.key(job.ID)).Value(string(payload)).Ex(s.ttl).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) Get(ctx context.Context, accountID int64, id string) (analysis.Job, error) {
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(id)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return analysis.Job{}, analysis.ErrNotFound
		}
		return analysis.Job{}, err
	}
	var stored storedJob
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return analysis.Job{}, err
	}
	if stored.AccountID != accountID {
		return analysis.Job{}, analysis.ErrNotFound
	}
	job := stored.Job
	job.AccountID = stored.AccountID
	job.Request = stored.Request
	return job, nil
}

func (s *ValkeyStore) key(id string) string {
	return fmt.Sprintf("%s:job:%s", s.prefix, id)
}

var _ analysis.JobStore = (*ValkeyStore)(nil)
