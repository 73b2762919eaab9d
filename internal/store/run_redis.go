// Package store publishes conversion-run status to Redis so external
// dashboards can follow long runs.
package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RunStatus is the externally visible state of one conversion run.
type RunStatus struct {
	State    string     `json:"state"`
	Progress int        `json:"progress"`
	Message  string     `json:"message"`
	Start    *time.Time `json:"start_time,omitempty"`
	End      *time.Time `json:"end_time,omitempty"`
}

// RedisRuns stores run status hashes keyed by run id.
type RedisRuns struct {
	client *redis.Client
	keyNS  string
}

func NewRedisRuns(redisURL string) (*RedisRuns, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisRuns{client: c, keyNS: "run"}, nil
}

func (s *RedisRuns) key(runID string) string { return fmt.Sprintf("%s:%s:status", s.keyNS, runID) }

func (s *RedisRuns) Set(ctx context.Context, runID string, st RunStatus) error {
	m := map[string]interface{}{
		"state":    st.State,
		"progress": st.Progress,
		"message":  st.Message,
	}
	if st.Start != nil {
		m["start"] = st.Start.Format(time.RFC3339Nano)
	}
	if st.End != nil {
		m["end"] = st.End.Format(time.RFC3339Nano)
	}
	return s.client.HSet(ctx, s.key(runID), m).Err()
}

func (s *RedisRuns) Get(ctx context.Context, runID string) (RunStatus, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(runID)).Result()
	if err != nil {
		return RunStatus{}, false, err
	}
	if len(res) == 0 {
		return RunStatus{}, false, nil
	}
	st := RunStatus{State: res["state"], Message: res["message"]}
	if p, ok := res["progress"]; ok && p != "" {
		if pi, err := strconv.Atoi(p); err == nil {
			st.Progress = pi
		}
	}
	if v, ok := res["start"]; ok && v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.Start = &t
		}
	}
	if v, ok := res["end"]; ok && v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.End = &t
		}
	}
	return st, true, nil
}

func (s *RedisRuns) Close() error { return s.client.Close() }
