package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spigell/cv-matcher/internal/ai"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) GetJSON(_ context.Context, key string, out any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (m *memoryStore) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.ttls[key] = ttl
	return nil
}

type countingOracle struct {
	calls int
	reply string
	err   error
}

func (c *countingOracle) Judge(context.Context, ai.Request) (string, error) {
	c.calls++
	return c.reply, c.err
}

func TestOracleCachesSuccessfulReplies(t *testing.T) {
	store := newMemoryStore()
	next := &countingOracle{reply: `{"score": 0.5}`}
	oracle := NewOracle(next, store, time.Hour, "gemini/flash", nil)

	req := ai.Request{Task: ai.TaskLocation, Candidate: "Madrid", Job: "Barcelona"}

	for i := 0; i < 3; i++ {
		reply, err := oracle.Judge(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply != next.reply {
			t.Fatalf("unexpected reply %q", reply)
		}
	}

	if next.calls != 1 {
		t.Fatalf("expected a single upstream call, got %d", next.calls)
	}

	for key, ttl := range store.ttls {
		if !strings.HasPrefix(key, keyPrefix+"gemini/flash:") {
			t.Fatalf("unexpected key %q", key)
		}
		if ttl != time.Hour {
			t.Fatalf("unexpected ttl %v", ttl)
		}
	}
}

func TestOracleDoesNotCacheErrors(t *testing.T) {
	store := newMemoryStore()
	next := &countingOracle{err: errors.New("down")}
	oracle := NewOracle(next, store, 0, "", nil)

	req := ai.Request{Task: ai.TaskEducation, Candidate: "BSc"}
	for i := 0; i < 2; i++ {
		if _, err := oracle.Judge(context.Background(), req); err == nil {
			t.Fatalf("expected upstream error")
		}
	}

	if next.calls != 2 || len(store.data) != 0 {
		t.Fatalf("errors must not be cached: calls=%d entries=%d", next.calls, len(store.data))
	}
}

func TestOracleSkipsRejectedReplies(t *testing.T) {
	store := newMemoryStore()
	next := &countingOracle{reply: "Sorry, I cannot judge this."}
	oracle := NewOracle(next, store, time.Hour, "ns", nil, WithValidator(func(reply string) bool {
		return strings.Contains(reply, "{")
	}))

	req := ai.Request{Task: ai.TaskExperience, Candidate: "5 years", Job: "3+ years"}

	reply, err := oracle.Judge(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != next.reply {
		t.Fatalf("rejected reply must still be returned, got %q", reply)
	}
	if len(store.data) != 0 {
		t.Fatalf("rejected reply was cached")
	}

	next.reply = `{"score": 0.9}`
	reply, err = oracle.Judge(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != next.reply || next.calls != 2 {
		t.Fatalf("expected a fresh upstream reply, got %q after %d calls", reply, next.calls)
	}
	if len(store.data) != 1 {
		t.Fatalf("accepted reply was not cached")
	}
}

func TestOracleKeyDependsOnEveryField(t *testing.T) {
	t.Parallel()

	oracle := NewOracle(nil, nil, 0, "ns", nil)
	base := ai.Request{Task: ai.TaskSoftSkills, Instructions: "i", Schema: "s", Candidate: "c", Job: "j"}

	variants := []ai.Request{
		{Task: ai.TaskTechnicalSkills, Instructions: "i", Schema: "s", Candidate: "c", Job: "j"},
		{Task: ai.TaskSoftSkills, Instructions: "x", Schema: "s", Candidate: "c", Job: "j"},
		{Task: ai.TaskSoftSkills, Instructions: "i", Schema: "s", Candidate: "cj", Job: ""},
	}

	for _, v := range variants {
		if oracle.key(v) == oracle.key(base) {
			t.Fatalf("expected distinct keys for %+v", v)
		}
	}
}

func TestUnavailableRedisBypasses(t *testing.T) {
	var r *Redis
	if r.Available() {
		t.Fatalf("nil store must not be available")
	}

	bypass := &Redis{}
	var out entry
	hit, err := bypass.GetJSON(context.Background(), "k", &out)
	if hit || err != nil {
		t.Fatalf("expected silent miss, got hit=%v err=%v", hit, err)
	}
	if err := bypass.SetJSON(context.Background(), "k", entry{}, 0); err != nil {
		t.Fatalf("expected silent set, got %v", err)
	}
}
