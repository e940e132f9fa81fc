package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/aspects"
	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/storage"
)

type memoryStore struct {
	mu       sync.Mutex
	cvs      map[uuid.UUID]*storage.CV
	jobs     map[uuid.UUID]*storage.Job
	analyses map[uuid.UUID]*storage.Analysis
	down     bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		cvs:      map[uuid.UUID]*storage.CV{},
		jobs:     map[uuid.UUID]*storage.Job{},
		analyses: map[uuid.UUID]*storage.Analysis{},
	}
}

func (m *memoryStore) Ping(context.Context) error {
	if m.down {
		return errors.New("down")
	}
	return nil
}

func (m *memoryStore) CreateCV(_ context.Context, cv *storage.CV) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = cv.BeforeCreate(nil)
	m.cvs[cv.ID] = cv
	return nil
}

func (m *memoryStore) GetCV(_ context.Context, id uuid.UUID) (*storage.CV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cv, ok := m.cvs[id]; ok {
		return cv, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memoryStore) ListCVs(context.Context, int, int) ([]storage.CV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.CV, 0, len(m.cvs))
	for _, cv := range m.cvs {
		out = append(out, *cv)
	}
	return out, nil
}

func (m *memoryStore) SearchCVs(_ context.Context, name string) ([]storage.CV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.CV
	for _, cv := range m.cvs {
		if strings.Contains(strings.ToLower(cv.Name), strings.ToLower(name)) {
			out = append(out, *cv)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteCV(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cvs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.cvs, id)
	return nil
}

func (m *memoryStore) CreateJob(_ context.Context, job *storage.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = job.BeforeCreate(nil)
	m.jobs[job.ID] = job
	return nil
}

func (m *memoryStore) GetJob(_ context.Context, id uuid.UUID) (*storage.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		return job, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memoryStore) ListJobs(context.Context, int, int) ([]storage.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, *job)
	}
	return out, nil
}

func (m *memoryStore) SearchJobs(_ context.Context, title string) ([]storage.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.Job
	for _, job := range m.jobs {
		if strings.Contains(strings.ToLower(job.Title), strings.ToLower(title)) {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteJob(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *memoryStore) CreateAnalysis(_ context.Context, a *storage.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = a.BeforeCreate(nil)
	m.analyses[a.ID] = a
	return nil
}

func (m *memoryStore) GetAnalysis(_ context.Context, id uuid.UUID) (*storage.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.analyses[id]; ok {
		return a, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memoryStore) filter(keep func(*storage.Analysis) bool) []storage.Analysis {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.Analysis
	for _, a := range m.analyses {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (m *memoryStore) ListAnalyses(context.Context, int, int) ([]storage.Analysis, error) {
	return m.filter(func(*storage.Analysis) bool { return true }), nil
}

func (m *memoryStore) AnalysesByCV(_ context.Context, id uuid.UUID) ([]storage.Analysis, error) {
	return m.filter(func(a *storage.Analysis) bool { return a.CVID == id }), nil
}

func (m *memoryStore) AnalysesByJob(_ context.Context, id uuid.UUID) ([]storage.Analysis, error) {
	return m.filter(func(a *storage.Analysis) bool { return a.JobID == id }), nil
}

func (m *memoryStore) TopCandidates(ctx context.Context, id uuid.UUID, limit int) ([]storage.Analysis, error) {
	out, _ := m.AnalysesByJob(ctx, id)
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].CV, _ = m.GetCV(ctx, out[i].CVID)
	}
	return out, nil
}

func (m *memoryStore) Stats(context.Context) (*storage.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &storage.Stats{CVs: int64(len(m.cvs)), Jobs: int64(len(m.jobs)), Analyses: int64(len(m.analyses))}, nil
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*Server, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	m := matching.New(aspects.New(nil), zap.NewNop())
	return New(Config{RateLimit: 1000}, store, m, zap.NewNop()), store
}

func do(t *testing.T, s *Server, method, path, body string) (int, response) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out response
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func create(t *testing.T, s *Server, path, body string) string {
	t.Helper()
	code, resp := do(t, s, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, code, resp.Message)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	return created.ID
}

const (
	cvBody  = `{"personal": {"name": "Ana Torres"}, "technical_skills": ["Go", "AWS"], "languages": {"English": "C1"}, "location": "Madrid"}`
	jobBody = `{"basic_info": {"job_title": "Go Developer", "company_name": "Globex"}, "technical_skills": ["Go", "Rust"], "languages": {"English": "B2"}}`
)

func TestCVLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	id := create(t, s, "/cvs", cvBody)

	code, resp := do(t, s, http.MethodGet, "/cvs/"+id, "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), "Ana Torres")

	code, resp = do(t, s, http.MethodGet, "/cvs/search/torres", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), id)

	code, _ = do(t, s, http.MethodDelete, "/cvs/"+id, "")
	assert.Equal(t, http.StatusOK, code)

	code, resp = do(t, s, http.MethodGet, "/cvs/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "cv not found", resp.Message)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	s, _ := newTestServer(t)

	code, resp := do(t, s, http.MethodPost, "/cvs", `[1, 2]`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)

	code, resp = do(t, s, http.MethodPost, "/cvs", `{"languages": {"English": "`+strings.Repeat("x", 65)+`"}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Message, "Languages")

	code, resp = do(t, s, http.MethodPost, "/cvs", `{"personal": {"name": "Ana", "email": "not-an-email"}}`)
	assert.Equal(t, http.StatusCreated, code, resp.Message)
	assert.True(t, resp.Success)

	code, _ = do(t, s, http.MethodGet, "/jobs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAnalyze(t *testing.T) {
	s, store := newTestServer(t)

	cvID := create(t, s, "/cvs", cvBody)
	jobID := create(t, s, "/jobs", jobBody)

	code, resp := do(t, s, http.MethodPost, "/analyze/"+cvID+"/"+jobID, `{"weights": {"technical_skills": 0.5, "unknown": 0.2}}`)
	require.Equal(t, http.StatusCreated, code, resp.Message)

	var data struct {
		Score          float64            `json:"score"`
		Percentage     float64            `json:"percentage"`
		Confidence     string             `json:"confidence"`
		Degraded       bool               `json:"degraded"`
		IgnoredAspects []string           `json:"ignored_aspects"`
		WeightsUsed    map[string]float64 `json:"weights_used"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))

	// No oracle: skills 0.5 and languages 1.0 by heuristics, location unstated by the job.
	assert.True(t, data.Degraded)
	assert.Equal(t, "heuristic", data.Confidence)
	assert.Len(t, data.IgnoredAspects, 6)
	assert.InDelta(t, 1.0, sumWeights(data.WeightsUsed), 1e-6)
	assert.NotContains(t, data.WeightsUsed, "unknown")
	assert.Greater(t, data.Score, 0.5)
	assert.Len(t, store.analyses, 1)

	code, resp = do(t, s, http.MethodGet, "/jobs/"+jobID+"/top-candidates?limit=5", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), "Ana Torres")

	code, resp = do(t, s, http.MethodGet, "/cvs/"+cvID+"/analyses", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), jobID)

	code, resp = do(t, s, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"total_analyses":1`)
}

func TestAnalyzeValidatesWeights(t *testing.T) {
	s, _ := newTestServer(t)

	cvID := create(t, s, "/cvs", cvBody)
	jobID := create(t, s, "/jobs", jobBody)

	code, resp := do(t, s, http.MethodPost, "/analyze/"+cvID+"/"+jobID, `{"weights": {"experience": 1.5}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Message, "lte")

	code, _ = do(t, s, http.MethodPost, "/analyze/"+cvID+"/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTopCandidatesRejectsBadLimit(t *testing.T) {
	s, _ := newTestServer(t)
	jobID := create(t, s, "/jobs", jobBody)

	code, _ := do(t, s, http.MethodGet, "/jobs/"+jobID+"/top-candidates?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealth(t *testing.T) {
	s, store := newTestServer(t)

	code, _ := do(t, s, http.MethodGet, "/livez", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, code)

	store.down = true
	code, _ = do(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func sumWeights(w map[string]float64) float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}
