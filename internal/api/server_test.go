package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atharv3903/meetcast/internal/contest"
	"github.com/atharv3903/meetcast/internal/db"
	"github.com/atharv3903/meetcast/internal/graph"
	"github.com/atharv3903/meetcast/internal/loader"
	"github.com/atharv3903/meetcast/internal/model"
)

const ring4 = "4\n4\n0 1 1\n1 2 1\n2 3 1\n3 0 1\n"

type memStore struct {
	mu    sync.Mutex
	nets  map[string]*graph.Graph
	loads atomic.Int32
	fail  error
}

func newMemStore() *memStore { return &memStore{nets: map[string]*graph.Graph{}} }

func (m *memStore) LoadNetwork(_ context.Context, name string) (*graph.Graph, error) {
	m.loads.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.nets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", db.ErrNetworkNotFound, name)
	}
	return g, nil
}

func (m *memStore) SaveNetwork(_ context.Context, name string, g *graph.Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.nets[name] = g
	return nil
}

func (m *memStore) ListNetworks(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := []string{}
	for n := range m.nets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memStore) put(t *testing.T, name, body string) {
	t.Helper()
	g, err := loader.Parse(strings.NewReader(body))
	require.NoError(t, err)
	m.mu.Lock()
	m.nets[name] = g
	m.mu.Unlock()
}

func newTestServer(t *testing.T) (*httptest.Server, *Server, *memStore) {
	t.Helper()
	store := newMemStore()
	srv := NewWithStore(store, contest.DefaultParams(), 4)
	ts := httptest.NewServer(srv.Mux)
	t.Cleanup(ts.Close)
	return ts, srv, store
}

func getBroadcast(t *testing.T, ts *httptest.Server, query string) (int, model.BroadcastResponse) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/broadcast?" + query)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out model.BroadcastResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func postBroadcast(t *testing.T, ts *httptest.Server, query, body string) model.BroadcastResponse {
	t.Helper()
	resp, err := http.Post(ts.URL+"/broadcast?"+query, "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out model.BroadcastResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func put(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(b))
}

func TestStoredBroadcast_ComputesThenCaches(t *testing.T) {
	ts, _, store := newTestServer(t)
	store.put(t, "ring", ring4)

	code, out := getBroadcast(t, ts, "network=ring&sA=1000&sB=1000&sC=1000")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, out.Time)
	assert.True(t, out.Feasible)
	assert.False(t, out.CacheHit)
	assert.Equal(t, "ring", out.Network)

	_, out = getBroadcast(t, ts, "network=ring&sA=1000&sB=1000&sC=1000")
	assert.True(t, out.CacheHit)
	assert.Equal(t, 3, out.Time)

	// different speeds miss the result cache but reuse the loaded graph
	_, out = getBroadcast(t, ts, "network=ring&sA=2000&sB=3000&sC=4000")
	assert.False(t, out.CacheHit)
	assert.Equal(t, 2, out.Time)
	assert.Equal(t, int32(1), store.loads.Load())
}

func TestStoredBroadcast_InvalidSpeedSkipsStore(t *testing.T) {
	ts, _, store := newTestServer(t)

	code, out := getBroadcast(t, ts, "network=missing&sA=1000&sB=0&sC=1000")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, -1, out.Time)
	assert.Equal(t, "invalid_speed", out.Reason)
	assert.Equal(t, int32(0), store.loads.Load())
}

func TestStoredBroadcast_Errors(t *testing.T) {
	ts, _, store := newTestServer(t)
	store.put(t, "oneway", "2\n1\n0 1 5\n")

	code, _ := getBroadcast(t, ts, "sA=1&sB=1&sC=1")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = getBroadcast(t, ts, "network=oneway&sA=fast&sB=1&sC=1")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = getBroadcast(t, ts, "network=nowhere&sA=1&sB=1&sC=1")
	assert.Equal(t, http.StatusNotFound, code)

	code, out := getBroadcast(t, ts, "network=oneway&sA=1&sB=1&sC=1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, -1, out.Time)
	assert.Equal(t, "unreachable", out.Reason)
}

func TestUploadedBroadcast(t *testing.T) {
	ts, _, _ := newTestServer(t)

	out := postBroadcast(t, ts, "sA=1000&sB=1000&sC=1000", ring4)
	assert.Equal(t, 3, out.Time)
	assert.False(t, out.CacheHit)

	out = postBroadcast(t, ts, "sA=1000&sB=1000&sC=1000", ring4)
	assert.True(t, out.CacheHit)

	out = postBroadcast(t, ts, "sA=1000&sB=1000&sC=1000", "3\n3\n0 1 1.5\n1 2\n2 0 1\n")
	assert.Equal(t, -1, out.Time)
	assert.Equal(t, "malformed_input", out.Reason)

	out = postBroadcast(t, ts, "sA=1&sB=1&sC=1", "1000000000000 1 0 1 1")
	assert.Equal(t, -1, out.Time)
	assert.Equal(t, "malformed_input", out.Reason)
}

func TestPutNetwork_ReplacesAndInvalidates(t *testing.T) {
	ts, srv, store := newTestServer(t)
	store.put(t, "city", ring4)

	_, out := getBroadcast(t, ts, "network=city&sA=1000&sB=1000&sC=1000")
	require.Equal(t, 3, out.Time)

	// add shortcuts so the worst case drops to 2
	resp := put(t, ts.URL+"/networks/city", "4\n6\n0 1 1\n1 2 1\n2 3 1\n3 0 1\n0 2 1\n2 0 1\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uint64(1), srv.RC.Epoch())

	_, out = getBroadcast(t, ts, "network=city&sA=1000&sB=1000&sC=1000")
	assert.False(t, out.CacheHit)
	assert.Equal(t, 2, out.Time)

	resp, err := http.Get(ts.URL + "/networks")
	require.NoError(t, err)
	defer resp.Body.Close()
	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	assert.Equal(t, []string{"city"}, names)
}

func TestPutNetwork_Rejects(t *testing.T) {
	ts, _, store := newTestServer(t)

	resp := put(t, ts.URL+"/networks/bad", "2\n1\n0 1\n")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = put(t, ts.URL+"/networks/huge", "1000000000000 1 0 1 1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	store.mu.Lock()
	store.fail = errors.New("db down")
	store.mu.Unlock()
	resp = put(t, ts.URL+"/networks/ok", ring4)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestDebugEndpoints(t *testing.T) {
	ts, srv, store := newTestServer(t)
	store.put(t, "ring", ring4)
	getBroadcast(t, ts, "network=ring&sA=1000&sB=1000&sC=1000")

	resp, err := http.Get(ts.URL + "/debug/graphcache_stats")
	require.NoError(t, err)
	var stats model.CacheStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	resp.Body.Close()
	assert.Equal(t, 1, stats.Puts)

	resp, err = http.Get(ts.URL + "/debug/clear_cache")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 0, srv.Graphs.Len())
	assert.Equal(t, 0, srv.RC.Len())

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "meetcast_broadcast_total")
}

func TestStoredBroadcast_ConcurrentRequestsAgree(t *testing.T) {
	ts, _, store := newTestServer(t)
	store.put(t, "ring", ring4)

	var wg sync.WaitGroup
	times := make([]int, 16)
	for i := range times {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Get(ts.URL + "/broadcast?network=ring&sA=1000&sB=1000&sC=1000")
			if err != nil {
				times[i] = -100
				return
			}
			defer resp.Body.Close()
			var out model.BroadcastResponse
			json.NewDecoder(resp.Body).Decode(&out)
			times[i] = out.Time
		}()
	}
	wg.Wait()
	for _, got := range times {
		assert.Equal(t, 3, got)
	}
}
