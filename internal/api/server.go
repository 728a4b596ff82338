package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dchest/siphash"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"

	"github.com/atharv3903/meetcast/internal/algo"
	"github.com/atharv3903/meetcast/internal/cache"
	"github.com/atharv3903/meetcast/internal/contest"
	"github.com/atharv3903/meetcast/internal/db"
	"github.com/atharv3903/meetcast/internal/graph"
	"github.com/atharv3903/meetcast/internal/loader"
	"github.com/atharv3903/meetcast/internal/metrics"
	"github.com/atharv3903/meetcast/internal/model"
)

// maxBodyBytes caps uploaded edge lists.
const maxBodyBytes = 32 << 20

// siphash keys for body digests; they only need to be stable per process.
const digestK0, digestK1 = 0x6d656574636173, 0x656467656c697374

type NetworkStore interface {
	LoadNetwork(ctx context.Context, name string) (*graph.Graph, error)
	SaveNetwork(ctx context.Context, name string, g *graph.Graph) error
	ListNetworks(ctx context.Context) ([]string, error)
}

type Server struct {
	Mux    *http.ServeMux
	Store  NetworkStore
	Graphs *cache.GraphCache
	RC     *cache.ResultCache
	Params contest.Params
	Log    *slog.Logger

	flight singleflight.Group
}

// New serves networks stored in the MySQL database behind conn.
func New(conn *sql.DB, p contest.Params, graphCacheSize int) *Server {
	return NewWithStore(db.Store{DB: conn}, p, graphCacheSize)
}

func NewWithStore(store NetworkStore, p contest.Params, graphCacheSize int) *Server {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		Mux:    http.NewServeMux(),
		Store:  store,
		Graphs: cache.NewGraphCacheWithCap(graphCacheSize),
		RC:     cache.NewResultCache(),
		Params: p,
		Log:    log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	s.Mux.HandleFunc("GET /broadcast", s.handleStoredBroadcast)
	s.Mux.HandleFunc("POST /broadcast", s.handleUploadedBroadcast)
	s.Mux.HandleFunc("GET /networks", s.handleListNetworks)
	s.Mux.HandleFunc("PUT /networks/{name}", s.handlePutNetwork)

	s.Mux.HandleFunc("/debug/clear_cache", func(w http.ResponseWriter, r *http.Request) {
		s.Graphs.Clear()
		s.RC.Clear()
		w.Write([]byte("cleared"))
	})
	s.Mux.HandleFunc("GET /debug/graphcache_stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Graphs.Stats())
	})
	s.Mux.Handle("GET /metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseSpeeds(r *http.Request) (model.Speeds, error) {
	var sp model.Speeds
	q := r.URL.Query()
	for i, name := range []string{"sA", "sB", "sC"} {
		v, err := strconv.Atoi(q.Get(name))
		if err != nil {
			return sp, fmt.Errorf("speed %s=%q is not an integer", name, q.Get(name))
		}
		sp[i] = v
	}
	return sp, nil
}

func outcome(res algo.Result) string {
	if res.Feasible {
		return "ok"
	}
	return string(res.Reason)
}

// answer returns the cached result for key or computes it once, even when
// several requests ask concurrently. build supplies the contest on a miss.
func (s *Server) answer(ctx context.Context, key cache.ResultKey, build func(context.Context) (*contest.Contest, error)) (algo.Result, bool, error) {
	if res, ok := s.RC.Get(key); ok {
		metrics.ResultCacheHits.Inc()
		return res, true, nil
	}

	v, err, _ := s.flight.Do(fmt.Sprintf("%+v", key), func() (any, error) {
		// shared by every waiter, so detach from the first caller's cancellation
		fctx := context.WithoutCancel(ctx)
		c, err := build(fctx)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		res, err := c.TimeRequired(fctx)
		metrics.ComputeDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		s.RC.Put(key, res)
		return res, nil
	})
	if err != nil {
		return algo.Result{}, false, err
	}
	return v.(algo.Result), false, nil
}

func (s *Server) loadGraph(ctx context.Context, name string) (*graph.Graph, error) {
	if g, ok := s.Graphs.Get(name); ok {
		return g, nil
	}
	g, err := s.Store.LoadNetwork(ctx, name)
	if err != nil {
		return nil, err
	}
	s.Graphs.Put(name, g)
	return g, nil
}

func (s *Server) handleStoredBroadcast(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("network")
	if name == "" {
		http.Error(w, "missing network", http.StatusBadRequest)
		return
	}
	speeds, err := parseSpeeds(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := cache.ResultKey{Network: name, Speeds: speeds, Epoch: s.RC.Epoch()}
	res, hit, err := s.answer(r.Context(), key, func(ctx context.Context) (*contest.Contest, error) {
		if _, err := algo.SlowestSpeed(speeds[:], s.Params.SpeedScale); err != nil {
			// speeds alone decide the answer, no need to touch the store
			return contest.New(nil, nil, speeds, s.Params), nil
		}
		g, err := s.loadGraph(ctx, name)
		if err != nil {
			return nil, err
		}
		return contest.New(g, nil, speeds, s.Params), nil
	})
	switch {
	case errors.Is(err, db.ErrNetworkNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		s.Log.Error("broadcast failed", "network", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.BroadcastTotal.WithLabelValues("stored", outcome(res)).Inc()
	resp := contest.Response(name, res)
	resp.CacheHit = hit
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUploadedBroadcast(w http.ResponseWriter, r *http.Request) {
	speeds, err := parseSpeeds(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	key := cache.ResultKey{Digest: siphash.Hash(digestK0, digestK1, body), Speeds: speeds}
	res, hit, err := s.answer(r.Context(), key, func(context.Context) (*contest.Contest, error) {
		return contest.FromReader(bytes.NewReader(body), speeds, s.Params), nil
	})
	if err != nil {
		s.Log.Error("broadcast failed", "digest", key.Digest, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.BroadcastTotal.WithLabelValues("uploaded", outcome(res)).Inc()
	resp := contest.Response("", res)
	resp.CacheHit = hit
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePutNetwork(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	g, err := loader.Parse(http.MaxBytesReader(w, r.Body, maxBodyBytes), s.Params.LoaderOptions()...)
	if err != nil {
		metrics.NetworkUploads.WithLabelValues("malformed").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.Store.SaveNetwork(r.Context(), name, g); err != nil {
		metrics.NetworkUploads.WithLabelValues("error").Inc()
		s.Log.Error("save network failed", "network", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Graphs.Put(name, g)
	s.RC.BumpEpoch()
	metrics.NetworkUploads.WithLabelValues("ok").Inc()
	s.Log.Info("network stored", "network", name, "vertices", g.VertexCount(), "edges", g.EdgeCount())

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"network":  name,
		"vertices": g.VertexCount(),
		"edges":    g.EdgeCount(),
	})
}

func (s *Server) handleListNetworks(w http.ResponseWriter, r *http.Request) {
	names, err := s.Store.ListNetworks(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, names)
}
