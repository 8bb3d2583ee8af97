// Package mockserver is an in-memory stand-in for the punch classification
// backend. It serves the same routes the dashboard uses, with generated
// samples, so the client can be demoed and tested without hardware.
package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Veraticus/punchdash/internal/model"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// DefaultSampleInterval is how long a generated sample is served before the
// next one replaces it.
const DefaultSampleInterval = 5 * time.Second

// Server holds the mock backend state.
type Server struct {
	now            func() time.Time
	rng            *rand.Rand
	router         *mux.Router
	sampleAt       time.Time
	username       string
	password       string
	sampleID       string
	sample         []byte
	first          [2]float64
	stats          model.Statistics
	sampleInterval time.Duration
	version        int
	mu             sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithSeed makes sample generation deterministic.
func WithSeed(seed int64) Option {
	return func(s *Server) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithSampleInterval sets how often a new sample is generated. Zero keeps
// the current sample until NextSample is called.
func WithSampleInterval(d time.Duration) Option {
	return func(s *Server) {
		s.sampleInterval = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithStatistics seeds the statistics.
func WithStatistics(stats model.Statistics) Option {
	return func(s *Server) {
		s.stats = stats
	}
}

// New creates a mock backend accepting the given credentials.
func New(username, password string, opts ...Option) *Server {
	s := &Server{
		username:       username,
		password:       password,
		now:            time.Now,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		sampleInterval: DefaultSampleInterval,
		version:        1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stats.Recompute()
	s.router = s.newRouter()
	s.NextSample()
	return s
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/punchdata", s.handleSample).Methods(http.MethodGet)
	api.HandleFunc("/recognitionstats", s.handleStatistics).Methods(http.MethodGet)
	api.HandleFunc("/updatestats", s.handleUpdate).Methods(http.MethodPost)
	api.HandleFunc("/deletestats", s.handleDelete).Methods(http.MethodPost)
	api.HandleFunc("/apicheck", s.handleCheck).Methods(http.MethodPost)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Mock backend listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mock backend: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down mock backend: %w", err)
		}
		return nil
	}
}

// Statistics returns a copy of the current statistics.
func (s *Server) Statistics() model.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ETag returns the current statistics version tag.
func (s *Server) ETag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.etag()
}

// BumpVersion simulates another client updating the statistics.
func (s *Server) BumpVersion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
}

// SampleID returns the id of the sample currently served.
func (s *Server) SampleID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleID
}

// NextSample generates a new sample and returns its id.
func (s *Server) NextSample() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generateSample()
	return s.sampleID
}

func (s *Server) etag() string {
	return strconv.Quote(strconv.Itoa(s.version))
}

type credentials struct {
	StatsData json.RawMessage `json:"statsData"`
	Username  string          `json:"username"`
	Password  string          `json:"password"`
}

func (s *Server) authorize(r *http.Request) (credentials, bool) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return credentials{}, false
	}
	return body, body.Username == s.username && body.Password == s.password
}

func (s *Server) handleSample(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	if s.sampleInterval > 0 && s.now().Sub(s.sampleAt) >= s.sampleInterval {
		s.generateSample()
	}
	payload, id := s.sample, s.sampleID
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Sample-Id", id)
	_, _ = w.Write(payload)
}

func (s *Server) handleStatistics(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	stats, etag := s.stats, s.etag()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, etag, stats)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.authorize(r)
	if !ok {
		http.Error(w, "invalid username or password", http.StatusUnauthorized)
		return
	}

	var stats model.Statistics
	if err := json.Unmarshal(body.StatsData, &stats); err != nil {
		http.Error(w, "statsData must be a statistics object", http.StatusBadRequest)
		return
	}
	if err := stats.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stats.Recompute()

	s.mu.Lock()
	if match := r.Header.Get("If-Match"); match != "" && match != s.etag() {
		s.mu.Unlock()
		slog.Debug("Rejected stale statistics push", "if_match", match)
		w.WriteHeader(http.StatusPreconditionFailed)
		return
	}
	s.stats = stats
	s.version++
	etag := s.etag()
	s.mu.Unlock()

	slog.Debug("Statistics updated", "positive", stats.AbsolutePositiveAccuracy, "negative", stats.AbsoluteNegativeAccuracy)
	writeJSON(w, http.StatusOK, etag, stats)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(r); !ok {
		writeJSON(w, http.StatusOK, "", map[string]bool{"result": false})
		return
	}

	s.mu.Lock()
	s.stats = model.Statistics{}
	s.version++
	s.mu.Unlock()

	slog.Debug("Statistics deleted")
	writeJSON(w, http.StatusOK, "", map[string]bool{"result": true})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		StatusText string `json:"statusText"`
		Result     bool   `json:"result"`
	}{StatusText: "connection established", Result: true}

	if _, ok := s.authorize(r); !ok {
		resp.StatusText = "invalid username or password"
		resp.Result = false
	}
	writeJSON(w, http.StatusOK, "", resp)
}

type wireReading struct {
	Timestamp string  `json:"timestamp"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
}

// generateSample must be called with s.mu held. Readings are spaced about
// 10ms apart; the first timestamp is absolute, the rest are deltas, all in
// nanoseconds.
func (s *Server) generateSample() {
	now := s.now()
	n := 20 + s.rng.Intn(21)
	readings := make([]wireReading, n)
	for i := range readings {
		ts := now.UnixNano()
		if i > 0 {
			ts = int64(8+s.rng.Intn(5)) * int64(time.Millisecond)
		}
		readings[i] = wireReading{
			Timestamp: strconv.FormatInt(ts, 10),
			X:         round2(s.rng.NormFloat64() * 4),
			Y:         round2(s.rng.NormFloat64() * 4),
			Z:         round2(s.rng.NormFloat64() * 4),
		}
	}

	// The first x and y readings always differ from the previous sample's.
	if readings[0].X == s.first[0] {
		readings[0].X += 0.01
	}
	if readings[0].Y == s.first[1] {
		readings[0].Y += 0.01
	}
	s.first = [2]float64{readings[0].X, readings[0].Y}

	id := uuid.NewString()
	payload := []any{
		map[string]any{"id": id, "raws": readings},
		map[string]string{
			"predictedLabel": strconv.Itoa(s.rng.Intn(model.NumLabels)),
			"predictedHand":  strconv.Itoa(s.rng.Intn(model.NumHands)),
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode generated sample", "error", err)
		return
	}
	s.sample = data
	s.sampleID = id
	s.sampleAt = now
}

func round2(f float64) float64 {
	return float64(int64(f*100)) / 100
}

func writeJSON(w http.ResponseWriter, code int, etag string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}
