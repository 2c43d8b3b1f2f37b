// Package handlers implements the HTTP request handlers for the bigram
// store's API layer, one file per concern, the way the teacher organizes
// handlers/match.go, handlers/deck.go, and the rest.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/videre-project/asi-worker/internal/api/response"
	"github.com/videre-project/asi-worker/internal/config"
	"github.com/videre-project/asi-worker/internal/deck"
	"github.com/videre-project/asi-worker/internal/events"
	"github.com/videre-project/asi-worker/internal/logging"
	"github.com/videre-project/asi-worker/internal/metrics"
	"github.com/videre-project/asi-worker/internal/scoring"
	"github.com/videre-project/asi-worker/internal/storage"
)

// BigramLookup is the read-path the orchestrator calls through (C2); the
// storage.Service satisfies this directly.
type BigramLookup interface {
	Lookup(ctx context.Context, format string, pairs []deck.Pair) ([]storage.BigramRecord, int, float64, error)
}

// ASIHandler is the request orchestrator (C5): it validates the request,
// drives C3 (extraction) -> C2 (store lookup) -> C4 (scoring), and
// packages the response document.
type ASIHandler struct {
	store      BigramLookup
	config     *config.Config
	logger     *logging.Logger
	dispatcher *events.EventDispatcher
	backend    string
	latency    *metrics.Histogram
}

// NewASIHandler creates an ASIHandler. dispatcher may be nil to disable
// the operational websocket broadcast.
func NewASIHandler(store BigramLookup, cfg *config.Config, logger *logging.Logger, dispatcher *events.EventDispatcher) *ASIHandler {
	return &ASIHandler{
		store:      store,
		config:     cfg,
		logger:     logger,
		dispatcher: dispatcher,
		backend:    "sqlite",
		latency:    metrics.NewHistogram(10000),
	}
}

// responseMeta is the `meta` object of a scored response.
type responseMeta struct {
	Database  string  `json:"database"`
	Backend   string  `json:"backend"`
	ExecMs    float64 `json:"exec-ms"`
	ReadCount int     `json:"read_count"`
}

// scoredResponse is the success document's shape; Data is an
// orderedScores so the JSON object's key order matches the descending
// score order the contract asks producers to emit.
type scoredResponse struct {
	Meta responseMeta  `json:"meta"`
	Data orderedScores `json:"data"`
}

// orderedScores marshals a []scoring.Score as a JSON object with keys in
// slice order, since encoding/json always re-sorts map[string]T keys
// alphabetically and the contract wants descending-score order preserved.
type orderedScores []scoring.Score

func (s orderedScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sc := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(sc.Archetype)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := json.Marshal(sc.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Score handles POST /api/v1/asi?format=<format>.
func (h *ASIHandler) Score(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.latency.Record(time.Since(start)) }()

	format := r.URL.Query().Get("format")
	if format == "" {
		response.Tagged(w, http.StatusBadRequest, "Missing Parameter", "The 'format' parameter is required.")
		return
	}
	if !h.config.IsValidFormat(format) {
		response.Tagged(w, http.StatusBadRequest, "Invalid Parameter",
			"The 'format' parameter '"+format+"' is not supported.")
		return
	}

	var cards []string
	if err := json.NewDecoder(r.Body).Decode(&cards); err != nil {
		response.Tagged(w, http.StatusBadRequest, "Invalid JSON", "The request body must be a valid JSON array.")
		return
	}

	pairs, err := deck.Bigrams(cards)
	if err != nil {
		response.Tagged(w, http.StatusBadRequest, "Invalid JSON", "The request body must contain at least two cards.")
		return
	}

	storeRows, readCount, execMs, err := h.store.Lookup(r.Context(), format, pairs)
	if err != nil {
		h.logger.Error("bigram store lookup failed for format %s: %v", format, err)
		response.Tagged(w, http.StatusInternalServerError, "Service Unavailable", "The bigram store is temporarily unavailable.")
		return
	}

	rows := make([]scoring.Row, len(storeRows))
	for i, r := range storeRows {
		rows[i] = scoring.Row{Archetype: r.Archetype, Card1: r.Card1, Card2: r.Card2, K1: r.K1, K2: r.K2}
	}
	scores := scoring.Compute(rows)

	h.broadcastScored(r.Context(), format, scores, execMs)

	response.JSON(w, http.StatusOK, scoredResponse{
		Meta: responseMeta{
			Database:  h.config.Store.Path,
			Backend:   h.backend,
			ExecMs:    execMs,
			ReadCount: readCount,
		},
		Data: orderedScores(scores),
	})
}

// latencyStats is the `GET /api/v1/asi/stats` response shape.
type latencyStats struct {
	Count int     `json:"count"`
	MeanMs float64 `json:"mean_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// Stats handles GET /api/v1/asi/stats, reporting the handler's own
// end-to-end request latency distribution.
func (h *ASIHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, latencyStats{
		Count:  h.latency.Count(),
		MeanMs: h.latency.Mean(),
		P50Ms:  h.latency.Percentile(50),
		P95Ms:  h.latency.Percentile(95),
		P99Ms:  h.latency.Percentile(99),
	})
}

func (h *ASIHandler) broadcastScored(ctx context.Context, format string, scores []scoring.Score, execMs float64) {
	if h.dispatcher == nil {
		return
	}

	var topScore float64
	if len(scores) > 0 {
		topScore = scores[0].Value
	}

	h.dispatcher.DispatchAsync(events.Event{
		Type: "asi:scored",
		Data: map[string]interface{}{
			"format":          format,
			"archetype_count": len(scores),
			"top_score":       topScore,
			"store_exec_ms":   execMs,
			"scored_at":       time.Now().UTC().Format(time.RFC3339),
		},
		Context: ctx,
	})
}
