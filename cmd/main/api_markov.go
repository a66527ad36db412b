package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/CTAG07/Murmur/pkg/markov"
	"github.com/CTAG07/Murmur/pkg/notestock"
	"github.com/dustin/go-humanize"
)

// MarkovAPI holds the dependencies for the model API handlers.
type MarkovAPI struct {
	state          *ModelState
	extractor      *notestock.Extractor
	maxUploadBytes int64
	maxCount       int
	logger         *slog.Logger
}

// NewMarkovAPI creates a new instance of the MarkovAPI.
func NewMarkovAPI(state *ModelState, extractor *notestock.Extractor, config *Config, logger *slog.Logger) *MarkovAPI {
	return &MarkovAPI{
		state:          state,
		extractor:      extractor,
		maxUploadBytes: config.Server.MaxUploadBytes,
		maxCount:       max(config.Markov.MaxGenerateCount, 1),
		logger:         logger,
	}
}

// RegisterRoutes sets up the routing for all /api/markov endpoints.
func (m *MarkovAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/markov/learn", RequireScope(scopeMarkovWrite, m.handleLearnArchive))
	mux.HandleFunc("POST /api/markov/learn/texts", RequireScope(scopeMarkovWrite, m.handleLearnTexts))
	mux.HandleFunc("POST /api/markov/build", RequireScope(scopeMarkovWrite, m.handleBuild))
	mux.HandleFunc("GET /api/markov/generate", RequireScope(scopeMarkovRead, m.handleGenerate))
	mux.HandleFunc("GET /api/markov/generate/stream", RequireScope(scopeMarkovRead, m.handleGenerateStream))
	mux.HandleFunc("GET /api/markov/model", RequireScope(scopeMarkovRead, m.handleDownload))
	mux.HandleFunc("PUT /api/markov/model", RequireScope(scopeMarkovWrite, m.handleUpload))
	mux.HandleFunc("GET /api/markov/stats", RequireScope(scopeMarkovRead, m.handleStats))
	mux.HandleFunc("POST /api/markov/prune", RequireScope(scopeMarkovWrite, m.handlePrune))
}

// LearnTextsRequest is the JSON body for learning raw texts.
type LearnTextsRequest struct {
	Texts []string `json:"texts"`
}

// LearnResponse reports the outcome of a learn request.
type LearnResponse struct {
	Texts   int  `json:"texts"`
	Failed  int  `json:"failed"`
	Pending int  `json:"pending"`
	Built   bool `json:"built"`
}

// PruneRequest is the JSON body for pruning the current model.
type PruneRequest struct {
	MinFreq uint32 `json:"min_freq"`
}

// StatsResponse describes the current model and the pending builder.
type StatsResponse struct {
	Loaded  bool              `json:"loaded"`
	Model   markov.ModelStats `json:"model"`
	Pending int               `json:"pending"`
}

// readBody reads at most m.maxUploadBytes of the request body. It writes the
// error response itself and returns false on failure.
func (m *MarkovAPI) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if m.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, m.maxUploadBytes)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds %s", humanize.Bytes(uint64(maxErr.Limit))))
			return nil, false
		}
		respondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return nil, false
	}
	return data, true
}

// learn feeds texts to the pending builder, building right away when the
// request asks for it with ?build=true.
func (m *MarkovAPI) learn(w http.ResponseWriter, r *http.Request, texts []string) {
	build, _ := strconv.ParseBool(r.URL.Query().Get("build"))

	failed := m.state.Learn(texts)
	resp := LearnResponse{
		Texts:  len(texts),
		Failed: failed,
	}
	if build {
		m.state.Build()
		resp.Built = true
	}
	resp.Pending = m.state.Pending()

	m.logger.Info("Texts learned via API",
		slog.Int("texts", resp.Texts),
		slog.Int("failed", resp.Failed),
		slog.Bool("built", resp.Built),
	)
	respondWithJSON(w, http.StatusOK, resp)
}

func (m *MarkovAPI) handleLearnArchive(w http.ResponseWriter, r *http.Request) {
	data, ok := m.readBody(w, r)
	if !ok {
		return
	}
	texts, err := m.extractor.Parse(data)
	if err != nil {
		respondWithModelError(w, m.logger, "Failed to parse archive", err)
		return
	}
	m.learn(w, r, texts)
}

func (m *MarkovAPI) handleLearnTexts(w http.ResponseWriter, r *http.Request) {
	data, ok := m.readBody(w, r)
	if !ok {
		return
	}
	var req LearnTextsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	m.learn(w, r, req.Texts)
}

func (m *MarkovAPI) handleBuild(w http.ResponseWriter, _ *http.Request) {
	model := m.state.Build()
	respondWithJSON(w, http.StatusOK, StatsResponse{
		Loaded:  true,
		Model:   model.Stats(),
		Pending: 0,
	})
}

func (m *MarkovAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	count := 1
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		var err error
		count, err = strconv.Atoi(countStr)
		if err != nil || count < 1 {
			respondWithError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
	}
	if count > m.maxCount {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("count must not exceed %d", m.maxCount))
		return
	}

	generations, err := m.state.Generate(r.Context(), r.URL.Query().Get("start"), count)
	if err != nil {
		respondWithModelError(w, m.logger, "Failed to generate text", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"generations": generations})
}

// handleGenerateStream writes one generated text word by word, one word per
// line, flushing after each word.
func (m *MarkovAPI) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	gen := m.state.NewGenerator()
	if err := gen.SetStart(r.URL.Query().Get("start")); err != nil {
		respondWithModelError(w, m.logger, "Failed to set starting word", err)
		return
	}
	words, err := gen.GenerateStream(r.Context())
	if err != nil {
		respondWithModelError(w, m.logger, "Failed to generate text", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	for word := range words {
		if _, err = io.WriteString(w, word+"\n"); err != nil {
			m.logger.Debug("Client went away during stream", "error", err)
			// Drain so the generating goroutine can finish.
			for range words {
			}
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (m *MarkovAPI) handleDownload(w http.ResponseWriter, _ *http.Request) {
	model := m.state.Model()
	if model == nil {
		respondWithModelError(w, m.logger, "No model to download", markov.ErrUninitializedModel)
		return
	}
	data := markov.Encode(model)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="model.bin"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (m *MarkovAPI) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, ok := m.readBody(w, r)
	if !ok {
		return
	}
	model, err := markov.Decode(data)
	if err != nil {
		respondWithModelError(w, m.logger, "Failed to decode model", err)
		return
	}
	m.state.SetModel(model)
	m.logger.Info("Model uploaded via API",
		slog.String("size", humanize.Bytes(uint64(len(data)))),
		slog.Int("sources", model.Len()),
	)
	respondWithJSON(w, http.StatusOK, StatsResponse{
		Loaded:  true,
		Model:   model.Stats(),
		Pending: m.state.Pending(),
	})
}

func (m *MarkovAPI) handleStats(w http.ResponseWriter, _ *http.Request) {
	model := m.state.Model()
	respondWithJSON(w, http.StatusOK, StatsResponse{
		Loaded:  model != nil,
		Model:   model.Stats(),
		Pending: m.state.Pending(),
	})
}

func (m *MarkovAPI) handlePrune(w http.ResponseWriter, r *http.Request) {
	var req PruneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	before, after, err := m.state.Prune(req.MinFreq)
	if err != nil {
		respondWithModelError(w, m.logger, "Failed to prune model", err)
		return
	}
	m.logger.Info("Model pruned via API",
		slog.Int("min_freq", int(req.MinFreq)),
		slog.Int("links_removed", before.TotalChains-after.TotalChains),
	)
	respondWithJSON(w, http.StatusOK, StatsResponse{
		Loaded:  true,
		Model:   after,
		Pending: m.state.Pending(),
	})
}
