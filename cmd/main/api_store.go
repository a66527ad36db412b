package main

import (
	"log/slog"
	"net/http"

	"github.com/CTAG07/Murmur/pkg/markov"
	"github.com/CTAG07/Murmur/pkg/store"
	lru "github.com/hashicorp/golang-lru"
)

// StoreAPI exposes the named models kept in the database. Loaded models are
// kept in an ARC cache, so switching back and forth between models does not
// hit the database each time.
type StoreAPI struct {
	store  *store.Store
	state  *ModelState
	cache  *lru.ARCCache
	logger *slog.Logger
}

// NewStoreAPI creates a new instance of the StoreAPI. cacheSize is the number
// of models kept in memory.
func NewStoreAPI(s *store.Store, state *ModelState, cacheSize int, logger *slog.Logger) (*StoreAPI, error) {
	cache, err := lru.NewARC(max(cacheSize, 1))
	if err != nil {
		return nil, err
	}
	return &StoreAPI{
		store:  s,
		state:  state,
		cache:  cache,
		logger: logger,
	}, nil
}

// RegisterRoutes sets up the routing for all /api/store endpoints.
func (a *StoreAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/store/models", RequireScope(scopeStoreRead, a.handleList))
	mux.HandleFunc("GET /api/store/models/{name}", RequireScope(scopeStoreRead, a.handleInfo))
	mux.HandleFunc("POST /api/store/models/{name}", RequireScope(scopeStoreWrite, a.handleSave))
	mux.HandleFunc("DELETE /api/store/models/{name}", RequireScope(scopeStoreWrite, a.handleRemove))
	mux.HandleFunc("POST /api/store/models/{name}/load", RequireScope(scopeMarkovWrite, a.handleLoad))
	mux.HandleFunc("GET /api/store/stats", RequireScope(scopeStoreRead, a.handleStats))
}

// load returns the named model from the cache, reading it from the store on a miss.
func (a *StoreAPI) load(r *http.Request, name string) (*markov.Model, error) {
	if cached, ok := a.cache.Get(name); ok {
		return cached.(*markov.Model), nil
	}
	model, err := a.store.Load(r.Context(), name)
	if err != nil {
		return nil, err
	}
	a.cache.Add(name, model)
	return model, nil
}

func (a *StoreAPI) handleList(w http.ResponseWriter, r *http.Request) {
	models, err := a.store.List(r.Context())
	if err != nil {
		respondWithModelError(w, a.logger, "Failed to list models", err)
		return
	}
	respondWithJSON(w, http.StatusOK, models)
}

func (a *StoreAPI) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := a.store.Info(r.Context(), r.PathValue("name"))
	if err != nil {
		respondWithModelError(w, a.logger, "Failed to get model", err)
		return
	}
	respondWithJSON(w, http.StatusOK, info)
}

// handleSave stores the model currently served under the given name.
func (a *StoreAPI) handleSave(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	model := a.state.Model()
	if model == nil {
		respondWithModelError(w, a.logger, "No model to save", markov.ErrUninitializedModel)
		return
	}
	if err := a.store.Save(r.Context(), name, model); err != nil {
		respondWithModelError(w, a.logger, "Failed to save model", err)
		return
	}
	a.cache.Add(name, model)

	info, err := a.store.Info(r.Context(), name)
	if err != nil {
		respondWithModelError(w, a.logger, "Failed to verify saved model", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, info)
}

func (a *StoreAPI) handleRemove(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	a.cache.Remove(name)
	if err := a.store.Remove(r.Context(), name); err != nil {
		respondWithModelError(w, a.logger, "Failed to remove model", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLoad makes a stored model the one currently served.
func (a *StoreAPI) handleLoad(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	model, err := a.load(r, name)
	if err != nil {
		respondWithModelError(w, a.logger, "Failed to load model", err)
		return
	}
	a.state.SetModel(model)
	a.logger.Info("Stored model loaded via API", slog.String("model_name", name))
	respondWithJSON(w, http.StatusOK, StatsResponse{
		Loaded:  true,
		Model:   model.Stats(),
		Pending: a.state.Pending(),
	})
}

func (a *StoreAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.store.Stats(r.Context())
	if err != nil {
		respondWithModelError(w, a.logger, "Failed to get stats", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
