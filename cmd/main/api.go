package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Murmur/pkg/markov"
	"github.com/CTAG07/Murmur/pkg/notestock"
	"github.com/CTAG07/Murmur/pkg/store"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		err := json.NewEncoder(w).Encode(payload)
		if err != nil {
			fmt.Printf("ERROR: Failed to encode JSON response: %v\n", err)
		}
	}
}

// errorStatus maps library errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, markov.ErrUnknownSeed), errors.Is(err, store.ErrModelNotFound):
		return http.StatusNotFound
	case errors.Is(err, markov.ErrUninitializedModel):
		return http.StatusConflict
	case errors.Is(err, markov.ErrDecode), errors.Is(err, notestock.ErrArchive):
		return http.StatusBadRequest
	default:
		// ErrIO and anything unexpected.
		return http.StatusInternalServerError
	}
}

// respondWithModelError logs err and answers with the status errorStatus
// assigns to it.
func respondWithModelError(w http.ResponseWriter, logger *slog.Logger, message string, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		logger.Error(message, "error", err)
	} else {
		logger.Debug(message, "error", err)
	}
	respondWithError(w, code, fmt.Sprintf("%s: %v", message, err))
}
