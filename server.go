package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const maxSimFileBytes = 8 << 20

type ErrorResponse struct {
	Error string `json:"detail"`
}

// NewRouter serves the simfile codec over HTTP. Every endpoint takes a raw
// simfile as the POST body.
func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/parse", handleParse).Methods("POST")
	router.HandleFunc("/rewrite", handleRewrite).Methods("POST")
	router.HandleFunc("/timeline", handleTimeline).Methods("POST")
	router.Use(requestLogger)
	return cors.Default().Handler(router)
}

// requestLogger tags each request with an X-Request-ID, keeping one the
// client sent, and logs it once the handler is done
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s (%s)", id, r.Method, r.URL.Path, time.Since(start))
	})
}

func readSimFile(w http.ResponseWriter, r *http.Request) (*SimFile, bool) {
	body := http.MaxBytesReader(w, r.Body, maxSimFileBytes)
	sf, err := ParseSimFile(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
		} else {
			writeError(w, http.StatusBadRequest, err)
		}
		return nil, false
	}
	return sf, true
}

func handleParse(w http.ResponseWriter, r *http.Request) {
	sf, ok := readSimFile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sf)
}

func handleRewrite(w http.ResponseWriter, r *http.Request) {
	sf, ok := readSimFile(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if _, err := sf.WriteTo(&buf); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("Error writing rewrite response: %v", err)
	}
}

// handleTimeline reports the timeline of the difficulty named by the
// "difficulty" query parameter, or the first one
func handleTimeline(w http.ResponseWriter, r *http.Request) {
	sf, ok := readSimFile(w, r)
	if !ok {
		return
	}

	name := r.URL.Query().Get("difficulty")
	diff, found := sf.Difficulty(name)
	if !found {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "difficulty not found: " + name})
		return
	}

	timeline, err := ExtractTimeline(sf, diff)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}
