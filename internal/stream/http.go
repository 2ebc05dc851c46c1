package stream

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/linuxmatters/jiveloop/internal/config"
)

// Handler exposes the station over HTTP: a chunked WAV stream plus small
// JSON endpoints for status and live tuning.
type Handler struct {
	station *Station
}

// NewHandler creates the HTTP surface for a station.
func NewHandler(s *Station) *Handler {
	return &Handler{station: s}
}

// Mux routes the handler's endpoints.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", h.serveStream)
	mux.HandleFunc("/api/status", h.serveStatus)
	mux.HandleFunc("/api/config", h.serveConfig)
	return mux
}

// serveStream pushes an endless WAV stream to the client. Each connection
// gets its own engine, so every listener hears a different walk.
func (h *Handler) serveStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	engine := h.station.Subscribe()
	defer h.station.Unsubscribe(engine)

	log.Printf("listener connected (total: %d)", h.station.ListenerCount())
	defer log.Printf("listener disconnected")

	ctx := r.Context()
	buf := make([]byte, config.StreamChunkSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := engine.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			flusher.Flush()
		}
		if err != nil {
			// A track with no beats yields the header then ends.
			return
		}
	}
}

func (h *Handler) serveStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.station.Snapshot())
}

// serveConfig reads or updates the station's tuning parameters. Probability
// changes apply immediately; a threshold change rebuilds the graph before
// the request returns.
func (h *Handler) serveConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		st := h.station.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"threshold":          st.Threshold,
			"branch_probability": st.BranchProb,
		})

	case http.MethodPost:
		var req struct {
			Threshold  *float64 `json:"threshold"`
			BranchProb *float64 `json:"branch_probability"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.BranchProb != nil {
			h.station.SetBranchProbability(*req.BranchProb)
		}
		if req.Threshold != nil {
			if err := h.station.Retune(r.Context(), *req.Threshold); err != nil {
				log.Printf("retune failed: %v", err)
				http.Error(w, "graph rebuild failed", http.StatusInternalServerError)
				return
			}
		}
		st := h.station.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok":                 true,
			"threshold":          st.Threshold,
			"branch_probability": st.BranchProb,
			"edges":              st.Edges,
		})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
