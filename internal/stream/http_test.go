package stream

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/linuxmatters/jiveloop/internal/config"
	"github.com/linuxmatters/jiveloop/internal/playback"
)

func TestStreamEndpointServesEndlessWAV(t *testing.T) {
	station, stop := stationFixture(t, 1)
	defer stop()

	srv := httptest.NewServer(NewHandler(station).Mux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stream")
	if err != nil {
		t.Fatalf("GET /stream failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("Content-Type = %q, want audio/wav", ct)
	}

	header := make([]byte, config.WAVHeaderSize)
	if _, err := io.ReadFull(resp.Body, header); err != nil {
		t.Fatalf("reading stream header: %v", err)
	}
	if !bytes.Equal(header, playback.Header(stationTestRate)) {
		t.Error("stream does not start with the canonical WAV header")
	}

	// The body keeps flowing past the end of the source track.
	body := make([]byte, 64*1024)
	if _, err := io.ReadFull(resp.Body, body); err != nil {
		t.Fatalf("reading stream body: %v", err)
	}
}

func TestStatusEndpoint(t *testing.T) {
	station, stop := stationFixture(t, 1)
	defer stop()
	mux := NewHandler(station).Mux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var st Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if st.Beats != 8 {
		t.Errorf("beats = %d, want 8", st.Beats)
	}
	if st.Threshold != config.DefaultThreshold {
		t.Errorf("threshold = %v, want %v", st.Threshold, config.DefaultThreshold)
	}
}

func TestConfigEndpointUpdatesProbability(t *testing.T) {
	station, stop := stationFixture(t, 1)
	defer stop()
	mux := NewHandler(station).Mux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/config",
		strings.NewReader(`{"branch_probability": 0.8}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := station.Snapshot().BranchProb; got != 0.8 {
		t.Errorf("BranchProb = %v, want 0.8", got)
	}
}

func TestConfigEndpointRebuildsOnThreshold(t *testing.T) {
	station, stop := stationFixture(t, 1)
	defer stop()
	mux := NewHandler(station).Mux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/config",
		strings.NewReader(`{"threshold": 30}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Threshold float64 `json:"threshold"`
		Edges     int     `json:"edges"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Threshold != 30 {
		t.Errorf("threshold = %v, want 30", resp.Threshold)
	}
	if got := station.Snapshot().Threshold; got != 30 {
		t.Errorf("station threshold = %v, want 30", got)
	}
}

func TestConfigEndpointRejectsBadInput(t *testing.T) {
	station, stop := stationFixture(t, 1)
	defer stop()
	mux := NewHandler(station).Mux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/config",
		strings.NewReader(`not json`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/config", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE: status = %d, want 405", rec.Code)
	}
}
