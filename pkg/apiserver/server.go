// Package apiserver exposes the decision engine over HTTP. The engine
// itself stays a library; this is operational glue only.
package apiserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/engine"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/logging"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

// Server serves the classification API.
type Server struct {
	engine *engine.Engine
	port   int
}

// NewServer creates an API server around the engine.
func NewServer(eng *engine.Engine, port int) *Server {
	return &Server{engine: eng, port: port}
}

// ClassifyRequest is the request body of POST /api/v1/classify.
type ClassifyRequest struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	CustomerID string `json:"customer_id,omitempty"`
}

// ValidateRequest is the request body of POST /api/v1/validate.
type ValidateRequest struct {
	TicketID string `json:"ticket_id"`
	Category string `json:"category"`
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/classify", s.handleClassify)
	mux.HandleFunc("/api/v1/validate", s.handleValidate)
	return mux
}

// Start blocks serving the API.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	logging.Infof("Starting classification API on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	t := &ticket.Ticket{
		ID:      req.ID,
		RawText: req.Text,
		Metadata: ticket.Metadata{
			CustomerID: req.CustomerID,
			Timestamp:  time.Now().UTC(),
		},
	}

	dec, err := s.engine.Classify(r.Context(), t)
	if err != nil {
		logging.Errorf("Classify failed for ticket %s: %v", req.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "classification failed"})
		return
	}

	writeJSON(w, http.StatusOK, dec)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cat, ok := ticket.ParseCategory(req.Category)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown category"})
		return
	}

	if err := s.engine.ValidateOutcome(r.Context(), req.TicketID, cat); err != nil {
		logging.Errorf("Outcome validation failed for ticket %s: %v", req.TicketID, err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "outcome not recorded"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Errorf("Failed to encode response: %v", err)
	}
}
