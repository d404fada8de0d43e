package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/born-ml/digits/internal/deslant"
	"github.com/born-ml/digits/internal/model"
	"github.com/born-ml/digits/internal/network"
	"github.com/born-ml/digits/internal/pipeline"
	"gonum.org/v1/gonum/mat"
)

const maxBodyBytes = 1 << 20

type predictRequest struct {
	Image []float64 `json:"image"`
}

type predictResponse struct {
	Digit         int           `json:"digit"`
	Confidence    float64       `json:"confidence"`
	Model         string        `json:"model"`
	Probabilities []float64     `json:"probabilities,omitempty"`
	Activations   [][][]float64 `json:"activations,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	mode, err := network.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var req predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return
	}

	c, m, err := s.classifierFor(r.Context())
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	out, err := c.One(req.Image, mode)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	resp := predictResponse{
		Digit:      out.Classes[0],
		Confidence: out.Confidence()[0],
		Model:      m.ID,
	}
	if mode != network.ModeClass {
		resp.Probabilities = mat.Row(nil, 0, out.Probs)
	}
	if mode == network.ModeAll {
		resp.Activations = make([][][]float64, len(out.Activations))
		for i, a := range out.Activations {
			resp.Activations[i] = [][]float64{mat.Row(nil, 0, a)}
		}
	}

	requestLogger(r, s.logger).Debug("prediction",
		"model", m.ID,
		"digit", resp.Digit,
		"confidence", resp.Confidence,
		"mode", mode.String(),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  s.opts.ModelID,
	})
}

// statusFor maps classification errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInputShape):
		return http.StatusBadRequest
	case errors.Is(err, deslant.ErrDegenerateGeometry):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrWeightLoad):
		return http.StatusServiceUnavailable
	default:
		// Includes network.ErrDimensionMismatch: the model and
		// pipeline disagree, which the client cannot fix.
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	level := s.logger.Warn
	if status >= http.StatusInternalServerError {
		level = s.logger.Error
	}
	level("request failed",
		"request_id", RequestIDFrom(r.Context()),
		"status", status,
		"error", err,
	)

	msg := err.Error()
	if status == http.StatusBadRequest && errors.Is(err, pipeline.ErrInputShape) {
		msg = "Invalid image data. Expected 784-length list."
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
