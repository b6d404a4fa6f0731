package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"mysteryd/internal/gate"
	"mysteryd/internal/manager"
	"mysteryd/pkg/types"
)

type handlers struct {
	svc Service
}

// decodeJSON enforces the content type and body limit. It writes the error
// response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// status godoc
// @Summary  Scheduler load, statistics and cached backend verdict
// @Produce  json
// @Success  200 {object} types.StatusResponse
// @Router   /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// @Summary  Scheduler statistics
// @Produce  json
// @Success  200 {object} types.StatsResponse
// @Router   /stats [get]
func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, manager.StatsDTO(h.svc.Stats()))
}

func (h *handlers) resetStats(w http.ResponseWriter, r *http.Request) {
	h.svc.ResetStats()
	w.WriteHeader(http.StatusNoContent)
}

// @Summary  Reject every queued item
// @Produce  json
// @Success  200 {object} types.DrainResponse
// @Router   /drain [post]
func (h *handlers) drain(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.DrainResponse{Rejected: h.svc.Drain()})
}

// @Summary  Check backend availability
// @Param    force query bool false "Re-probe even when the cached verdict is fresh"
// @Produce  json
// @Success  200 {object} types.AvailabilityResponse
// @Failure  503 {object} types.AvailabilityResponse
// @Router   /availability/check [post]
func (h *handlers) checkAvailability(w http.ResponseWriter, r *http.Request) {
	force := false
	switch strings.ToLower(r.URL.Query().Get("force")) {
	case "1", "true", "yes":
		force = true
	}
	st, err := h.svc.CheckAvailability(r.Context(), force)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, manager.AvailabilityDTO(st))
	case gate.IsUnavailable(err):
		writeJSON(w, http.StatusServiceUnavailable, manager.AvailabilityDTO(st))
	default:
		writeServiceError(w, err)
	}
}

// @Summary  Generate the next narrative beat
// @Accept   json
// @Produce  json
// @Param    request body types.NarrativeRequest true "Narrative context and policy"
// @Success  200 {object} types.GenerationResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  502 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Failure  504 {object} types.ErrorResponse
// @Router   /narrate [post]
func (h *handlers) narrate(w http.ResponseWriter, r *http.Request) {
	var req types.NarrativeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Scene) == "" {
		writeJSONError(w, http.StatusBadRequest, "scene is required")
		return
	}
	log := startLog(r, "narrate")
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	gen, err := h.svc.Narrate(ctx, manager.NarrativeFrom(req), h.svc.PolicyFrom(req.PolicyOptions))
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		log.end(writeServiceError(w, err), err)
		return
	}
	log.text(gen.Text)
	writeJSON(w, http.StatusOK, types.GenerationResponse{
		Text:       gen.Text,
		Model:      gen.ModelID,
		Backend:    h.svc.Backend().Name(),
		TokenCount: gen.TokenCount,
		ElapsedMs:  time.Since(log.start).Milliseconds(),
	})
	log.end(http.StatusOK, nil)
}

// @Summary  Generate the end-of-game reveal
// @Accept   json
// @Produce  json
// @Param    request body types.NarrativeRequest true "Narrative context and policy"
// @Success  200 {object} types.GenerationResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /closing [post]
func (h *handlers) closing(w http.ResponseWriter, r *http.Request) {
	var req types.NarrativeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	log := startLog(r, "closing")
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	text, err := h.svc.Closing(ctx, manager.NarrativeFrom(req), h.svc.PolicyFrom(req.PolicyOptions))
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		log.end(writeServiceError(w, err), err)
		return
	}
	log.text(text)
	b := h.svc.Backend()
	writeJSON(w, http.StatusOK, types.GenerationResponse{
		Text:      text,
		Model:     b.Model(),
		Backend:   b.Name(),
		ElapsedMs: time.Since(log.start).Milliseconds(),
	})
	log.end(http.StatusOK, nil)
}

// @Summary  Condense one transcript or a batch
// @Accept   json
// @Produce  json
// @Param    request body types.SummarizeRequest true "Text or texts, and policy"
// @Success  200 {object} types.SummarizeResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /summarize [post]
func (h *handlers) summarize(w http.ResponseWriter, r *http.Request) {
	var req types.SummarizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if (req.Text == "") == (len(req.Texts) == 0) {
		writeJSONError(w, http.StatusBadRequest, "exactly one of text or texts is required")
		return
	}
	log := startLog(r, "summarize")
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	p := h.svc.PolicyFrom(req.PolicyOptions)
	var (
		resp types.SummarizeResponse
		err  error
	)
	if len(req.Texts) > 0 {
		resp.Summaries, err = h.svc.SummarizeBatch(ctx, req.Texts, p)
	} else {
		resp.Summary, err = h.svc.Summarize(ctx, req.Text, p)
	}
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		log.end(writeServiceError(w, err), err)
		return
	}
	resp.ElapsedMs = time.Since(log.start).Milliseconds()
	writeJSON(w, http.StatusOK, resp)
	log.end(http.StatusOK, nil)
}
