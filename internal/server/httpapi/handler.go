package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/secureclip/internal/common"
	"github.com/dmitrijs2005/secureclip/internal/relay"
	"github.com/dmitrijs2005/secureclip/internal/server/store"
)

// bodySlack allows for JSON framing and metadata around the envelope when
// bounding the request body.
const bodySlack = 4 * 1024

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeCtx(r)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error(ctx, "health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, relay.HealthResponse{OK: true})
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxEnvelopeBytes+bodySlack)

	var req relay.StoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, common.ErrPayloadTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, common.ErrValidation.Error())
		return
	}

	if !common.IsValidCode(req.Code) || req.Payload == "" || !req.Meta.Valid() {
		writeError(w, http.StatusBadRequest, common.ErrValidation.Error())
		return
	}

	// The decoder cap above bounds the whole body; this check pins the
	// envelope itself so nothing oversized is ever partially stored.
	if int64(len(req.Payload)) > s.maxEnvelopeBytes {
		writeError(w, http.StatusRequestEntityTooLarge, common.ErrPayloadTooLarge.Error())
		return
	}

	ctx, cancel := s.storeCtx(r)
	defer cancel()

	ttl := s.recordTTL
	if req.TTLSeconds > 0 {
		ttl = store.ClampTTL(time.Duration(req.TTLSeconds) * time.Second)
	}

	rec := &store.Record{Payload: req.Payload, Meta: req.Meta}
	if err := s.store.Put(ctx, req.Code, rec, ttl); err != nil {
		s.logger.Error(ctx, "store failed", "error", err)
		if errors.Is(err, common.ErrBackendUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "store unreachable")
			return
		}
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, relay.StoreResponse{Success: true})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	s.retrieve(w, r, r.PathValue("code"))
}

func (s *Server) handleConsume(w http.ResponseWriter, r *http.Request) {
	var req relay.ConsumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, common.ErrValidation.Error())
		return
	}
	s.retrieve(w, r, req.Code)
}

// retrieve is the shared destructive read behind /fetch/{code} and
// /consume. On success the record no longer exists.
func (s *Server) retrieve(w http.ResponseWriter, r *http.Request, code string) {
	// A malformed code cannot name a record; same response as an expired
	// one so nothing is revealed about which codes exist.
	if !common.IsValidCode(code) {
		writeError(w, http.StatusNotFound, common.ErrNotFound.Error())
		return
	}

	ctx, cancel := s.storeCtx(r)
	defer cancel()

	rec, err := s.store.GetAndDelete(ctx, code)
	if err != nil {
		s.writeRetrievalError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, relay.FetchResponse{Payload: rec.Payload, Meta: rec.Meta})
}

func (s *Server) handlePeek(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if !common.IsValidCode(code) {
		writeError(w, http.StatusNotFound, common.ErrNotFound.Error())
		return
	}

	ctx, cancel := s.storeCtx(r)
	defer cancel()

	meta, err := s.store.Peek(ctx, code)
	if err != nil {
		s.writeRetrievalError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, relay.PeekResponse{Ready: true, Meta: *meta})
}

// writeRetrievalError maps store errors to the wire. NotFound and corrupted
// records share one response shape: the caller must not learn whether a
// record expired, was consumed, never existed or rotted in the store.
// Details stay in the server log.
func (s *Server) writeRetrievalError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, common.ErrNotFound.Error())
	case errors.Is(err, common.ErrCorruptedRecord):
		s.logger.Error(ctx, "corrupted record dropped", "error", err)
		writeError(w, http.StatusNotFound, common.ErrNotFound.Error())
	case errors.Is(err, common.ErrBackendUnavailable):
		s.logger.Error(ctx, "store unreachable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unreachable")
	default:
		s.logger.Error(ctx, "retrieval failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

// storeCtx bounds a store operation so no request blocks indefinitely on a
// stuck backend.
func (s *Server) storeCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.storeTimeout)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, relay.ErrorResponse{Error: msg})
}
