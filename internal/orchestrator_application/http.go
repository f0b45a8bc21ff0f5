package orchestrator_application

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/ERRORIK404/Expression_Calculator/internal/service"
	locerr "github.com/ERRORIK404/Expression_Calculator/pkg/local_errors"
	structs "github.com/ERRORIK404/Expression_Calculator/pkg/structs"
)

const (
	apiPrefix       = "/api/v1"
	maxBodyBytes    = 1 << 20
	requestIDHeader = "X-Request-ID"
)

type calculateRequest struct {
	Expression *string `json:"expression"`
}

type expressionsResponse struct {
	Expressions []structs.CalculationRecord `json:"expressions"`
}

type expressionResponse struct {
	Expression structs.CalculationRecord `json:"expression"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type httpHandler struct {
	svc *service.Service
	log zerolog.Logger
}

// NewHTTPHandler serves the calculator API at the root and under /api/v1.
func NewHTTPHandler(svc *service.Service, log zerolog.Logger) http.Handler {
	h := &httpHandler{svc: svc, log: log}

	router := httprouter.New()
	for _, prefix := range []string{"", apiPrefix} {
		router.POST(prefix+"/calculate", h.calculate)
		router.GET(prefix+"/expressions", h.listExpressions)
		router.GET(prefix+"/expressions/:id", h.getExpression)
		router.GET(prefix+"/health", h.health)
	}
	router.GlobalOPTIONS = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		h.log.Error().Str("request_id", w.Header().Get(requestIDHeader)).Interface("panic", v).Msg("handler panicked")
		writeError(w, http.StatusInternalServerError, "internal error")
	}

	return h.middleware(router)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// middleware adds CORS headers and a request id, then writes the access log line.
func (h *httpHandler) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.log.Info().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (h *httpHandler) calculate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req calculateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, "invalid request body: unexpected data after object")
		return
	}
	if req.Expression == nil {
		writeError(w, http.StatusBadRequest, `missing field "expression"`)
		return
	}

	rec, err := h.svc.Submit(r.Context(), *req.Expression)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	code := http.StatusOK
	if rec.Status == structs.StatusPending {
		code = http.StatusAccepted
	}
	writeJSON(w, code, rec)
}

func (h *httpHandler) listExpressions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	records, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, expressionsResponse{Expressions: records})
}

func (h *httpHandler) getExpression(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	rec, err := h.svc.Get(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid id")
	case errors.Is(err, locerr.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, expressionResponse{Expression: rec})
	}
}

func (h *httpHandler) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
