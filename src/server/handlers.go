package server

import (
	"net/http"
	"strconv"
	"time"

	"secdb/src/directors"
	"secdb/src/engine"
	"secdb/src/helpers"
)

// MaxRequestBytes caps the size of a request body.
const MaxRequestBytes = 32 << 20

// statusFor maps an error kind to the HTTP status code.
func statusFor(kind engine.Kind) int {
	switch kind {
	case "":
		return http.StatusOK
	case engine.KindCollectionNotFound:
		return http.StatusNotFound
	case engine.KindCollectionAlreadyExists:
		return http.StatusConflict
	case directors.KindInvalidAction, directors.KindInvalidRequest:
		return http.StatusBadRequest
	case directors.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /db/{action}", s.handleAction)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := helpers.GenerateUUID()
	action := r.PathValue("action")
	codec := codecFor(r.Header.Get("Content-Type"))

	w.Header().Set("X-Request-Id", requestID)

	var resp *directors.Response
	if user, password, _ := r.BasicAuth(); s.services.UserService.Authenticate(user, password) != nil {
		w.Header().Set("WWW-Authenticate", `Basic realm="secdb"`)
		resp = directors.ErrorResponse(directors.ErrUnauthorized)
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
		req, err := decodeRequest(r, codec)
		if err != nil {
			resp = directors.ErrorResponse(err)
		} else {
			resp = s.services.DatabaseService.Execute(action, req)
		}
	}

	status := http.StatusOK
	if !resp.Success {
		status = statusFor(resp.Error.Kind)
	}
	s.sendResponse(w, resp, codec, status, requestID)

	s.logger.Infow("Handled request",
		"request_id", requestID,
		"action", action,
		"status", status,
		"remote_addr", r.RemoteAddr,
		"duration", time.Since(start),
	)
}

func (s *Server) sendResponse(w http.ResponseWriter, resp *directors.Response, codec string, status int, requestID string) {
	body, err := encodeResponse(resp, codec)
	if err != nil {
		s.logger.Errorw("Failed to encode response", "request_id", requestID, "error", err)
		codec = ContentTypeJSON
		status = http.StatusInternalServerError
		body, _ = encodeResponse(directors.ErrorResponse(err), codec)
	}

	w.Header().Set("Content-Type", codec)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Warnw("Failed to write response", "request_id", requestID, "error", err)
	}
}
