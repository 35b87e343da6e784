package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"leveltx-service/internal/application"
	"leveltx-service/internal/config"
	"leveltx-service/internal/domain"
)

// SourceResolver maps a ?source= value to a data source. An empty name
// selects the default source.
type SourceResolver func(name string) (config.DataSource, error)

type Server struct {
	svc     *application.LevelService
	resolve SourceResolver
	ping    func(ctx context.Context) error
}

func NewServer(svc *application.LevelService, resolve SourceResolver) *Server {
	return &Server{svc: svc, resolve: resolve}
}

// SetReadyCheck installs the probe used by /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

type levelDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type stepDTO struct {
	Op      string `json:"op"`
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
}

type batchRequest struct {
	Steps []stepDTO `json:"steps"`
}

type batchResponse struct {
	Status string `json:"status"`
	Steps  int    `json:"steps"`
}

type txErrorResponse struct {
	Error         string  `json:"error"`
	RollbackError *string `json:"rollback_error"`
}

type errorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) ListLevels(w http.ResponseWriter, r *http.Request) {
	src, err := s.resolve(r.URL.Query().Get("source"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	levels, err := s.svc.List(r.Context(), src)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	out := make([]levelDTO, 0, len(levels))
	for _, l := range levels {
		out = append(out, levelDTO{ID: l.ID, Name: l.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ApplyBatch(w http.ResponseWriter, r *http.Request) {
	src, err := s.resolve(r.URL.Query().Get("source"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ops, err := s.operations(body.Steps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var idemKey *string
	if k := r.Header.Get("X-Idempotency-Key"); k != "" {
		idemKey = &k
	}
	if err := s.svc.Apply(r.Context(), src, idemKey, ops...); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Status: "committed", Steps: len(ops)})
}

func (s *Server) operations(steps []stepDTO) ([]application.Operation, error) {
	if len(steps) == 0 {
		return nil, errors.New("steps are required")
	}
	repo := s.svc.Repo()
	ops := make([]application.Operation, 0, len(steps))
	for i, st := range steps {
		switch st.Op {
		case "insert":
			if !domain.ValidateName(st.Name) {
				return nil, fmt.Errorf("step %d: invalid name", i)
			}
			ops = append(ops, application.InsertLevel(repo, st.Name))
		case "update":
			if st.ID <= 0 || !domain.ValidateName(st.Name) {
				return nil, fmt.Errorf("step %d: id and name are required", i)
			}
			ops = append(ops, application.UpdateLevel(repo, st.ID, st.Name))
		case "delete":
			if st.ID <= 0 {
				return nil, fmt.Errorf("step %d: id is required", i)
			}
			ops = append(ops, application.DeleteLevel(repo, st.ID))
		case "fail":
			msg := st.Message
			if msg == "" {
				msg = "forced failure"
			}
			ops = append(ops, application.Check(fmt.Sprintf("step %d", i), application.Fail(msg)))
		default:
			return nil, fmt.Errorf("step %d: unknown op %q", i, st.Op)
		}
	}
	return ops, nil
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var txErr *application.TransactionError
	var connErr *application.ConnectionError
	switch {
	case errors.Is(err, application.ErrConflict):
		writeError(w, http.StatusConflict, "duplicate idempotency key")
	case errors.As(err, &txErr):
		resp := txErrorResponse{Error: txErr.Error()}
		if txErr.Rollback != nil {
			msg := txErr.Rollback.Error()
			resp.RollbackError = &msg
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.As(err, &connErr):
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
	case errors.Is(err, application.ErrNotFound):
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	default:
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Code: status, Message: msg})
}
