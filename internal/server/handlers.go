package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/chris-regnier/reflectctl/internal/index"
	"github.com/chris-regnier/reflectctl/internal/service"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// goalsRequest is the body of the retrieval-augmented endpoints.
type goalsRequest struct {
	Goals []string `json:"goals"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.svc.Health(r.Context()))
}

func (s *Server) generatePrompt(w http.ResponseWriter, r *http.Request) {
	var req service.PromptRequest
	s.decodeLenient(r, &req)
	s.respondJSON(w, http.StatusOK, s.svc.DailyPrompt(r.Context(), req))
}

func (s *Server) generatePromptRAG(w http.ResponseWriter, r *http.Request) {
	var req goalsRequest
	s.decodeLenient(r, &req)
	s.respondJSON(w, http.StatusOK, s.svc.DailyPromptRAG(r.Context(), req.Goals))
}

func (s *Server) monthlyReflection(w http.ResponseWriter, r *http.Request) {
	var req service.ReflectionRequest
	s.decodeLenient(r, &req)
	s.respondJSON(w, http.StatusOK, s.svc.MonthlyReflection(r.Context(), req))
}

func (s *Server) monthlyReflectionRAG(w http.ResponseWriter, r *http.Request) {
	var req goalsRequest
	s.decodeLenient(r, &req)
	s.respondJSON(w, http.StatusOK, s.svc.MonthlyReflectionRAG(r.Context(), req.Goals))
}

func (s *Server) indexEntry(w http.ResponseWriter, r *http.Request) {
	var req index.IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Date = strings.TrimSpace(req.Date)
	req.Text = strings.TrimSpace(req.Text)
	if err := validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	// The caller does not wait on indexing; other failures are logged by the service.
	err := s.svc.IndexEntry(r.Context(), req)
	if errors.Is(err, index.ErrValidation) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, okResponse{OK: err == nil})
}

// decodeLenient decodes the body into v. A missing or malformed body leaves v
// empty so generation endpoints always answer.
func (s *Server) decodeLenient(r *http.Request, v any) {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Debug("ignoring unreadable request body", zap.String("path", r.URL.Path), zap.Error(err))
		reflect.ValueOf(v).Elem().SetZero()
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", e.Field()))
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must be a YYYY-MM-DD date", e.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
