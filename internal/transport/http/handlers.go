package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"career-assessment-service/internal/app"
	"career-assessment-service/internal/domain"
	"career-assessment-service/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Response helpers

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Error: &apiError{Code: code, Message: message},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode error response", zap.Error(err))
	}
}

// respondServiceError maps domain errors onto HTTP statuses.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrAssessmentNotFound):
		s.respondError(w, http.StatusNotFound, "assessment_not_found", err.Error())
	case errors.Is(err, domain.ErrAttemptNotFound):
		s.respondError(w, http.StatusNotFound, "attempt_not_found", err.Error())
	case errors.Is(err, domain.ErrSnapshotNotFound):
		s.respondError(w, http.StatusNotFound, "snapshot_not_found", err.Error())
	case errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrAnswerRequired),
		errors.Is(err, domain.ErrNoAnswers),
		errors.Is(err, domain.ErrEmptyConversation):
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("user_id", UserIDFromContext(r.Context())),
			zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// decode reads a JSON body into dst and validates its struct tags.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Assessment handlers

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	infos, err := s.service.ListAssessments(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	assessment, err := s.service.GetAssessment(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, assessment)
}

type scoreRequest struct {
	Answers domain.AnswerRecord `json:"answers" validate:"required"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !s.decode(w, r, &req) {
		return
	}
	rep, err := s.service.Score(r.Context(), chi.URLParam(r, "type"), req.Answers)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rep)
}

// Attempt handlers

func (s *Server) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	progress, err := s.service.StartAttempt(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "type"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, progress)
}

type answerRequest struct {
	QuestionID string `json:"questionId"`
	Option     *int   `json:"option" validate:"required_without=Text"`
	Text       string `json:"text"`
}

func (s *Server) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !s.decode(w, r, &req) {
		return
	}
	option := 0
	if req.Option != nil {
		option = *req.Option
	}
	progress, err := s.service.RecordAnswer(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "type"), req.QuestionID, option, req.Text)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, progress)
}

func (s *Server) handleNavigate(dir app.Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		progress, err := s.service.Navigate(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "type"), dir)
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, progress)
	}
}

func (s *Server) handleRestartAttempt(w http.ResponseWriter, r *http.Request) {
	progress, err := s.service.RestartAttempt(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "type"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, progress)
}

func (s *Server) handleAbandonAttempt(w http.ResponseWriter, r *http.Request) {
	s.service.AbandonAttempt(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "type"))
	w.WriteHeader(http.StatusNoContent)
}

type finishResponse struct {
	Result  domain.AssessmentResult `json:"result"`
	Summary domain.Summary          `json:"summary"`
}

func (s *Server) handleFinishAttempt(w http.ResponseWriter, r *http.Request) {
	result, summary, err := s.service.FinishAttempt(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "type"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, finishResponse{Result: result, Summary: summary})
}

// Result handlers

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.Results(r.Context(), UserIDFromContext(r.Context())))
}

func (s *Server) handleResetResults(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.ResetResults(r.Context(), UserIDFromContext(r.Context())))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.Summary(r.Context(), UserIDFromContext(r.Context())))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, s.service.Results(r.Context(), userID), s.service.Summary(r.Context(), userID)); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="assessment-results.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("write export failed", zap.Error(err))
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "type"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}

// Advisor handlers

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.advisor.Recommend(r.Context(), UserIDFromContext(r.Context())))
}

type chatMessage struct {
	Role    string `json:"role" validate:"oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages" validate:"dive"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}
	conversation := make([]domain.ChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		conversation[i] = domain.ChatMessage{Role: domain.ChatRole(m.Role), Content: m.Content}
	}
	reply, err := s.advisor.Chat(r.Context(), UserIDFromContext(r.Context()), conversation)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, reply)
}
