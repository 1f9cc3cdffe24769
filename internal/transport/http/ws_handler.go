package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"career-assessment-service/internal/app"
	"career-assessment-service/internal/domain"
)

type WSHandler struct {
	service  *app.AssessmentService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Option     int    `json:"option"`
	Text       string `json:"text"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one assessment
// attempt over the connection. Summary updates for the user are pushed as
// they happen. Closing the socket before "finish" abandons the attempt.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	assessmentID := r.URL.Query().Get("assessment")
	if assessmentID == "" {
		http.Error(w, "missing assessment", http.StatusBadRequest)
		return
	}
	userID := UserIDFromContext(r.Context())
	logger := h.logger.With(zap.String("user_id", userID), zap.String("assessment_id", assessmentID))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	started, err := h.service.StartAttempt(r.Context(), userID, assessmentID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.AbandonAttempt(r.Context(), userID, assessmentID)

	updates, cancel := h.service.Subscribe(r.Context(), userID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "summary", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: started}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		msg := h.dispatch(r, userID, assessmentID, inbound)
		send <- msg
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, userID, assessmentID string, inbound inboundMessage) outboundMessage[any] {
	ctx := r.Context()
	var (
		progress domain.Progress
		err      error
	)
	switch inbound.Type {
	case "start":
		progress, err = h.service.StartAttempt(ctx, userID, assessmentID)
		if err == nil {
			return outboundMessage[any]{Type: "started", Payload: progress}
		}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid answer payload")
		}
		progress, err = h.service.RecordAnswer(ctx, userID, assessmentID, payload.QuestionID, payload.Option, payload.Text)
	case "next":
		progress, err = h.service.Navigate(ctx, userID, assessmentID, app.DirectionNext)
	case "previous":
		progress, err = h.service.Navigate(ctx, userID, assessmentID, app.DirectionPrevious)
	case "restart":
		progress, err = h.service.RestartAttempt(ctx, userID, assessmentID)
	case "finish":
		result, _, err := h.service.FinishAttempt(ctx, userID, assessmentID)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "result", Payload: result}
	default:
		return errorMessage("unsupported message type")
	}
	if err != nil {
		return errorMessage(err.Error())
	}
	return outboundMessage[any]{Type: "progress", Payload: progress}
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
