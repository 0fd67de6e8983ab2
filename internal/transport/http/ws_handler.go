package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"property-evaluation-service/internal/app"
	"property-evaluation-service/internal/domain"
)

// Evaluations opens evaluations for a connection.
type Evaluations interface {
	Open(ctx context.Context, scope, propertyID string) (*app.Evaluation, *domain.EvaluationSession, error)
}

type WSHandler struct {
	service  Evaluations
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service Evaluations, logger *zap.Logger) *WSHandler {
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
	AnswerID string `json:"answerId"`
}

type reportPayload struct {
	Label string `json:"label"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type validationPayload struct {
	Fields domain.ValidationErrors `json:"fields"`
}

type reportTextPayload struct {
	Text string `json:"text"`
}

// ServeWS upgrades HTTP requests to websockets and drives one evaluation per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	propertyID := r.URL.Query().Get("propertyId")
	userID := r.URL.Query().Get("userId")
	if propertyID == "" || userID == "" {
		http.Error(w, "missing propertyId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("propertyId", propertyID), zap.String("userId", userID))
	evaluation, _, err := h.service.Open(r.Context(), userID, propertyID)
	if err != nil {
		logger.Warn("open evaluation", zap.Error(err))
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn("ws write error", zap.Error(err))
				// drain so the read loop never blocks on a dead connection
				for range send {
				}
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "state", Payload: evaluation.State()}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handle(r.Context(), evaluation, inbound) {
			send <- msg
		}
	}

	close(send)
	<-writerDone
}

// handle applies one inbound command and returns the replies. Successful transitions reply with
// the new state.
func (h *WSHandler) handle(ctx context.Context, evaluation *app.Evaluation, inbound inboundMessage) []outboundMessage[any] {
	var err error
	switch inbound.Type {
	case "start":
		err = evaluation.Start(ctx)
	case "back":
		err = evaluation.Back(ctx)
	case "propertyInfo":
		var info domain.PropertyInfo
		if err := json.Unmarshal(inbound.Payload, &info); err != nil {
			return []outboundMessage[any]{errorMessage("invalid propertyInfo payload")}
		}
		err = evaluation.SavePropertyInfo(ctx, info)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return []outboundMessage[any]{errorMessage("invalid answer payload")}
		}
		err = evaluation.Answer(ctx, payload.AnswerID)
	case "next":
		err = evaluation.Next(ctx)
	case "previous":
		err = evaluation.Previous(ctx)
	case "skip":
		err = evaluation.Skip(ctx)
	case "restart":
		err = evaluation.Restart(ctx)
	case "resume":
		err = evaluation.Resume(ctx)
	case "startFresh":
		evaluation.StartFresh(ctx)
	case "report":
		var payload reportPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				return []outboundMessage[any]{errorMessage("invalid report payload")}
			}
		}
		text, err := evaluation.Report(payload.Label)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err.Error())}
		}
		return []outboundMessage[any]{{Type: "report", Payload: reportTextPayload{Text: text}}}
	default:
		return []outboundMessage[any]{errorMessage("unsupported message type")}
	}

	var invalid domain.ValidationErrors
	switch {
	case errors.As(err, &invalid):
		return []outboundMessage[any]{{Type: "validationError", Payload: validationPayload{Fields: invalid}}}
	case err != nil:
		return []outboundMessage[any]{errorMessage(err.Error())}
	}
	return []outboundMessage[any]{{Type: "state", Payload: evaluation.State()}}
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
