package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"study-session-engine/internal/app"
	"study-session-engine/internal/auth"
	"study-session-engine/internal/domain"
)

// SessionHandler drives one session engine per websocket connection. The
// client owns pacing: it sends explicit events (start, answer, advance,
// retreat, finish, abandon) and reacts to the results, so state transitions
// never depend on rendering timing.
type SessionHandler struct {
	questions  app.QuestionRepository
	history    *app.HistoryStore
	identity   *auth.Adapter
	timedLimit time.Duration
	upgrader   websocket.Upgrader
}

func NewSessionHandler(questions app.QuestionRepository, history *app.HistoryStore, identity *auth.Adapter, timedLimit time.Duration) *SessionHandler {
	return &SessionHandler{
		questions:  questions,
		history:    history,
		identity:   identity,
		timedLimit: timedLimit,
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

type startPayload struct {
	Topic string `json:"topic"`
	Mode  string `json:"mode"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Choice     []int  `json:"choice"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// questionView is the client-facing question shape. Correct indices and
// explanations stay server-side until the summary.
type questionView struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Topic   string   `json:"topic"`
}

type questionEvent struct {
	Question    questionView `json:"question"`
	Index       int          `json:"index"`
	Total       int          `json:"total"`
	Answered    int          `json:"answered"`
	Progress    float64      `json:"progress"`
	ElapsedMs   int64        `json:"elapsedMs"`
	RemainingMs int64        `json:"remainingMs,omitempty"`
}

type answerRecordedEvent struct {
	QuestionID string `json:"questionId"`
	Answered   int    `json:"answered"`
	Total      int    `json:"total"`
}

type positionEvent struct {
	Index int  `json:"index"`
	Total int  `json:"total"`
	AtEnd bool `json:"atEnd"`
}

type summaryEvent struct {
	Summary domain.SessionSummary `json:"summary"`
	Stored  bool                  `json:"stored"`
	Warning string                `json:"warning,omitempty"`
}

// ServeWS upgrades the request and runs the session event loop. One
// goroutine per connection drives one engine at a time; there is no shared
// state between connections.
func (h *SessionHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var engine *app.Engine

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if engine != nil {
				// Dropped connection mid-attempt: the session is
				// abandoned, never committed.
				_ = engine.Abandon()
			}
			return
		}

		switch inbound.Type {
		case "start":
			engine = h.handleStart(r.Context(), conn, engine, inbound.Payload)
		case "answer":
			h.handleAnswer(conn, engine, inbound.Payload)
		case "advance":
			h.handleAdvance(conn, engine)
		case "retreat":
			h.handleRetreat(conn, engine)
		case "finish":
			engine = h.handleFinish(r.Context(), conn, engine)
		case "abandon":
			engine = h.handleAbandon(conn, engine)
		default:
			writeError(conn, "unsupported message type")
		}
	}
}

func (h *SessionHandler) handleStart(ctx context.Context, conn *websocket.Conn, engine *app.Engine, raw json.RawMessage) *app.Engine {
	if engine != nil {
		writeError(conn, "session already in progress")
		return engine
	}

	var payload startPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			writeError(conn, "invalid start payload")
			return nil
		}
	}

	mode := domain.ModePractice
	if payload.Mode == string(domain.ModeTimed) {
		mode = domain.ModeTimed
	}

	questions, err := h.questions.GetQuestions(ctx, payload.Topic, mode)
	if err != nil {
		writeError(conn, err.Error())
		return nil
	}

	limit := time.Duration(0)
	if mode == domain.ModeTimed {
		limit = h.timedLimit
	}
	started, err := app.StartSession(questions, mode, h.identity, limit)
	if err != nil {
		writeError(conn, err.Error())
		return nil
	}
	h.writeQuestion(conn, started)
	return started
}

func (h *SessionHandler) handleAnswer(conn *websocket.Conn, engine *app.Engine, raw json.RawMessage) {
	if engine == nil {
		writeError(conn, "no session in progress")
		return
	}
	var payload answerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		writeError(conn, "invalid answer payload")
		return
	}
	if err := engine.SubmitAnswer(payload.QuestionID, payload.Choice); err != nil {
		writeError(conn, err.Error())
		return
	}
	session := engine.Session()
	writeJSON(conn, outboundMessage[answerRecordedEvent]{Type: "answerRecorded", Payload: answerRecordedEvent{
		QuestionID: payload.QuestionID,
		Answered:   len(session.Answers),
		Total:      len(session.Questions),
	}})
}

func (h *SessionHandler) handleAdvance(conn *websocket.Conn, engine *app.Engine) {
	if engine == nil {
		writeError(conn, "no session in progress")
		return
	}
	if engine.Advance() {
		h.writeQuestion(conn, engine)
		return
	}
	// Past the last question: the client's cue to send finish.
	total := len(engine.Session().Questions)
	writeJSON(conn, outboundMessage[positionEvent]{Type: "position", Payload: positionEvent{
		Index: engine.Index(),
		Total: total,
		AtEnd: true,
	}})
}

func (h *SessionHandler) handleRetreat(conn *websocket.Conn, engine *app.Engine) {
	if engine == nil {
		writeError(conn, "no session in progress")
		return
	}
	engine.Retreat()
	h.writeQuestion(conn, engine)
}

func (h *SessionHandler) handleFinish(ctx context.Context, conn *websocket.Conn, engine *app.Engine) *app.Engine {
	if engine == nil {
		writeError(conn, "no session in progress")
		return nil
	}

	summary, err := engine.Finish()
	if errors.Is(err, domain.ErrIdentityChanged) {
		writeError(conn, err.Error())
		writeJSON(conn, outboundMessage[struct{}]{Type: "abandoned"})
		return nil
	}
	if err != nil {
		writeError(conn, err.Error())
		return engine
	}

	event := summaryEvent{Summary: summary, Stored: true}
	if err := h.history.Append(ctx, engine.Owner(), summary); err != nil {
		// Persistence is down but the result is still valid; the user
		// keeps their summary and a visible warning.
		log.Printf("history append: %v", err)
		event.Stored = false
		event.Warning = "could not save to history"
	}
	writeJSON(conn, outboundMessage[summaryEvent]{Type: "summary", Payload: event})
	return nil
}

func (h *SessionHandler) handleAbandon(conn *websocket.Conn, engine *app.Engine) *app.Engine {
	if engine == nil {
		writeError(conn, "no session in progress")
		return nil
	}
	if err := engine.Abandon(); err != nil {
		writeError(conn, err.Error())
		return engine
	}
	writeJSON(conn, outboundMessage[struct{}]{Type: "abandoned"})
	return nil
}

func (h *SessionHandler) writeQuestion(conn *websocket.Conn, engine *app.Engine) {
	q := engine.Current()
	session := engine.Session()
	event := questionEvent{
		Question: questionView{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Options: q.Options,
			Topic:   q.Topic,
		},
		Index:     engine.Index(),
		Total:     len(session.Questions),
		Answered:  len(session.Answers),
		Progress:  engine.Progress(),
		ElapsedMs: engine.Elapsed().Milliseconds(),
	}
	if session.Mode == domain.ModeTimed {
		event.RemainingMs = engine.Remaining().Milliseconds()
	}
	writeJSON(conn, outboundMessage[questionEvent]{Type: "question", Payload: event})
}

func writeError(conn *websocket.Conn, message string) {
	writeJSON(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}})
}

func writeJSON[T any](conn *websocket.Conn, msg outboundMessage[T]) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("ws write error: %v", err)
	}
}
