// Package ws exposes the game engine over a websocket, so the quiz can be
// played from a browser during development without a Telegram account.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/jee-key/brain-blast-bot/internal/domain"
	"github.com/jee-key/brain-blast-bot/internal/game"
)

// QuestionProvider supplies a fresh question for a new round.
type QuestionProvider interface {
	Fetch(ctx context.Context) (domain.Question, error)
}

// Handler upgrades connections and wires them into the engine. It doubles as
// the engine's Notifier: countdown messages are routed to the player's
// connection by chat id.
type Handler struct {
	engine   *game.Engine
	provider QuestionProvider
	upgrader websocket.Upgrader

	nextID atomic.Int64
	mu     sync.RWMutex
	conns  map[int64]chan outboundMessage[any]
}

func NewHandler(provider QuestionProvider) *Handler {
	return &Handler{
		provider: provider,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[int64]chan outboundMessage[any]),
	}
}

// Bind attaches the engine. Needed after construction because the engine takes
// this handler as its notifier.
func (h *Handler) Bind(engine *game.Engine) { h.engine = engine }

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type answerPayload struct {
	Text string `json:"text"`
}

type notificationPayload struct {
	Text    string       `json:"text"`
	Buttons []buttonView `json:"buttons,omitempty"`
	Photo   string       `json:"photo,omitempty"`
}

type buttonView struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

type questionView struct {
	Text      string   `json:"text"`
	Metadata  string   `json:"metadata,omitempty"`
	URL       string   `json:"url,omitempty"`
	ImageURLs []string `json:"imageUrls,omitempty"`
}

type resultPayload struct {
	Outcome string `json:"outcome"`
	Answer  string `json:"answer,omitempty"`
	Comment string `json:"comment,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// SendText implements game.Notifier.
func (h *Handler) SendText(_ context.Context, chatID int64, text string, buttons ...game.Button) error {
	views := make([]buttonView, 0, len(buttons))
	for _, b := range buttons {
		views = append(views, buttonView{Label: b.Label, Data: b.Data})
	}
	return h.push(chatID, outboundMessage[any]{Type: "notification", Payload: notificationPayload{Text: text, Buttons: views}})
}

// SendPhoto implements game.Notifier.
func (h *Handler) SendPhoto(_ context.Context, chatID int64, url, caption string) error {
	return h.push(chatID, outboundMessage[any]{Type: "notification", Payload: notificationPayload{Text: caption, Photo: url}})
}

func (h *Handler) push(chatID int64, msg outboundMessage[any]) error {
	h.mu.RLock()
	send, ok := h.conns[chatID]
	h.mu.RUnlock()
	if !ok {
		// The player disconnected; the round state stays authoritative anyway.
		return nil
	}
	select {
	case send <- msg:
	default:
		log.Printf("[ws] dropping notification for slow player %d", chatID)
	}
	return nil
}

// ServeWS upgrades the request and speaks the playground protocol: inbound
// question/answer/reveal/rating messages, outbound notifications and results.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}
	mode := domain.ParseMode(r.URL.Query().Get("mode"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	playerID := h.nextID.Add(1)
	send := make(chan outboundMessage[any], 16)
	h.mu.Lock()
	h.conns[playerID] = send
	h.mu.Unlock()

	// The send channel is never closed: the countdown goroutine may still hold
	// a reference through the notifier. The writer exits via readDone instead.
	readDone := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("[ws] write error: %v", err)
					return
				}
			case <-readDone:
				return
			}
		}
	}()

	out := outbox{send: send, writerDone: writerDone}
	out.push(outboundMessage[any]{Type: "joined", Payload: map[string]any{"playerId": playerID, "mode": string(mode)}})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r.Context(), playerID, name, mode, inbound, out)
	}

	h.mu.Lock()
	delete(h.conns, playerID)
	h.mu.Unlock()
	h.engine.StopRound(playerID)

	close(readDone)
	<-writerDone
}

// outbox couples the per-connection send channel with the writer's lifetime:
// once the writer exits, pushes are dropped instead of blocking the read loop
// on a full buffer.
type outbox struct {
	send       chan outboundMessage[any]
	writerDone chan struct{}
}

func (o outbox) push(msg outboundMessage[any]) {
	select {
	case o.send <- msg:
	case <-o.writerDone:
	}
}

func (h *Handler) dispatch(ctx context.Context, playerID int64, name string, mode domain.Mode, inbound inboundMessage, out outbox) {
	switch inbound.Type {
	case "question":
		h.startRound(ctx, playerID, mode, out)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || strings.TrimSpace(payload.Text) == "" {
			out.push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
			return
		}
		res := h.engine.SubmitAnswer(ctx, playerID, name, payload.Text)
		result := resultPayload{Outcome: res.Outcome.String()}
		if res.Outcome == domain.OutcomeCorrect || res.Outcome == domain.OutcomeLateCorrect {
			result.Answer = res.Correct
			result.Comment = res.Comment
		}
		out.push(outboundMessage[any]{Type: "result", Payload: result})
	case "reveal":
		answer, comment, err := h.engine.RevealAnswer(playerID, "")
		if err != nil {
			out.push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		out.push(outboundMessage[any]{Type: "reveal", Payload: resultPayload{Answer: answer, Comment: comment}})
	case "rating":
		top, err := h.engine.Top(ctx, 5)
		if err != nil {
			out.push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		out.push(outboundMessage[any]{Type: "rating", Payload: top})
	default:
		out.push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
	}
}

func (h *Handler) startRound(ctx context.Context, playerID int64, mode domain.Mode, out outbox) {
	q, err := h.provider.Fetch(ctx)
	if err != nil {
		log.Printf("[ws] fetch question for player %d: %v", playerID, err)
		out.push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "question unavailable, try again later"}})
		return
	}
	if _, err := h.engine.StartRound(ctx, playerID, playerID, q, mode); err != nil {
		out.push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "question unavailable, try again later"}})
		return
	}
	out.push(outboundMessage[any]{Type: "question", Payload: questionView{
		Text:      q.Text,
		Metadata:  q.MetadataText(),
		URL:       q.URL,
		ImageURLs: q.ImageURLs,
	}})
}
