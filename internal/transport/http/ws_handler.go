package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"exam-drill-service/internal/app"
	"exam-drill-service/internal/domain"
	"exam-drill-service/internal/engine"
	"exam-drill-service/internal/input"
)

type WSHandler struct {
	service  *app.SessionService
	gestures input.Config
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService, gestures input.Config) *WSHandler {
	return &WSHandler{
		service:  service,
		gestures: gestures,
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

type keyPayload struct {
	Key string `json:"key"`
}

type wheelPayload struct {
	DeltaY   float64        `json:"deltaY"`
	Viewport input.Viewport `json:"viewport"`
}

type touchPayload struct {
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Viewport input.Viewport `json:"viewport"`
}

type clipboardPayload struct {
	Text string `json:"text"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and streams one session to the client.
// Raw input events are routed through a per-connection gesture router.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}
	session, err := h.service.Session(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	router := input.NewRouter(session, h.gestures)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		finishedSent := false
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				msgs := []outboundMessage[any]{{Type: "state", Payload: update}}
				if update.Result != nil && !finishedSent {
					finishedSent = true
					msgs = append(msgs, outboundMessage[any]{Type: "finished", Payload: *update.Result})
				}
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}
	replyErr := func(err error) {
		if err == nil {
			return
		}
		typ := "error"
		if errors.Is(err, domain.ErrSelectionIncomplete) {
			typ = "notice"
		}
		reply(outboundMessage[any]{Type: typ, Payload: errorBody(err)})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "command":
			var cmd engine.Command
			if err := json.Unmarshal(inbound.Payload, &cmd); err != nil {
				replyErr(errors.New("invalid command payload"))
				continue
			}
			_, err := h.service.Dispatch(r.Context(), sessionID, cmd)
			replyErr(err)
		case "key":
			var payload keyPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				replyErr(errors.New("invalid key payload"))
				continue
			}
			res := router.HandleKey(payload.Key)
			if res.Copied != "" {
				reply(outboundMessage[any]{Type: "clipboard", Payload: clipboardPayload{Text: res.Copied}})
			}
			replyErr(res.Err)
		case "wheel":
			var payload wheelPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				replyErr(errors.New("invalid wheel payload"))
				continue
			}
			_, err := router.HandleWheel(payload.DeltaY, payload.Viewport)
			replyErr(err)
		case "touchStart", "touchMove", "touchEnd":
			var payload touchPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				replyErr(errors.New("invalid touch payload"))
				continue
			}
			switch inbound.Type {
			case "touchStart":
				router.TouchStart(payload.X, payload.Y)
			case "touchMove":
				reply(outboundMessage[any]{Type: "feedback", Payload: router.TouchMove(payload.X, payload.Y, payload.Viewport)})
			case "touchEnd":
				_, err := router.TouchEnd(payload.X, payload.Y, payload.Viewport)
				reply(outboundMessage[any]{Type: "feedback", Payload: input.Feedback{}})
				replyErr(err)
			}
		default:
			replyErr(errors.New("unsupported message type"))
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
