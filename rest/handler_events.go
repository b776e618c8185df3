package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stitchwork/stitch/event"
	"github.com/stitchwork/stitch/logger"
	"github.com/stitchwork/stitch/model"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleExecutionEvents streams one execution's lifecycle events over a
// websocket until the client disconnects.
func (s *Server) HandleExecutionEvents(w http.ResponseWriter, r *http.Request) {
	s.streamEvents(w, r, event.ExecutionChannel(mux.Vars(r)["id"]))
}

// HandleWorkflowEvents streams every run of one workflow, for dashboard
// viewers.
func (s *Server) HandleWorkflowEvents(w http.ResponseWriter, r *http.Request) {
	s.streamEvents(w, r, event.WorkflowChannel(mux.Vars(r)["id"]))
}

func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", zap.String("channel", channel), zap.Error(err))
		return
	}
	outbound := make(chan model.Event, 64)
	unsubscribe, err := s.bus.Subscribe(channel, func(ev model.Event) {
		// best-effort: a slow client drops events rather than
		// blocking the bus
		select {
		case outbound <- ev:
		default:
		}
	})
	if err != nil {
		logger.Error("error subscribing to channel", zap.String("channel", channel), zap.Error(err))
		conn.Close()
		return
	}
	defer func() {
		unsubscribe()
		conn.Close()
	}()
	logger.Debug("client subscribed", zap.String("channel", channel))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-outbound:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-closed:
			logger.Debug("client disconnected", zap.String("channel", channel))
			return
		}
	}
}
