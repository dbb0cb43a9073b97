package progress

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scottpeterman/velocitycmdb/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Progress events carry no credentials and the dashboard is served from
	// the same origin in the conventional deployment; broader origins are
	// an operator-configurable concern outside the core.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

// ServeWebSocket upgrades r to a WebSocket connection and streams every
// event published on sub until the summary event has been written, the
// connection fails, or sub is closed. The same Event.Marshal bytes that CLI --json mode writes to
// stdout are written here, so the two consumers never observe divergent
// shapes for the same event.
func ServeWebSocket(w http.ResponseWriter, r *http.Request, sub <-chan Event) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WithOperation("progress.ws").WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for ev := range sub {
		data, err := ev.Marshal()
		if err != nil {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
		if ev.Type == TypeSummary {
			return
		}
	}
}
