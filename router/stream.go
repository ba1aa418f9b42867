package router

import (
	"bufio"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// upgrader matches the teacher's router.upgrader: permissive CheckOrigin
// since a provider's dashboard is typically same-host, with a bounded
// handshake so a stalled client doesn't hang the goroutine forever.
var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	CheckOrigin:      func(r *http.Request) bool { return true },
	HandshakeTimeout: 5 * time.Second,
}

// StreamDeviceLogs upgrades to a websocket and relays the most recently
// launched application's stdout/stderr line by line, grounded on the
// teacher's StreamProxy but bridging an AppProcess.OutputReader instead of
// a second websocket connection.
func StreamDeviceLogs(c *gin.Context) {
	udid := c.Param("udid")
	proc, ok := processFor(udid)
	if !ok {
		jsonError(c, "stream_device_logs", "no running application process for "+udid, http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	scanner := bufio.NewScanner(proc.OutputReader())
	for scanner.Scan() {
		if err := conn.WriteMessage(websocket.TextMessage, scanner.Bytes()); err != nil {
			return
		}
	}
}
