// Package notify tells a listener which files were just synced, so that a
// running application can hot reload them.
package notify

import (
	"context"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/artsync/pkg/errors"
)

const defaultTimeout = 5 * time.Second

// Notifier announces a completed sync.
type Notifier interface {
	Notify(ctx context.Context, paths []string) error
}

// Websocket sends a single text message to a websocket endpoint.
type Websocket struct {
	// Endpoint is the websocket URL, e.g. ws://localhost:9001.
	Endpoint string

	// Prefix is prepended to the message, separated by a space.
	Prefix string

	// Timeout bounds the whole exchange. Defaults to 5 seconds.
	Timeout time.Duration
}

// NewWebsocket returns a Websocket notifier for `endpoint`.
func NewWebsocket(endpoint, prefix string) *Websocket {
	return &Websocket{Endpoint: endpoint, Prefix: prefix, Timeout: defaultTimeout}
}

// Message returns the text that's sent for `paths`.
func (w *Websocket) Message(paths []string) string {
	msg := strings.Join(paths, " ")
	if w.Prefix == "" {
		return msg
	}
	if msg == "" {
		return w.Prefix
	}
	return w.Prefix + " " + msg
}

// Notify implements Notifier.
func (w *Websocket) Notify(ctx context.Context, paths []string) error {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, w.Endpoint, nil)
	if err != nil {
		return errors.NotifyFailure{Endpoint: w.Endpoint, Err: errors.WithContext(err, "dial")}
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return errors.NotifyFailure{Endpoint: w.Endpoint, Err: errors.WithContext(err, "set deadline")}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(w.Message(paths))); err != nil {
		return errors.NotifyFailure{Endpoint: w.Endpoint, Err: errors.WithContext(err, "write")}
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		log.WithError(err).Debug("Failed to close notification socket cleanly")
	}
	return nil
}

// BestEffort sends the notification and logs any failure. It never fails.
func BestEffort(ctx context.Context, n Notifier, paths []string) bool {
	if err := n.Notify(ctx, paths); err != nil {
		log.WithError(err).Warn("Failed to notify sync listener")
		return false
	}
	return true
}
