package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/artsync/pkg/errors"
)

// listen starts a websocket server that forwards every received message.
func listen(t *testing.T) (string, <-chan string, func()) {
	received := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %s", err)
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("read: %s", err)
			return
		}
		received <- string(msg)
	}))
	return "ws" + strings.TrimPrefix(server.URL, "http"), received, server.Close
}

func TestWebsocketNotify(t *testing.T) {
	endpoint, received, stop := listen(t)
	defer stop()

	n := NewWebsocket(endpoint, "qproj sent")
	assert.NoError(t, n.Notify(context.Background(), []string{"game.exe", "assets/a.png"}))
	assert.Equal(t, "qproj sent game.exe assets/a.png", <-received)
}

func TestWebsocketNotifyUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := "ws" + strings.TrimPrefix(server.URL, "http")
	server.Close()

	err := NewWebsocket(endpoint, "").Notify(context.Background(), []string{"a"})
	var notifyErr errors.NotifyFailure
	if assert.True(t, errors.As(err, &notifyErr)) {
		assert.Equal(t, endpoint, notifyErr.Endpoint)
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "a b", NewWebsocket("", "").Message([]string{"a", "b"}))
	assert.Equal(t, "sent a", NewWebsocket("", "sent").Message([]string{"a"}))
	assert.Equal(t, "sent", NewWebsocket("", "sent").Message(nil))
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, []string) error {
	return assert.AnError
}

func TestBestEffortLogsFailures(t *testing.T) {
	hook := logrusTest.NewGlobal()
	defer hook.Reset()

	assert.False(t, BestEffort(context.Background(), failingNotifier{}, []string{"a"}))
	if assert.Len(t, hook.Entries, 1) {
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		assert.Equal(t, "Failed to notify sync listener", hook.LastEntry().Message)
	}
}
