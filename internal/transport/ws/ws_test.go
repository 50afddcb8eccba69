package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memConn struct{ got []Message }

func (m *memConn) Send(msg Message) error { m.got = append(m.got, msg); return nil }
func (m *memConn) Close() error           { return nil }

func TestHub_PublishReachesSubscribers(t *testing.T) {
	h := NewHub()
	h.now = func() time.Time { return time.Unix(1700000000, 0) }
	a, b := &memConn{}, &memConn{}
	h.Add(a)
	h.Add(b)
	h.Remove(b)

	h.Publish(TypeAudit, "✅ Assigned")

	require.Len(t, a.got, 1)
	assert.Empty(t, b.got)
	assert.Equal(t, TypeAudit, a.got[0].Type)
	assert.Equal(t, AuditPayload{Text: "✅ Assigned", TSUnix: 1700000000}, a.got[0].Payload)
}

func TestServer_StreamsAuditEvents(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(NewServer(hub).HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello struct {
		Type    string       `json:"type"`
		Payload HelloPayload `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, TypeHello, hello.Type)
	assert.Equal(t, 1, hello.Payload.Subscribers)

	hub.Publish(TypeAudit, "🆕 New user registered")

	var ev struct {
		Type    string       `json:"type"`
		Payload AuditPayload `json:"payload"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, TypeAudit, ev.Type)
	assert.Equal(t, "🆕 New user registered", ev.Payload.Text)
}
