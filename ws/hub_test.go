package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/lectern/models"
)

type stubValidator struct{}

func (stubValidator) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	if !strings.HasPrefix(token, "user-") {
		return nil, errors.New("bad token")
	}
	return &models.TokenClaims{UserID: token, Username: token}, nil
}

// allow lets user-1 into course-a only; course-err fails the lookup.
func allow(_ context.Context, userID, courseID string) (bool, error) {
	if courseID == "course-err" {
		return false, errors.New("db down")
	}
	return userID == "user-1" && courseID == "course-a", nil
}

func startServer(t *testing.T) (*Hub, string) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	hub := NewHub(allow, logger)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, stubValidator{}, nil).HandleConnection))
	t.Cleanup(func() {
		srv.Close()
		hub.Shutdown()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ev := read(t, conn)
	require.Equal(t, OpReady, ev.Op)
	return conn
}

type received struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
	Seq  int64           `json:"seq"`
}

func read(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev received
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func send(t *testing.T, conn *websocket.Conn, op string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Event{Op: op, Data: data}))
}

func TestRejectsMissingOrInvalidToken(t *testing.T) {
	_, url := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=nope", nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHeartbeat(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url, "user-1")

	send(t, conn, OpHeartbeat, nil)
	assert.Equal(t, OpHeartbeatAck, read(t, conn).Op)
}

func TestSubscribeAndReceiveCourseEvents(t *testing.T) {
	hub, url := startServer(t)
	conn := dial(t, url, "user-1")

	send(t, conn, OpSubscribe, SubscribeData{CourseID: "course-a"})
	ack := read(t, conn)
	require.Equal(t, OpSubscribed, ack.Op)
	assert.Equal(t, 1, hub.SubscriberCount("course-a"))

	hub.BroadcastToCourse("course-b", Event{Op: OpModuleCreate, Data: map[string]string{"id": "other"}})
	hub.BroadcastToCourse("course-a", Event{Op: OpModuleDelete, Data: ModuleDeleteData{ID: "m1", CourseID: "course-a"}})

	ev := read(t, conn)
	assert.Equal(t, OpModuleDelete, ev.Op)
	assert.Greater(t, ev.Seq, ack.Seq)

	var data ModuleDeleteData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, "m1", data.ID)

	send(t, conn, OpUnsubscribe, SubscribeData{CourseID: "course-a"})
	assert.Equal(t, OpUnsubscribed, read(t, conn).Op)
	assert.Equal(t, 0, hub.SubscriberCount("course-a"))
}

func TestSubscribeDenied(t *testing.T) {
	hub, url := startServer(t)
	conn := dial(t, url, "user-2")

	send(t, conn, OpSubscribe, SubscribeData{CourseID: "course-a"})
	ev := read(t, conn)
	assert.Equal(t, OpError, ev.Op)
	assert.Equal(t, 0, hub.SubscriberCount("course-a"))

	send(t, conn, OpSubscribe, SubscribeData{CourseID: "course-err"})
	assert.Equal(t, OpError, read(t, conn).Op)

	send(t, conn, OpSubscribe, map[string]string{})
	assert.Equal(t, OpError, read(t, conn).Op)
}

func TestDisconnectDropsSubscriptions(t *testing.T) {
	hub, url := startServer(t)
	conn := dial(t, url, "user-1")

	send(t, conn, OpSubscribe, SubscribeData{CourseID: "course-a"})
	require.Equal(t, OpSubscribed, read(t, conn).Op)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.SubscriberCount("course-a") == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestBroadcastToUserReachesEveryConnection(t *testing.T) {
	hub, url := startServer(t)
	first := dial(t, url, "user-1")
	second := dial(t, url, "user-1")

	hub.BroadcastToUser("user-1", Event{Op: OpContentDelete, Data: ContentDeleteData{ID: "c1"}})

	assert.Equal(t, OpContentDelete, read(t, first).Op)
	assert.Equal(t, OpContentDelete, read(t, second).Op)
}

func TestBearerHeaderAndOriginAllowlist(t *testing.T) {
	logger, _ := test.NewNullLogger()
	hub := NewHub(allow, logger)
	go hub.Run()
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, stubValidator{}, []string{"http://app.test"}).HandleConnection))
	t.Cleanup(func() {
		srv.Close()
		hub.Shutdown()
	})
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	header := http.Header{}
	header.Set("Authorization", "Bearer user-1")
	header.Set("Origin", "http://app.test")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, OpReady, read(t, conn).Op)

	header.Set("Origin", "http://evil.test")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
