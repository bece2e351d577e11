package ravem

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRavem struct {
	mu        sync.Mutex
	status    string
	calls     []string
	operation string
}

func (f *fakeRavem) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/getstatus":
			_, _ = w.Write([]byte(f.status))
		case "/api/videoconference/connect", "/api/videoconference/disconnect":
			assert.Equal(t, "vc_endpoint", r.URL.Query().Get("where"))
			assert.Equal(t, "sip:10.0.0.5", r.URL.Query().Get("value"))
			_, _ = w.Write([]byte(f.operation))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

const (
	statusDisconnected = `{"result": {"vc_endpoint_legacy_ip": "10.0.0.5", "vc_endpoint_vidyo_username": "alice",
		"services": [{"name": "videoconference", "status": 0, "event_name": null}]}}`
	statusConnected42 = `{"result": {"vc_endpoint_legacy_ip": "10.0.0.5", "vc_endpoint_vidyo_username": "alice",
		"services": [{"name": "videoconference", "status": 1, "event_name": "42"}]}}`
)

func TestGetEndpointStatus(t *testing.T) {
	f := &fakeRavem{status: statusConnected42}
	c, _ := newTestClient(t, f.handler(t))

	status, err := c.GetEndpointStatus(context.Background(), "513-R-070")
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, "42", status.EventName)
	assert.Equal(t, "sip:10.0.0.5", status.Endpoint)
}

func TestGetEndpointStatusRejected(t *testing.T) {
	f := &fakeRavem{status: `{"error": "unknown room"}`}
	c, _ := newTestClient(t, f.handler(t))

	_, err := c.GetEndpointStatus(context.Background(), "nowhere")
	assert.True(t, IsReason(err, ReasonRejected))
}

func TestConnectRoom(t *testing.T) {
	f := &fakeRavem{status: statusDisconnected, operation: `{"result": "OK"}`}
	c, _ := newTestClient(t, f.handler(t))

	require.NoError(t, c.ConnectRoom(context.Background(), "513-R-070", "42", false))
	assert.Equal(t, []string{"/api/getstatus", "/api/videoconference/connect"}, f.calls)
}

func TestConnectRoomAlreadyConnected(t *testing.T) {
	f := &fakeRavem{status: statusConnected42}
	c, _ := newTestClient(t, f.handler(t))

	err := c.ConnectRoom(context.Background(), "513-R-070", "42", false)
	assert.True(t, IsReason(err, ReasonAlreadyConnected))
	assert.ErrorIs(t, err, ErrRavem)
}

func TestConnectRoomConnectedElsewhere(t *testing.T) {
	f := &fakeRavem{status: statusConnected42, operation: `{"result": "OK"}`}
	c, _ := newTestClient(t, f.handler(t))

	err := c.ConnectRoom(context.Background(), "513-R-070", "7", false)
	assert.True(t, IsReason(err, ReasonConnectedOther))

	f.calls = nil
	require.NoError(t, c.ConnectRoom(context.Background(), "513-R-070", "7", true))
	assert.Equal(t, []string{"/api/getstatus", "/api/videoconference/disconnect", "/api/videoconference/connect"}, f.calls)
}

func TestDisconnectRoom(t *testing.T) {
	f := &fakeRavem{status: statusDisconnected}
	c, _ := newTestClient(t, f.handler(t))
	err := c.DisconnectRoom(context.Background(), "513-R-070", "42", false)
	assert.True(t, IsReason(err, ReasonAlreadyDisconnected))

	f.status = statusConnected42
	f.operation = `{"error": "endpoint busy"}`
	err = c.DisconnectRoom(context.Background(), "513-R-070", "42", false)
	assert.True(t, IsReason(err, ReasonRejected))

	f.operation = `{"result": "OK"}`
	require.NoError(t, c.DisconnectRoom(context.Background(), "513-R-070", "42", false))
}
