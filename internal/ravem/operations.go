package ravem

import (
	"context"
	"fmt"
	"net/http"
)

const serviceVideoconference = "videoconference"

// EndpointStatus is the videoconference state of a room as reported by
// getstatus.
type EndpointStatus struct {
	RoomName  string
	Endpoint  string
	Connected bool
	// EventName is the videoconference room the endpoint is connected to.
	EventName string
}

// GetEndpointStatus asks RAVEM for the status of the room's endpoint.
func (c *Client) GetEndpointStatus(ctx context.Context, roomName string) (EndpointStatus, error) {
	resp, err := c.APICall(ctx, "getstatus", http.MethodGet, map[string]string{
		"where": "room_name",
		"value": roomName,
	})
	if err != nil {
		return EndpointStatus{}, err
	}
	if msg, ok := resp["error"]; ok {
		return EndpointStatus{}, &OperationError{
			Message: fmt.Sprintf("failed to get status of room %s: %v", roomName, msg),
			Reason:  ReasonRejected,
		}
	}
	result, ok := resp["result"].(map[string]interface{})
	if !ok {
		return EndpointStatus{}, &OperationError{
			Message: fmt.Sprintf("unexpected status payload for room %s", roomName),
			Reason:  ReasonUnexpected,
		}
	}

	status := EndpointStatus{
		RoomName: roomName,
		Endpoint: c.RoomEndpoint(stringFields(result)),
	}
	services, _ := result["services"].([]interface{})
	for _, raw := range services {
		svc, ok := raw.(map[string]interface{})
		if !ok || svc["name"] != serviceVideoconference {
			continue
		}
		fields := stringFields(svc)
		status.Connected = fields["status"] == "1" || fields["status"] == "true"
		status.EventName = fields["event_name"]
	}
	return status, nil
}

// ConnectRoom connects the room's endpoint to the videoconference vcRoom.
// With force, a room connected to another videoconference is disconnected
// first.
func (c *Client) ConnectRoom(ctx context.Context, roomName, vcRoom string, force bool) error {
	status, err := c.GetEndpointStatus(ctx, roomName)
	if err != nil {
		return err
	}
	if status.Connected {
		if status.EventName == vcRoom {
			return &OperationError{
				Message: fmt.Sprintf("room %s is already connected to %s", roomName, vcRoom),
				Reason:  ReasonAlreadyConnected,
			}
		}
		if !force {
			return &OperationError{
				Message: fmt.Sprintf("room %s is connected to another videoconference (%s)", roomName, status.EventName),
				Reason:  ReasonConnectedOther,
			}
		}
		if err := c.disconnect(ctx, status, status.EventName); err != nil {
			return err
		}
	}
	return c.operate(ctx, "videoconference/connect", roomName, status.Endpoint, vcRoom)
}

// DisconnectRoom disconnects the room's endpoint from vcRoom. With force the
// room is disconnected whatever it is connected to.
func (c *Client) DisconnectRoom(ctx context.Context, roomName, vcRoom string, force bool) error {
	status, err := c.GetEndpointStatus(ctx, roomName)
	if err != nil {
		return err
	}
	if !status.Connected {
		return &OperationError{
			Message: fmt.Sprintf("room %s is not connected to a videoconference", roomName),
			Reason:  ReasonAlreadyDisconnected,
		}
	}
	if status.EventName != vcRoom && !force {
		return &OperationError{
			Message: fmt.Sprintf("room %s is connected to another videoconference (%s)", roomName, status.EventName),
			Reason:  ReasonConnectedOther,
		}
	}
	return c.disconnect(ctx, status, status.EventName)
}

func (c *Client) disconnect(ctx context.Context, status EndpointStatus, vcRoom string) error {
	return c.operate(ctx, "videoconference/disconnect", status.RoomName, status.Endpoint, vcRoom)
}

func (c *Client) operate(ctx context.Context, endpoint, roomName, roomEndpoint, vcRoom string) error {
	resp, err := c.APICall(ctx, endpoint, http.MethodPost, map[string]string{
		"where":         "vc_endpoint",
		"value":         roomEndpoint,
		"vidyo_room_id": vcRoom,
	})
	if err != nil {
		return err
	}
	if msg, ok := resp["error"]; ok {
		return &OperationError{
			Message: fmt.Sprintf("%s failed for room %s: %v", endpoint, roomName, msg),
			Reason:  ReasonRejected,
		}
	}
	if resp["result"] != "OK" {
		return &OperationError{
			Message: fmt.Sprintf("%s for room %s returned %v", endpoint, roomName, resp["result"]),
			Reason:  ReasonUnexpected,
		}
	}
	return nil
}
