package httpdto

type RoomRequest struct {
	Room   string `json:"room" binding:"required"`
	VCRoom string `json:"vc_room" binding:"required"`
	Force  bool   `json:"force"`
}

type RoomStatusResponse struct {
	RoomName  string `json:"room_name"`
	Endpoint  string `json:"endpoint"`
	Connected bool   `json:"connected"`
	EventName string `json:"event_name,omitempty"`
}
