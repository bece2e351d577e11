package ravem

import "fmt"

const (
	keyLegacyIP      = "vc_endpoint_legacy_ip"
	keyVidyoUsername = "vc_endpoint_vidyo_username"
)

// RoomEndpoint picks the endpoint used to address a room: the legacy IP
// endpoint, prefixed, when one is set, otherwise the Vidyo username.
func RoomEndpoint(prefix string, endpoints map[string]string) string {
	if ip := endpoints[keyLegacyIP]; ip != "" {
		return prefix + ip
	}
	return endpoints[keyVidyoUsername]
}

// RoomEndpoint resolves endpoints with the configured prefix.
func (c *Client) RoomEndpoint(endpoints map[string]string) string {
	return RoomEndpoint(c.cfg.Prefix, endpoints)
}

// stringFields flattens the scalar members of a decoded JSON object.
func stringFields(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		case bool, float64:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
