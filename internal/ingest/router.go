package ingest

import "strings"

// Route describes a parsed MQTT topic.
type Route struct {
	Handler string // "segment", "call_start", "call_end"
	OrgID   string
}

// ParseTopic maps an MQTT topic string to a Route.
//
// Routing is based on the trailing segments of the topic. The prefix is
// ignored, so any topic prefix works as long as MQTT_TOPICS is set to match.
//
//	.../{org_id}/segment    → segment
//	.../{org_id}/call_start → call_start
//	.../{org_id}/call_end   → call_end
func ParseTopic(topic string) *Route {
	parts := strings.Split(topic, "/")
	n := len(parts)
	if n < 2 {
		return nil
	}

	last := parts[n-1]
	switch last {
	case "segment", "call_start", "call_end":
		org := parts[n-2]
		if org == "" {
			return nil
		}
		return &Route{Handler: last, OrgID: org}
	}

	return nil
}
