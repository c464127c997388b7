package ingest

import "testing"

func TestParseTopic(t *testing.T) {
	tests := []struct {
		topic   string
		handler string
		orgID   string
	}{
		{"lt/org-1/segment", "segment", "org-1"},
		{"lt/org-1/call_start", "call_start", "org-1"},
		{"lt/org-1/call_end", "call_end", "org-1"},
		{"custom/prefix/org-2/segment", "segment", "org-2"},
		{"lt/org-1/unknown", "", ""},
		{"segment", "", ""},
		{"lt//segment", "", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			route := ParseTopic(tt.topic)
			if tt.handler == "" {
				if route != nil {
					t.Fatalf("ParseTopic(%q) = %+v, want nil", tt.topic, route)
				}
				return
			}
			if route == nil {
				t.Fatalf("ParseTopic(%q) = nil, want handler %q", tt.topic, tt.handler)
			}
			if route.Handler != tt.handler {
				t.Errorf("handler = %q, want %q", route.Handler, tt.handler)
			}
			if route.OrgID != tt.orgID {
				t.Errorf("org id = %q, want %q", route.OrgID, tt.orgID)
			}
		})
	}
}
