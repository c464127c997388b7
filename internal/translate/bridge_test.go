package translate

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/voxbridge/lt-engine/internal/database"
)

func TestBridgeRouter_ResolveCallID(t *testing.T) {
	partner := "bridge-1"
	empty := ""
	dir := &fakeDirectory{legs: map[string]*database.CallLeg{
		"direct-1":   {ID: "direct-1", FlowType: database.FlowDirect},
		"webrtc-1":   {ID: "webrtc-1", FlowType: database.FlowWebRTC},
		"bridge-1":   {ID: "bridge-1", FlowType: database.FlowBridge},
		"cust-1":     {ID: "cust-1", FlowType: database.FlowBridgeCustomer, BridgePartnerID: &partner},
		"cust-nopar": {ID: "cust-nopar", FlowType: database.FlowBridgeCustomer},
		"cust-empty": {ID: "cust-empty", FlowType: database.FlowBridgeCustomer, BridgePartnerID: &empty},
	}}
	r := NewBridgeRouter(dir, zerolog.Nop())

	tests := []struct {
		name   string
		callID string
		want   string
	}{
		{"direct_unchanged", "direct-1", "direct-1"},
		{"webrtc_unchanged", "webrtc-1", "webrtc-1"},
		{"bridge_leg_unchanged", "bridge-1", "bridge-1"},
		{"bridge_customer_resolves_to_partner", "cust-1", "bridge-1"},
		{"bridge_customer_without_partner_unchanged", "cust-nopar", "cust-nopar"},
		{"bridge_customer_empty_partner_unchanged", "cust-empty", "cust-empty"},
		{"unknown_call_unchanged", "missing", "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ResolveCallID(context.Background(), tt.callID)
			if got != tt.want {
				t.Errorf("ResolveCallID(%q) = %q, want %q", tt.callID, got, tt.want)
			}
		})
	}
}
