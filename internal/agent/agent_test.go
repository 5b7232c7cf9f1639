package agent

import (
	"log/slog"
	"testing"

	"github.com/sakura-ramen/voice-agent/internal/tools"
)

func testRegistry() *Registry {
	info := tools.RestaurantInfo{Name: "Sakura Ramen House", Phone: "+65 6877 9888", Address: "78 Boat Quay"}
	ts := tools.New(nil, info, 8, slog.New(slog.DiscardHandler))
	return BuildRestaurantAgents(ts, info)
}

func TestBuildRestaurantAgents(t *testing.T) {
	r := testRegistry()

	router := r.Entry()
	if router.Name != RouterName {
		t.Fatalf("entry agent = %q, want %q", router.Name, RouterName)
	}

	for _, name := range []string{RouterName, ReservationName, InfoName} {
		if r.Get(name) == nil {
			t.Errorf("agent %q not registered", name)
		}
	}

	// Back-edges: every specialist can reach the router.
	for _, name := range []string{ReservationName, InfoName} {
		a := r.Get(name)
		found := false
		for _, h := range a.Handoffs {
			if h == router {
				found = true
			}
		}
		if !found {
			t.Errorf("%q has no handoff back to the router", name)
		}
	}
}

func TestHandoffToolName(t *testing.T) {
	a := &Agent{Name: "Reservation Specialist"}
	if got := a.HandoffToolName(); got != "transfer_to_reservation_specialist" {
		t.Errorf("HandoffToolName() = %q", got)
	}
}

func TestHandoffTools(t *testing.T) {
	r := testRegistry()
	router := r.Entry()

	handoffs := router.HandoffTools()
	if len(handoffs) != 2 {
		t.Fatalf("router has %d handoff tools, want 2", len(handoffs))
	}
	for _, h := range handoffs {
		if h.Run != nil {
			t.Errorf("handoff tool %q has a Run func; transfers must be intercepted, not executed", h.Name)
		}
		if !IsHandoffTool(h.Name) {
			t.Errorf("IsHandoffTool(%q) = false", h.Name)
		}
	}

	all := router.AllTools()
	if len(all) != len(router.Tools)+2 {
		t.Errorf("AllTools() = %d tools, want %d", len(all), len(router.Tools)+2)
	}
}

func TestIsHandoffTool(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"transfer_to_reservation_specialist", true},
		{"handoff_to_info", true},
		{"route_to_specialist", true},
		{"make_reservation", false},
		{"get_menu_info", false},
	}

	for _, tt := range tests {
		if got := IsHandoffTool(tt.name); got != tt.want {
			t.Errorf("IsHandoffTool(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsRouterTransfer(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"transfer_to_ramen_assistant", true},
		{"transfer_to_ramenassistant", true},
		{"transfer_to_main", true},
		{"routing_agent_transfer", true},
		{"transfer_to_reservation_specialist", false},
	}

	for _, tt := range tests {
		if got := IsRouterTransfer(tt.name); got != tt.want {
			t.Errorf("IsRouterTransfer(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHandoffTarget(t *testing.T) {
	r := testRegistry()
	router := r.Entry()

	if got := router.HandoffTarget("transfer_to_reservation_specialist"); got == nil || got.Name != ReservationName {
		t.Errorf("exact handoff target = %v", got)
	}

	// The model sometimes embellishes the tool name.
	if got := router.HandoffTarget("transfer_to_the_reservation_specialist_now"); got == nil || got.Name != ReservationName {
		t.Errorf("fuzzy handoff target = %v", got)
	}

	if got := router.HandoffTarget("transfer_to_billing"); got != nil {
		t.Errorf("unknown target resolved to %q", got.Name)
	}
}

func TestFindTool(t *testing.T) {
	r := testRegistry()
	res := r.Get(ReservationName)

	if res.FindTool("make_reservation") == nil {
		t.Error("make_reservation not found on reservation specialist")
	}
	if res.FindTool("transfer_to_ramen_assistant") != nil {
		t.Error("FindTool returned a handoff tool")
	}
}
