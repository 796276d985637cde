package audit

import (
	"strings"
	"testing"
)

func TestBuildBaseQuery(t *testing.T) {
	query, args := buildBaseQuery("SELECT COUNT(1)", Filter{Action: ActionExport, EntityID: "e1"})
	if !strings.Contains(query, "action = $1") || !strings.Contains(query, "entity_id = $2") {
		t.Fatalf("unexpected query: %s", query)
	}
	if strings.Contains(query, "entity_type") || strings.Contains(query, "actor_user_id") {
		t.Fatalf("expected empty filters to be skipped: %s", query)
	}
	if len(args) != 2 || args[0] != ActionExport || args[1] != "e1" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestMarshalOptional(t *testing.T) {
	raw, err := marshalOptional(nil)
	if err != nil || raw != nil {
		t.Fatalf("expected nil payload, got %q %v", raw, err)
	}
	raw, err = marshalOptional(map[string]int{"count": 2})
	if err != nil || string(raw) != `{"count":2}` {
		t.Fatalf("unexpected payload %q %v", raw, err)
	}
}
