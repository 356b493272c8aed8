package wire

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPathEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Path
		want bool
	}{
		{"both empty", Path{}, Path{}, true},
		{"equal", Path{"main", "row"}, Path{"main", "row"}, true},
		{"differing element", Path{"main", "row"}, Path{"main", "col"}, false},
		{"prefix", Path{"main"}, Path{"main", "row"}, false},
		{"longer", Path{"main", "row", "x"}, Path{"main", "row"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Fatalf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestPathClone(t *testing.T) {
	p := Path{"main", "row"}
	q := p.Clone()
	q[1] = "col"
	if p[1] != "row" {
		t.Fatal("Clone must not share backing storage")
	}
}

func TestRequestUnmarshal(t *testing.T) {
	body := `{
		"sessionId": "sess-1",
		"events": [
			{"key": {"eventPath": ["main", "counter", "increment"]}, "data": {"amount": 2}}
		]
	}`

	var req Request
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if req.SessionID != "sess-1" {
		t.Fatalf("sessionId = %q", req.SessionID)
	}
	if len(req.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(req.Events))
	}

	want := Path{"main", "counter", "increment"}
	if diff := cmp.Diff(want, req.Events[0].Key.EventPath); diff != "" {
		t.Fatalf("event path mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestUnmarshalMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing string
	}{
		{"missing events", `{"sessionId": "s"}`, "events"},
		{"missing sessionId", `{"events": []}`, "sessionId"},
		{"empty object", `{}`, "sessionId"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req Request
			err := json.Unmarshal([]byte(tc.body), &req)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.missing) {
				t.Fatalf("error %q should name the missing field %q", err, tc.missing)
			}
		})
	}
}

func TestNewErrorAction(t *testing.T) {
	a := NewErrorAction("boom")

	if !a.Key.ActionPath.Equal(Path{RootErrorSegment}) {
		t.Fatalf("action path = %v", a.Key.ActionPath)
	}

	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"key":{"actionPath":["root_error"]},"data":"boom"}`
	if string(raw) != want {
		t.Fatalf("wire shape mismatch:\n got %s\nwant %s", raw, want)
	}
}
