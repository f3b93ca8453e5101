package maybe

import (
	"encoding/json"
	"testing"
)

func TestValueOrDefault(t *testing.T) {
	if got := Some(1.5).ValueOrDefault(9); got != 1.5 {
		t.Errorf("got %v, wanted 1.5", got)
	}
	if got := None[float64]().ValueOrDefault(9); got != 9 {
		t.Errorf("got %v, wanted 9", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(Some(2.5))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "2.5" {
		t.Errorf("expected 2.5, got %s", b)
	}

	b, err = json.Marshal(None[float64]())
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "null" {
		t.Errorf("expected null, got %s", b)
	}

	var m Maybe[float64]
	if err := json.Unmarshal([]byte("null"), &m); err != nil {
		t.Fatal(err)
	}
	if m.IsValid() {
		t.Error("expected null to unmarshal as absent")
	}
	if err := json.Unmarshal([]byte("3.25"), &m); err != nil {
		t.Fatal(err)
	}
	if !m.IsValid() || m.Value() != 3.25 {
		t.Errorf("expected 3.25, got %+v", m)
	}
}
