package jsonx

import (
	"errors"
	"testing"
)

type verdict struct {
	Conflict bool   `json:"conflict"`
	Reason   string `json:"reason"`
}

func TestDecodeBareJSON(t *testing.T) {
	var v verdict
	if err := Decode(`{"conflict": true, "reason": "opposite direction"}`, &v); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !v.Conflict || v.Reason != "opposite direction" {
		t.Errorf("unexpected result: %+v", v)
	}
}

func TestDecodeFencedJSON(t *testing.T) {
	raw := "Here is my answer:\n```json\n{\"conflict\": false, \"reason\": \"\"}\n```\nHope that helps."
	var v verdict
	if err := Decode(raw, &v); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.Conflict {
		t.Error("expected conflict=false")
	}
}

func TestDecodeBareFence(t *testing.T) {
	raw := "```\n{\"conflict\": true, \"reason\": \"budget clash\"}\n```"
	var v verdict
	if err := Decode(raw, &v); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.Reason != "budget clash" {
		t.Errorf("reason = %q", v.Reason)
	}
}

func TestDecodeEmbeddedObject(t *testing.T) {
	raw := `Sure. The verdict is {"conflict": true, "reason": "abandonment vs continuation"} as requested.`
	var v verdict
	if err := Decode(raw, &v); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !v.Conflict {
		t.Error("expected conflict=true")
	}
}

func TestDecodeArray(t *testing.T) {
	raw := "The items: [1, 2, 3]"
	var nums []int
	if err := Decode(raw, &nums); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(nums) != 3 {
		t.Errorf("got %d items", len(nums))
	}
}

func TestDecodeNoJSON(t *testing.T) {
	var v verdict
	err := Decode("not json at all", &v)
	if !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	var v verdict
	err := Decode(`{"conflict": tru`, &v)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if errors.Is(err, ErrNoJSON) {
		t.Error("malformed JSON should not be reported as missing")
	}
}

func TestSanitizeEmpty(t *testing.T) {
	if got := Sanitize("   "); got != "" {
		t.Errorf("Sanitize(blank) = %q", got)
	}
}
