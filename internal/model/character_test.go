package model

import (
	"encoding/json"
	"testing"
)

func TestCharacterDecodeLegacyString(t *testing.T) {
	var c CharacterDescription
	if err := json.Unmarshal([]byte(`"a brave purple dragon"`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Kind != CharacterText {
		t.Errorf("kind = %q, want %q", c.Kind, CharacterText)
	}
	if c.Text != "a brave purple dragon" {
		t.Errorf("text = %q", c.Text)
	}
}

func TestCharacterDecodeText(t *testing.T) {
	var c CharacterDescription
	if err := json.Unmarshal([]byte(`{"type":"text","text":"a tiny robot"}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Kind != CharacterText || c.Text != "a tiny robot" {
		t.Errorf("got %+v", c)
	}
}

func TestCharacterDecodeStructured(t *testing.T) {
	var c CharacterDescription
	payload := `{"type":"structured","traits":{"name":"Willow","species":"fox"}}`
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Kind != CharacterStructured {
		t.Fatalf("kind = %q", c.Kind)
	}
	if c.Traits["name"] != "Willow" || c.Traits["species"] != "fox" {
		t.Errorf("traits = %v", c.Traits)
	}
	if c.Summary() != "Willow" {
		t.Errorf("summary = %q", c.Summary())
	}
}

func TestCharacterDecodeReference(t *testing.T) {
	var c CharacterDescription
	if err := json.Unmarshal([]byte(`{"type":"reference","imageId":"img_42"}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Kind != CharacterReference || c.ImageID != "img_42" {
		t.Errorf("got %+v", c)
	}
}

func TestCharacterUnknownShapePreserved(t *testing.T) {
	payload := `{"type":"animated","frames":[1,2,3]}`
	var c CharacterDescription
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Kind != CharacterUnknown {
		t.Fatalf("kind = %q, want unknown", c.Kind)
	}

	// Unknown payloads must round-trip byte-for-byte.
	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != payload {
		t.Errorf("round-trip = %s, want %s", out, payload)
	}
}

func TestCharacterRoundTripText(t *testing.T) {
	c := CharacterDescription{Kind: CharacterText, Text: "a sleepy bear"}
	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back CharacterDescription
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Kind != CharacterText || back.Text != c.Text {
		t.Errorf("got %+v", back)
	}
}

func TestProfileDecodeWithCharacter(t *testing.T) {
	payload := `{
		"id": "p1",
		"name": "Maya",
		"isDefault": false,
		"hasPin": true,
		"character": "a singing mermaid"
	}`
	var p FamilyProfile
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Character == nil || p.Character.Kind != CharacterText {
		t.Fatalf("character = %+v", p.Character)
	}
	if p.DisplayAvatar() != "👤" {
		t.Errorf("expected fallback avatar, got %q", p.DisplayAvatar())
	}
}
