package model

import (
	"encoding/json"
	"fmt"
)

// CharacterKind discriminates the character-description payload variants
// the backend has shipped over time.
type CharacterKind string

const (
	// CharacterText is a free-text description ("a brave purple dragon").
	CharacterText CharacterKind = "text"
	// CharacterStructured is a trait map (name, species, outfit, ...).
	CharacterStructured CharacterKind = "structured"
	// CharacterReference points at a previously generated character image.
	CharacterReference CharacterKind = "reference"
	// CharacterUnknown is the fallback for shapes this client predates.
	CharacterUnknown CharacterKind = "unknown"
)

// CharacterDescription is the character persona attached to a profile,
// decoded by the "type" discriminator into a closed set of variants.
// Older backends sent a bare string; that decodes as CharacterText.
// Unknown shapes are preserved verbatim in Raw so they round-trip.
type CharacterDescription struct {
	Kind    CharacterKind
	Text    string
	Traits  map[string]string
	ImageID string
	Raw     json.RawMessage
}

type characterWire struct {
	Type    string            `json:"type"`
	Text    string            `json:"text,omitempty"`
	Traits  map[string]string `json:"traits,omitempty"`
	ImageID string            `json:"imageId,omitempty"`
}

func (c *CharacterDescription) UnmarshalJSON(data []byte) error {
	// Legacy payload: a bare string.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = CharacterDescription{Kind: CharacterText, Text: s}
		return nil
	}

	var w characterWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode character description: %w", err)
	}

	switch CharacterKind(w.Type) {
	case CharacterText:
		*c = CharacterDescription{Kind: CharacterText, Text: w.Text}
	case CharacterStructured:
		*c = CharacterDescription{Kind: CharacterStructured, Traits: w.Traits}
	case CharacterReference:
		*c = CharacterDescription{Kind: CharacterReference, ImageID: w.ImageID}
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		*c = CharacterDescription{Kind: CharacterUnknown, Raw: raw}
	}
	return nil
}

func (c CharacterDescription) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CharacterText:
		return json.Marshal(characterWire{Type: string(CharacterText), Text: c.Text})
	case CharacterStructured:
		return json.Marshal(characterWire{Type: string(CharacterStructured), Traits: c.Traits})
	case CharacterReference:
		return json.Marshal(characterWire{Type: string(CharacterReference), ImageID: c.ImageID})
	case CharacterUnknown:
		if len(c.Raw) > 0 {
			return c.Raw, nil
		}
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("marshal character description: unknown kind %q", c.Kind)
	}
}

// Summary renders a short human-readable form for list views.
func (c CharacterDescription) Summary() string {
	switch c.Kind {
	case CharacterText:
		return c.Text
	case CharacterStructured:
		if name, ok := c.Traits["name"]; ok {
			return name
		}
		return fmt.Sprintf("%d traits", len(c.Traits))
	case CharacterReference:
		return "saved character " + c.ImageID
	default:
		return "unsupported character"
	}
}
