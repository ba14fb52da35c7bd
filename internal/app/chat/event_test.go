package chat

import (
	"encoding/json"
	"testing"

	"workchat/internal/app/history"
	"workchat/internal/app/identity"
)

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantText string
		wantOK   bool
	}{
		{"plain message", `{"text":"hola"}`, "hola", true},
		{"extra fields ignored", `{"type":"message","text":"hola","junk":1}`, "hola", true},
		{"empty text", `{"text":""}`, "", false},
		{"missing text", `{"type":"message"}`, "", false},
		{"not json", `hola`, "", false},
		{"empty payload", ``, "", false},
		{"wrong text type", `{"text":42}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok := parseInbound([]byte(tt.raw))
			if ok != tt.wantOK || text != tt.wantText {
				t.Errorf("parseInbound(%q) = %q, %v, want %q, %v", tt.raw, text, ok, tt.wantText, tt.wantOK)
			}
		})
	}
}

func TestNewHistoryEvent_NilLinesBecomeEmptyArray(t *testing.T) {
	event := NewHistoryEvent(nil)

	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if string(decoded["lines"]) != "[]" {
		t.Errorf("lines = %s, want []", decoded["lines"])
	}
}

func TestNewMessageEvent_StampsUniqueIDs(t *testing.T) {
	user := identity.Public{Name: "Ana"}

	a := NewMessageEvent(user, "hola", nowUnix())
	b := NewMessageEvent(user, "hola", nowUnix())

	if a.ID == "" || b.ID == "" {
		t.Fatal("message event with empty ID")
	}
	if a.ID == b.ID {
		t.Errorf("two message events share ID %q", a.ID)
	}
}

func TestEventWireShapes(t *testing.T) {
	user := identity.Public{Name: "Ana", Email: "ana@example.com"}

	raw, err := json.Marshal(NewJoinEvent(user))
	if err != nil {
		t.Fatalf("marshal join: %v", err)
	}

	var join map[string]any
	if err := json.Unmarshal(raw, &join); err != nil {
		t.Fatalf("unmarshal join: %v", err)
	}
	if join["type"] != "join" {
		t.Errorf("join type = %v, want \"join\"", join["type"])
	}
	if _, ok := join["ts"].(float64); !ok {
		t.Errorf("join ts is %T, want a number", join["ts"])
	}

	raw, err = json.Marshal(NewHistoryEvent([]history.Line{{TS: 1.5, Name: "Ana", Text: "hola"}}))
	if err != nil {
		t.Fatalf("marshal history: %v", err)
	}

	var hist HistoryEvent
	if err := json.Unmarshal(raw, &hist); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if hist.Type != TypeHistory || len(hist.Lines) != 1 || hist.Lines[0].Text != "hola" {
		t.Errorf("history round trip = %+v", hist)
	}
}
