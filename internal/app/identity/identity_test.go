package identity

import (
	"strings"
	"testing"
)

func TestIdentity_Key(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want string
	}{
		{"subject wins", Identity{Subject: "sub-1", Email: "a@x.com", Name: "Ana"}, "sub-1"},
		{"email second", Identity{Email: "a@x.com", Name: "Ana"}, "a@x.com"},
		{"name last", Identity{Name: "Ana"}, "Ana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentity_KeyIsStableAcrossRename(t *testing.T) {
	id := Identity{Subject: "sub-1", Email: "a@x.com", Name: "Ana"}
	before := id.Key()

	id.DisplayName = "AnaDev"
	if id.Key() != before {
		t.Errorf("Key changed after rename: %q -> %q", before, id.Key())
	}
}

func TestIdentity_Display(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want string
	}{
		{"override wins", Identity{Name: "Ana García", DisplayName: "AnaDev"}, "AnaDev"},
		{"legal name second", Identity{Name: "Ana García", Email: "ana@x.com"}, "Ana García"},
		{"email local part", Identity{Email: "ana@x.com"}, "ana"},
		{"nothing known", Identity{}, "Anon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentity_PublicUsesDisplayName(t *testing.T) {
	id := Identity{Name: "Ana García", Email: "ana@x.com", DisplayName: "AnaDev"}

	pub := id.Public()
	if pub.Name != "AnaDev" {
		t.Errorf("Public().Name = %q, want AnaDev", pub.Name)
	}
	if pub.Email != "ana@x.com" {
		t.Errorf("Public().Email = %q", pub.Email)
	}
}

func TestAnonymous(t *testing.T) {
	a := Anonymous()
	b := Anonymous()

	if !strings.HasPrefix(a.Display(), "Usuario_") {
		t.Errorf("anonymous display = %q, want Usuario_ prefix", a.Display())
	}
	if a.Display() == b.Display() {
		t.Errorf("two anonymous identities share the name %q", a.Display())
	}
	if a.Subject != "" || a.Email != "" {
		t.Errorf("anonymous identity carries provider fields: %+v", a)
	}
}
