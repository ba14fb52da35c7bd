/*
Package identity contains the data structures describing chat participants.

It defines the Identity record kept by the identity store and the compact
Public shape embedded in chat events sent to clients.
*/
package identity

import "workchat/internal/pkg/randx"

// Identity is a user identity as known to the identity store.
type Identity struct {
	// Subject is the identity provider's stable user ID ("sub" claim).
	Subject string `json:"sub,omitempty"`

	// Email is the account email reported by the provider.
	Email string `json:"email,omitempty"`

	// Name is the legal name reported by the provider.
	Name string `json:"name,omitempty"`

	// DisplayName is the user-chosen display name override, editable
	// after creation. Empty means no override.
	DisplayName string `json:"display_name,omitempty"`
}

// Public is the identity snapshot embedded in outbound chat events.
type Public struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Key returns the stable storage key for this identity: the provider
// subject when available, else the email, else the legal name. The key
// must not change across re-authentication.
func (i Identity) Key() string {
	if i.Subject != "" {
		return i.Subject
	}
	if i.Email != "" {
		return i.Email
	}
	return i.Name
}

// Display returns the name shown in chat: the display-name override,
// else the legal name, else the local part of the email.
func (i Identity) Display() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	if i.Name != "" {
		return i.Name
	}
	if i.Email != "" {
		for idx := 0; idx < len(i.Email); idx++ {
			if i.Email[idx] == '@' {
				return i.Email[:idx]
			}
		}
		return i.Email
	}
	return "Anon"
}

// Public returns the event-facing snapshot of this identity.
func (i Identity) Public() Public {
	return Public{
		Name:  i.Display(),
		Email: i.Email,
	}
}

// Anonymous mints a fresh anonymous identity with a random human-readable
// name and no email. Used when a connection presents no resolvable session.
func Anonymous() Identity {
	name, err := randx.AnonymousName()
	if err != nil {
		// crypto/rand failing is effectively unreachable; keep the
		// connection usable regardless.
		name = randx.AnonymousNamePrefix + "000000"
	}

	return Identity{Name: name}
}
