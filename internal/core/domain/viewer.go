package domain

// AnonymousDisplayName is used when a connection supplies no identity at all.
const AnonymousDisplayName = "anonymous"

// Principal is the chat identity of one viewer connection, resolved once
// at connect time. Anonymous viewers carry a display name only.
type Principal struct {
	UserID        UserID
	DisplayName   string
	Authenticated bool
}

// Anonymous returns an unauthenticated principal with the given display
// name, falling back to the default label when empty.
func Anonymous(displayName string) Principal {
	if displayName == "" {
		displayName = AnonymousDisplayName
	}
	return Principal{DisplayName: displayName}
}
