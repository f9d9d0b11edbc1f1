package event

// ViewKey identifies one view activation as supplied by the caller.
// The ID is the correlation handle used to match StopView and
// UpdateViewLoadingTime against the view scope that owns it.
type ViewKey struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// IsZero reports whether the key carries no identity at all. A zero key
// on StopView means "stop whichever view is current".
func (k ViewKey) IsZero() bool {
	return k.ID == ""
}

// KeyRef resolves a caller-owned view key. The caller owns the key's
// lifetime; once it is reclaimed Resolve reports false. Scopes must not
// retain the resolved value across events.
type KeyRef interface {
	Resolve() (ViewKey, bool)
}

// StaticKey returns a KeyRef that is never reclaimed. This is the default
// for SDK callers that pass keys by value.
func StaticKey(k ViewKey) KeyRef {
	return staticKey{k: k}
}

type staticKey struct{ k ViewKey }

func (s staticKey) Resolve() (ViewKey, bool) { return s.k, true }
