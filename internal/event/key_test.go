package event

import "testing"

func TestViewKeyIsZero(t *testing.T) {
	if !(ViewKey{}).IsZero() {
		t.Error("empty key must be zero")
	}
	if (ViewKey{ID: "k1"}).IsZero() {
		t.Error("keyed value must not be zero")
	}
	// Name and URL alone carry no identity.
	if !(ViewKey{Name: "home", URL: "/home"}).IsZero() {
		t.Error("key without an id must be zero")
	}
}

func TestStaticKeyNeverReclaimed(t *testing.T) {
	ref := StaticKey(ViewKey{ID: "k1"})
	k, ok := ref.Resolve()
	if !ok {
		t.Fatal("static key must always resolve")
	}
	if k.ID != "k1" {
		t.Errorf("expected k1, got %s", k.ID)
	}
}
