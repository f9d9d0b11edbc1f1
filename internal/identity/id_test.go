package identity

import (
	"strings"
	"testing"
)

func TestIDPrefixes(t *testing.T) {
	if id := NewSessionID(); !strings.HasPrefix(id, "sess-") {
		t.Errorf("session id missing prefix: %s", id)
	}
	if id := NewBatchID(); !strings.HasPrefix(id, "b-") {
		t.Errorf("batch id missing prefix: %s", id)
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		for _, id := range []string{NewSessionID(), NewViewID(), NewActionID(), NewResourceID(), NewRecordID()} {
			if seen[id] {
				t.Fatalf("duplicate id %s", id)
			}
			seen[id] = true
		}
	}
}
