package database

import (
	"strings"
	"testing"
)

func TestParseApplicationStatus_Normalizes(t *testing.T) {
	for _, raw := range []string{"accepted", "ACCEPTED", "Accepted", "  accepted "} {
		status, err := ParseApplicationStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if status != StatusAccepted {
			t.Fatalf("parse %q: expected %q, got %q", raw, StatusAccepted, status)
		}
	}
}

func TestParseApplicationStatus_Unknown(t *testing.T) {
	_, err := ParseApplicationStatus("done")
	if err == nil {
		t.Fatalf("expected error for unknown status")
	}
	for _, allowed := range AllowedStatuses() {
		if !strings.Contains(err.Error(), allowed) {
			t.Fatalf("error must list allowed value %q: %v", allowed, err)
		}
	}
}

func TestParseEmployerRole(t *testing.T) {
	role, err := ParseEmployerRole("")
	if err != nil || role != RoleRecruiter {
		t.Fatalf("empty role must default to RECRUITER, got %q err=%v", role, err)
	}
	role, err = ParseEmployerRole("owner")
	if err != nil || role != RoleOwner {
		t.Fatalf("expected OWNER, got %q err=%v", role, err)
	}
	if _, err := ParseEmployerRole("boss"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
