package sanitizer

import (
	"testing"

	"webinars/pkg/model"
)

func TestSanitizeID(t *testing.T) {
	if got := SanitizeID(" user-1\x00\n"); got != "user-1" {
		t.Errorf("SanitizeID() = %q", got)
	}
	if got := SanitizeID("Mixed Case Id"); got != "Mixed Case Id" {
		t.Errorf("ids must keep case and inner spaces, got %q", got)
	}
}

func TestSanitizeParticipationRequest(t *testing.T) {
	req := &model.ParticipationRequest{UserID: "  u1 ", Email: " User@Example.COM "}
	SanitizeParticipationRequest(req)

	if req.UserID != "u1" {
		t.Errorf("unexpected user id %q", req.UserID)
	}
	if req.Email != "user@example.com" {
		t.Errorf("unexpected email %q", req.Email)
	}
}
