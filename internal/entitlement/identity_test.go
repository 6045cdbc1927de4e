package entitlement

import "testing"

func TestResolveIdentityNormalizesEmail(t *testing.T) {
	got := ResolveIdentity("  USER@Example.COM ", "203.0.113.7")
	if got != Identity("email:user@example.com") {
		t.Fatalf("unexpected identity %q", got)
	}
	if !got.IsEmail() {
		t.Fatal("expected email-keyed identity")
	}
	if got.Email() != "user@example.com" {
		t.Fatalf("unexpected email %q", got.Email())
	}
}

func TestResolveIdentityFallsBackToOrigin(t *testing.T) {
	got := ResolveIdentity("", "203.0.113.7")
	if got != Identity("anon:203.0.113.7") {
		t.Fatalf("unexpected identity %q", got)
	}
	if got.IsEmail() {
		t.Fatal("expected anonymous identity")
	}
	if got.Email() != "" {
		t.Fatalf("anonymous identity should have no email, got %q", got.Email())
	}

	// Whitespace-only email counts as absent
	if ResolveIdentity("   ", "203.0.113.7") != got {
		t.Fatal("whitespace email should fall back to origin")
	}
}

func TestIdentityKindsNeverCollide(t *testing.T) {
	// An email literally equal to another identity's anon key must still
	// map to a distinct ledger key.
	email := ResolveIdentity("anon:203.0.113.7", "")
	anon := ResolveIdentity("", "203.0.113.7")
	if email == anon {
		t.Fatalf("identity namespaces collided: %q", email)
	}
}
