package store

import "testing"

func TestUserCreateAndAuthenticate(t *testing.T) {
	ts := setupTestDB(t)

	u, err := ts.users.Create("alice@example.com", "Alice", "correct horse battery")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.PasswordHash == "correct horse battery" {
		t.Error("password stored in plaintext")
	}

	got, err := ts.users.Authenticate("alice@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Errorf("authenticate = %v, want user %d", got, u.ID)
	}

	got, err = ts.users.Authenticate("alice@example.com", "wrong")
	if err != nil {
		t.Fatalf("authenticate wrong password: %v", err)
	}
	if got != nil {
		t.Error("wrong password should not authenticate")
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	ts := setupTestDB(t)
	mustUser(t, ts, "alice@example.com")

	if _, err := ts.users.Create("alice@example.com", "Alice 2", "another password"); err == nil {
		t.Error("expected error for duplicate email")
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := setupTestDB(t)
	u := mustUser(t, ts, "alice@example.com")

	sess, err := ts.sessions.Create(u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}

	got, err := ts.sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.UserID != u.ID {
		t.Errorf("session = %v, want user %d", got, u.ID)
	}

	if err := ts.sessions.Delete(sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	got, _ = ts.sessions.GetByToken(sess.Token)
	if got != nil {
		t.Error("expected nil after delete")
	}
}
