package realtime

import "testing"

func TestPresence_BindEvictsOldConn(t *testing.T) {
	p := NewPresence()

	if _, evicted := p.Bind("u1", "c1"); evicted {
		t.Error("first Bind() reported eviction")
	}
	old, evicted := p.Bind("u1", "c2")
	if !evicted {
		t.Fatal("rebind did not report eviction")
	}
	if old != "c1" {
		t.Errorf("evicted conn = %q, want %q", old, "c1")
	}
	if _, ok := p.UserOf("c1"); ok {
		t.Error("old conn still mapped to a user")
	}
	if conn, _ := p.ConnOf("u1"); conn != "c2" {
		t.Errorf("ConnOf(u1) = %q, want %q", conn, "c2")
	}
}

func TestPresence_RebindSameConnIsNoop(t *testing.T) {
	p := NewPresence()
	p.Bind("u1", "c1")
	if _, evicted := p.Bind("u1", "c1"); evicted {
		t.Error("rebinding the same conn reported eviction")
	}
}

func TestPresence_UnbindConn(t *testing.T) {
	p := NewPresence()
	p.Bind("u1", "c1")

	userID, ok := p.UnbindConn("c1")
	if !ok || userID != "u1" {
		t.Fatalf("UnbindConn() = (%q, %v), want (u1, true)", userID, ok)
	}
	if _, ok := p.ConnOf("u1"); ok {
		t.Error("user still mapped to a conn after unbind")
	}
	// Unbind does not touch the online set; only SetOffline does.
	if !p.IsOnline("u1") {
		t.Error("IsOnline(u1) = false after UnbindConn, want true")
	}
	if _, ok := p.UnbindConn("c1"); ok {
		t.Error("second UnbindConn() on same conn succeeded")
	}
}

func TestPresence_UnbindConnSkipsStaleUserMapping(t *testing.T) {
	p := NewPresence()
	p.Bind("u1", "c1")
	p.Bind("u1", "c2")

	// c1 was evicted; unbinding it must not clobber the live c2 mapping.
	p.UnbindConn("c1")
	if conn, ok := p.ConnOf("u1"); !ok || conn != "c2" {
		t.Errorf("ConnOf(u1) = (%q, %v), want (c2, true)", conn, ok)
	}
}

func TestPresence_SetOffline(t *testing.T) {
	p := NewPresence()
	p.Bind("u1", "c1")
	p.SetOffline("u1")
	if p.IsOnline("u1") {
		t.Error("IsOnline(u1) = true after SetOffline")
	}
}
