package snapshot

import "testing"

func testSnapshot() *Snapshot {
	return &Snapshot{
		Users: []string{"alice", "bob"},
		Managed: []ProcessSample{
			{PID: 1, User: "alice", CPU: 50},
			{PID: 2, User: "alice", CPU: 30},
			{PID: 3, User: "bob", CPU: 90},
			{PID: 4, User: "root", CPU: 99},
		},
		Table: []ProcessSample{
			{PID: 1, User: "alice", Command: "python"},
			{PID: 5, User: "bob", Command: "bash"},
			{PID: 6, User: "svc-backup", Command: "rsync"},
		},
	}
}

func TestHasUser(t *testing.T) {
	s := testSnapshot()

	if !s.HasUser("alice") {
		t.Error("alice should be a valid account")
	}
	if s.HasUser("root") {
		t.Error("root should not be a valid account")
	}
}

func TestManagedByUserExcludesSystemAccounts(t *testing.T) {
	s := testSnapshot()
	byUser := s.ManagedByUser()

	if len(byUser) != 2 {
		t.Fatalf("expected 2 users, got %d", len(byUser))
	}
	if len(byUser["alice"]) != 2 {
		t.Errorf("alice should have 2 samples, got %d", len(byUser["alice"]))
	}
	if _, ok := byUser["root"]; ok {
		t.Error("root processes must not participate in fairness decisions")
	}
}

func TestTableByUser(t *testing.T) {
	s := testSnapshot()
	byUser := s.TableByUser()

	if len(byUser["bob"]) != 1 || byUser["bob"][0].Command != "bash" {
		t.Errorf("unexpected bob entries: %+v", byUser["bob"])
	}
	if _, ok := byUser["svc-backup"]; ok {
		t.Error("service accounts without home directories must be excluded")
	}
}
