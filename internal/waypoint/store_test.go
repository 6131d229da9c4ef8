package waypoint

import (
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewStore()
	if err := s.CreateStore(":memory:"); err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}
	t.Cleanup(func() { s.CloseStore() })
	return s
}

func TestStore_CreateAndList(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateWaypoint(Waypoint{
		X: 10, Z: 20, Label: "Claim (100)", Alias: "CP", ColorIdx: 15, Visible: true,
	})
	if err != nil {
		t.Fatalf("CreateWaypoint failed: %v", err)
	}
	if id == 0 {
		t.Error("CreateWaypoint returned id 0")
	}

	wps, err := s.ListWaypoints()
	if err != nil {
		t.Fatalf("ListWaypoints failed: %v", err)
	}
	if len(wps) != 1 {
		t.Fatalf("got %d waypoints, want 1", len(wps))
	}

	wp := wps[0]
	if wp.ID != id || wp.X != 10 || wp.Z != 20 {
		t.Errorf("waypoint = %+v, want id=%d at (10, 20)", wp, id)
	}
	if wp.Label != "Claim (100)" || wp.Alias != "CP" || wp.ColorIdx != 15 || !wp.Visible {
		t.Errorf("waypoint attributes = %+v", wp)
	}
}

func TestStore_ListInInsertionOrder(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := s.CreateWaypoint(Waypoint{X: i, Z: i}); err != nil {
			t.Fatalf("CreateWaypoint failed: %v", err)
		}
	}

	wps, err := s.ListWaypoints()
	if err != nil {
		t.Fatalf("ListWaypoints failed: %v", err)
	}
	for i, wp := range wps {
		if wp.X != i {
			t.Errorf("waypoint %d has X = %d, want %d", i, wp.X, i)
		}
	}
}

func TestStore_UpdateOperations(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateWaypoint(Waypoint{X: 1, Z: 1, Label: "Claim (100)", Alias: "CP", Visible: true})
	if err != nil {
		t.Fatalf("CreateWaypoint failed: %v", err)
	}

	if err := s.RelabelWaypoint(id, "Claim (150)"); err != nil {
		t.Fatalf("RelabelWaypoint failed: %v", err)
	}
	if err := s.SetAlias(id, "K"); err != nil {
		t.Fatalf("SetAlias failed: %v", err)
	}
	if err := s.SetColor(id, 6); err != nil {
		t.Fatalf("SetColor failed: %v", err)
	}
	if err := s.SetVisible(id, false); err != nil {
		t.Fatalf("SetVisible failed: %v", err)
	}

	wps, _ := s.ListWaypoints()
	wp := wps[0]
	if wp.Label != "Claim (150)" || wp.Alias != "K" || wp.ColorIdx != 6 || wp.Visible {
		t.Errorf("waypoint after updates = %+v", wp)
	}
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)

	id, _ := s.CreateWaypoint(Waypoint{X: 1, Z: 1})
	keep, _ := s.CreateWaypoint(Waypoint{X: 2, Z: 2})

	if err := s.DeleteWaypoint(id); err != nil {
		t.Fatalf("DeleteWaypoint failed: %v", err)
	}

	wps, _ := s.ListWaypoints()
	if len(wps) != 1 || wps[0].ID != keep {
		t.Errorf("waypoints after delete = %+v, want only id %d", wps, keep)
	}
}

func TestStore_TransactionRollback(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.CreateWaypoint(Waypoint{X: 1, Z: 1}); err != nil {
		t.Fatal(err)
	}

	if err := s.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction failed: %v", err)
	}
	if _, err := s.CreateWaypoint(Waypoint{X: 2, Z: 2}); err != nil {
		t.Fatalf("CreateWaypoint in transaction failed: %v", err)
	}
	if err := s.RollbackTransaction(); err != nil {
		t.Fatalf("RollbackTransaction failed: %v", err)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count after rollback = %d, want 1", count)
	}
}

func TestStore_TransactionCommit(t *testing.T) {
	s := openTestStore(t)

	if err := s.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction failed: %v", err)
	}
	s.CreateWaypoint(Waypoint{X: 1, Z: 1})
	s.CreateWaypoint(Waypoint{X: 2, Z: 2})
	if err := s.CommitTransaction(); err != nil {
		t.Fatalf("CommitTransaction failed: %v", err)
	}

	count, _ := s.Count()
	if count != 2 {
		t.Errorf("count after commit = %d, want 2", count)
	}
}

func TestStore_OperationsFailWhenClosed(t *testing.T) {
	s := NewStore()

	if _, err := s.ListWaypoints(); err == nil {
		t.Error("ListWaypoints on closed store did not fail")
	}
	if _, err := s.CreateWaypoint(Waypoint{}); err == nil {
		t.Error("CreateWaypoint on closed store did not fail")
	}
}

func TestColorIndex(t *testing.T) {
	if idx := ColorIndex("white"); idx != 15 {
		t.Errorf("ColorIndex(white) = %d, want 15", idx)
	}
	if idx := ColorIndex("gold"); idx != 6 {
		t.Errorf("ColorIndex(gold) = %d, want 6", idx)
	}
	if idx := ColorIndex("mauve"); idx != -1 {
		t.Errorf("ColorIndex(mauve) = %d, want -1", idx)
	}
	if DefaultColor != "white" {
		t.Errorf("DefaultColor = %q, want white", DefaultColor)
	}
}
