package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finhealth/internal/core"
)

func TestFileStoreFirstRunAndRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, ok, err := s.Load(context.Background()); ok || err != nil {
		t.Fatalf("expected first run, ok=%v err=%v", ok, err)
	}

	st := core.NewAppState()
	st.User = &core.UserProfile{Name: "Ravi", Mobile: "555", Country: core.India, Currency: core.INR, WeeklyLimit: 1000}
	st.Inventory = []string{"badge_newbie", "badge_newbie"}
	st.Expenses = []core.Expense{{ID: "a", Amount: 3, Date: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), IsSubscription: true}}
	if err := s.Save(context.Background(), st); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file should be renamed away")
	}

	reopened, _ := New(path)
	got, ok, err := reopened.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.User == nil || got.User.Name != "Ravi" || len(got.Inventory) != 2 || !got.Expenses[0].IsSubscription {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("[1,2"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := New(path)
	if _, _, err := s.Load(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewRejectsEmptyPath(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
