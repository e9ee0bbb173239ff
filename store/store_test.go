package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func TestStore_SaveGet(t *testing.T) {
	started := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			record, err := NewRecord("exec-1", "agent-1", KindTest, "completed", started, started.Add(time.Second), map[string]any{"success": true})
			if err != nil {
				t.Fatalf("NewRecord() error = %v", err)
			}
			if err := s.Save(ctx, record); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			got, err := s.Get(ctx, "exec-1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.AgentID != "agent-1" || got.Kind != KindTest || got.Status != "completed" {
				t.Errorf("Get() = %+v", got)
			}
			if !got.StartedAt.Equal(started) || !got.FinishedAt.Equal(started.Add(time.Second)) {
				t.Errorf("times = %v / %v", got.StartedAt, got.FinishedAt)
			}

			var payload map[string]any
			if err := json.Unmarshal(got.Payload, &payload); err != nil || payload["success"] != true {
				t.Errorf("payload = %s (err %v)", got.Payload, err)
			}

			record.Status = "failed"
			if err := s.Save(ctx, record); err != nil {
				t.Fatalf("Save() update error = %v", err)
			}
			if got, _ := s.Get(ctx, "exec-1"); got.Status != "failed" {
				t.Errorf("Status after update = %q, want failed", got.Status)
			}
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_List(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	records := []*Record{
		{ID: "a", AgentID: "agent-1", Kind: KindTest, Status: "completed", StartedAt: base},
		{ID: "b", AgentID: "agent-1", Kind: KindRun, Status: "completed", StartedAt: base.Add(time.Minute)},
		{ID: "c", AgentID: "agent-2", Kind: KindTest, Status: "failed", StartedAt: base.Add(2 * time.Minute)},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{"c", "b", "a"}},
		{"by agent", Filter{AgentID: "agent-1"}, []string{"b", "a"}},
		{"by kind", Filter{Kind: KindTest}, []string{"c", "a"}},
		{"limit", Filter{Limit: 1}, []string{"c"}},
	}

	for name, s := range stores(t) {
		ctx := context.Background()
		for _, r := range records {
			if err := s.Save(ctx, r); err != nil {
				t.Fatalf("%s: Save() error = %v", name, err)
			}
		}

		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				got, err := s.List(ctx, tt.filter)
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				if len(got) != len(tt.want) {
					t.Fatalf("List() returned %d records, want %d", len(got), len(tt.want))
				}
				for i, id := range tt.want {
					if got[i].ID != id {
						t.Errorf("List()[%d] = %s, want %s", i, got[i].ID, id)
					}
				}
			})
		}
	}
}
