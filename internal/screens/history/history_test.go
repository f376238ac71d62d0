package history

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/mindharmony/mindharmony/internal/router"
	"github.com/mindharmony/mindharmony/internal/store"
)

func seeded(t *testing.T) store.ResultRepo {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	repo := st.ResultRepo()
	now := time.Now()
	for i, rec := range []store.ResultRecord{
		{ID: "a", ReportID: "r1", ScaleID: "PHQ-9", Score: 12, MaxScore: 27, CreatedAt: now.Add(-time.Hour)},
		{ID: "b", ReportID: "r1", ScaleID: "GAD-7", Score: 3, MaxScore: 21, CreatedAt: now},
	} {
		if err := repo.AppendResult(context.Background(), &rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	return repo
}

func load(t *testing.T, s *HistoryScreen) {
	t.Helper()
	s.Update(s.Init()())
}

func TestLoadsAndClassifies(t *testing.T) {
	s := New(seeded(t))
	if !strings.Contains(s.View(100, 30), "正在加载") {
		t.Error("expected loading state before Init completes")
	}
	load(t, s)

	if len(s.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(s.records))
	}
	if s.records[0].ID != "b" {
		t.Errorf("expected newest first, got %q", s.records[0].ID)
	}
	view := s.View(100, 30)
	for _, want := range []string{"中度抑郁", "无明显焦虑", "12 / 27"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestExpandShowsAdvice(t *testing.T) {
	s := New(seeded(t))
	load(t, s)

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !s.expanded[1] {
		t.Fatal("enter should expand the selected row")
	}
	if !strings.Contains(s.View(100, 30), "建议咨询学校心理辅导员") {
		t.Error("expanded row should show the band advice")
	}
}

func TestEmptyAndError(t *testing.T) {
	s := New(nil)
	load(t, s)
	if !strings.Contains(s.View(80, 24), "暂无历史记录") {
		t.Error("expected empty state")
	}

	s = New(nil)
	s.Update(historyLoadedMsg{Err: errors.New("disk gone")})
	if !strings.Contains(s.View(80, 24), "disk gone") {
		t.Error("expected error text")
	}
}

func TestEscPops(t *testing.T) {
	s := New(nil)
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}
