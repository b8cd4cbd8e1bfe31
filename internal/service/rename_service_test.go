package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/solthius/episode-manager/internal/config"
	"github.com/solthius/episode-manager/internal/db"
	"github.com/solthius/episode-manager/internal/executor"
	"github.com/solthius/episode-manager/internal/pattern"
	"github.com/solthius/episode-manager/internal/planner"
)

func TestMain(m *testing.M) {
	if err := config.LoadConfig(""); err != nil {
		os.Exit(1)
	}
	db.InitDB(":memory:")

	code := m.Run()

	_ = db.CloseDB()
	os.Exit(code)
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func validRequest(dir string) planner.Request {
	return planner.Request{
		Directory:        dir,
		Show:             "Show",
		Season:           "S1",
		StartEpisode:     1,
		Pattern:          pattern.PatternSE,
		IncludeVideo:     true,
		IncludeSubtitles: true,
	}
}

func waitRun(t *testing.T, m *Manager, runID string) {
	t.Helper()
	task, ok := m.Tasks.Get(runID)
	if !ok {
		t.Fatal("task not tracked in registry")
	}
	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish in time")
	}
}

func TestValidateRequest(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*planner.Request)
		wantErr string
	}{
		{"valid", func(r *planner.Request) {}, ""},
		{"missing directory", func(r *planner.Request) { r.Directory = " " }, "directory"},
		{"missing show", func(r *planner.Request) { r.Show = "" }, "show name"},
		{"missing season", func(r *planner.Request) { r.Season = "" }, "season"},
		{"empty pattern", func(r *planner.Request) { r.Pattern = "  " }, "pattern"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest("/some/dir")
			tc.mutate(&req)
			err := ValidateRequest(req)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, expected mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestStartRename_RegistryTracksRun(t *testing.T) {
	m := NewManager()
	dir := t.TempDir()
	touch(t, dir, "a.mkv")

	runID, err := m.StartRename(validRequest(dir))
	if err != nil {
		t.Fatal(err)
	}
	waitRun(t, m, runID)

	// 完成后、被清扫前，结果还能从注册表里的任务拿到
	status, err := m.RunStatus(runID)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Done {
		t.Fatal("run should be done")
	}
	if status.Outcome == nil || status.Outcome.Result.Success != 1 {
		t.Errorf("outcome = %+v", status.Outcome)
	}
}

func TestStartRename_SweepsCompletedRuns(t *testing.T) {
	m := NewManager()
	dir1 := t.TempDir()
	touch(t, dir1, "a.mkv")

	first, err := m.StartRename(validRequest(dir1))
	if err != nil {
		t.Fatal(err)
	}
	waitRun(t, m, first)

	// 下一次提交把已完成的批次清掉
	dir2 := t.TempDir()
	touch(t, dir2, "b.mkv")
	second, err := m.StartRename(validRequest(dir2))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Tasks.Get(first); ok {
		t.Error("completed run should have been swept from the registry")
	}
	waitRun(t, m, second)

	// 被清扫的批次状态仍可从历史记录查询
	status, err := m.RunStatus(first)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Done {
		t.Error("swept run should report done from its recorded status")
	}
}

func TestRestore_CancelledContextStopsBetweenItems(t *testing.T) {
	m := NewManager()
	dir := t.TempDir()
	touch(t, dir, "x1.mkv")
	touch(t, dir, "x2.mkv")
	entries := []executor.LogEntry{
		{OldPath: filepath.Join(dir, "a1.mkv"), NewPath: filepath.Join(dir, "x1.mkv")},
		{OldPath: filepath.Join(dir, "a2.mkv"), NewPath: filepath.Join(dir, "x2.mkv")},
	}
	if err := executor.WriteLog(dir, entries); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // 进入第一个检查点前就已取消

	outcome, err := m.Restore(ctx, dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Result.Cancelled {
		t.Fatal("expected cancelled restore result")
	}
	if outcome.Result.RestoredCount != 0 {
		t.Errorf("restoredCount=%d, expected 0", outcome.Result.RestoredCount)
	}
	// 没恢复任何文件时日志必须保留
	if outcome.LogDeleted {
		t.Error("log must not be deleted after a cancelled restore")
	}
	if _, err := os.Stat(executor.LogPath(dir)); err != nil {
		t.Error("rename log should still exist")
	}
	if _, err := os.Stat(filepath.Join(dir, "x1.mkv")); err != nil {
		t.Error("files should be untouched after immediate cancellation")
	}
}
