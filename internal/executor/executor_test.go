package executor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solthius/episode-manager/internal/pattern"
	"github.com/solthius/episode-manager/internal/planner"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func buildPlan(t *testing.T, dir string, startEp int) planner.Plan {
	t.Helper()
	plan, err := planner.Build(planner.Request{
		Directory:        dir,
		Show:             "Show",
		Season:           "S1",
		StartEpisode:     startEp,
		Pattern:          pattern.PatternSE,
		IncludeVideo:     true,
		IncludeSubtitles: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return plan
}

func TestApplyRestore_Inverse(t *testing.T) {
	dir := t.TempDir()
	originals := []string{"aaa.mkv", "bbb.mkv", "ccc.mkv", "aaa.srt"}
	for _, n := range originals {
		touch(t, dir, n)
	}

	plan := buildPlan(t, dir, 1)
	applied := Apply(plan, Options{})
	if applied.Success != 4 || applied.ErrorCount != 0 {
		t.Fatalf("apply: success=%d errors=%d", applied.Success, applied.ErrorCount)
	}
	if !applied.LogPersisted {
		t.Fatal("log not persisted")
	}

	// 原名必须已经不在了
	for _, n := range originals {
		if _, err := os.Stat(filepath.Join(dir, n)); err == nil {
			t.Errorf("%s still exists after apply", n)
		}
	}

	restored, err := Restore(dir, Options{})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.RestoredCount != applied.Success {
		t.Errorf("restoredCount=%d, expected %d", restored.RestoredCount, applied.Success)
	}
	for _, n := range originals {
		if _, err := os.Stat(filepath.Join(dir, n)); err != nil {
			t.Errorf("%s not restored", n)
		}
	}
}

func TestApply_PartialFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mkv")
	touch(t, dir, "b.mkv")
	touch(t, dir, "c.mkv")
	// 用同名目录占住 b.mkv 的目标名，让第二条 rename 失败
	if err := os.Mkdir(filepath.Join(dir, "Show S1E02.mkv"), 0755); err != nil {
		t.Fatal(err)
	}

	plan := buildPlan(t, dir, 1)
	res := Apply(plan, Options{})
	if res.Success != 2 {
		t.Errorf("success=%d, expected 2", res.Success)
	}
	if res.ErrorCount != 1 {
		t.Errorf("errorCount=%d, expected 1", res.ErrorCount)
	}
	if len(res.Entries) != 2 {
		t.Errorf("log entries=%d, expected 2", len(res.Entries))
	}

	logged, err := ReadLog(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(logged) != 2 {
		t.Errorf("persisted log has %d lines, expected 2", len(logged))
	}
}

func TestApply_CancelBetweenItems(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mkv")
	touch(t, dir, "b.mkv")
	touch(t, dir, "c.mkv")

	plan := buildPlan(t, dir, 1)

	done := 0
	res := Apply(plan, Options{
		OnProgress: func(i, total int, item string) { done++ },
		Cancelled:  func() bool { return done >= 2 },
	})
	if !res.Cancelled {
		t.Fatal("expected cancelled result")
	}
	// 取消只挡住后续条目，已完成的两个不回滚
	if res.Success != 2 {
		t.Errorf("success=%d, expected 2", res.Success)
	}
	if !res.LogPersisted || len(res.Entries) != 2 {
		t.Errorf("log should hold the 2 completed renames, got %d", len(res.Entries))
	}
}

func TestApply_LogPersistFailureSurfaced(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mkv")
	// 用同名目录占住日志路径，迫使 WriteLog 失败
	if err := os.Mkdir(LogPath(dir), 0755); err != nil {
		t.Fatal(err)
	}

	plan := buildPlan(t, dir, 1)
	res := Apply(plan, Options{})
	if res.Success != 1 {
		t.Fatalf("success=%d, expected 1", res.Success)
	}
	if res.LogPersisted || res.LogError == "" {
		t.Errorf("log persist failure not surfaced: %+v", res)
	}
}

func TestRestore_MalformedLinesIgnored(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "orig.mkv")
	newPath := filepath.Join(dir, "renamed.mkv")
	touch(t, dir, "renamed.mkv")

	content := "this line has no separator\n" + oldPath + " -> " + newPath + "\n"
	if err := os.WriteFile(LogPath(dir), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Restore(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.RestoredCount != 1 {
		t.Errorf("restoredCount=%d, expected 1", res.RestoredCount)
	}
	if res.ErrorCount != 0 {
		t.Errorf("malformed line must not count as error, got %d", res.ErrorCount)
	}
	if _, err := os.Stat(oldPath); err != nil {
		t.Error("file not restored to original name")
	}
}

func TestRestore_MissingSourceSkipped(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "old.mkv") + " -> " + filepath.Join(dir, "gone.mkv") + "\n"
	if err := os.WriteFile(LogPath(dir), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Restore(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.ErrorCount != 0 {
		t.Errorf("missing source must not count as error, got %d", res.ErrorCount)
	}
	if res.SkippedCount != 1 {
		t.Errorf("skippedCount=%d, expected 1", res.SkippedCount)
	}
	if len(res.Lines) != 1 || !strings.Contains(res.Lines[0], "Skipped") {
		t.Errorf("unexpected result lines: %v", res.Lines)
	}
}

func TestRestore_DuplicateKeyLastWriteWins(t *testing.T) {
	// 沿袭的语义：日志里重复的 newPath 折叠为最后一条，
	// 迭代顺序保持首次出现的位置。这里显式固定该行为。
	dir := t.TempDir()
	touch(t, dir, "current.mkv")
	cur := filepath.Join(dir, "current.mkv")
	first := filepath.Join(dir, "first.mkv")
	second := filepath.Join(dir, "second.mkv")

	content := first + " -> " + cur + "\n" + second + " -> " + cur + "\n"
	if err := os.WriteFile(LogPath(dir), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Restore(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.RestoredCount != 1 {
		t.Fatalf("restoredCount=%d, expected 1", res.RestoredCount)
	}
	if _, err := os.Stat(second); err != nil {
		t.Error("expected restore to the later (last-write-wins) old path")
	}
	if _, err := os.Stat(first); err == nil {
		t.Error("earlier old path should not have been used")
	}
}

func TestRestore_UnreadableLogFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := Restore(dir, Options{})
	if err == nil {
		t.Fatal("expected error when log is missing")
	}
	if !strings.Contains(err.Error(), "cannot read rename log") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestRestore_CancelBetweenItems(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "x1.mkv")
	touch(t, dir, "x2.mkv")
	touch(t, dir, "x3.mkv")
	entries := []LogEntry{
		{OldPath: filepath.Join(dir, "a1.mkv"), NewPath: filepath.Join(dir, "x1.mkv")},
		{OldPath: filepath.Join(dir, "a2.mkv"), NewPath: filepath.Join(dir, "x2.mkv")},
		{OldPath: filepath.Join(dir, "a3.mkv"), NewPath: filepath.Join(dir, "x3.mkv")},
	}
	if err := WriteLog(dir, entries); err != nil {
		t.Fatal(err)
	}

	done := 0
	res, err := Restore(dir, Options{
		OnProgress: func(i, total int, item string) { done++ },
		Cancelled:  func() bool { return done >= 1 },
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Cancelled {
		t.Fatal("expected cancelled result")
	}
	// 取消只挡住后续条目，第一条已经恢复
	if res.RestoredCount != 1 {
		t.Errorf("restoredCount=%d, expected 1", res.RestoredCount)
	}
	if _, err := os.Stat(filepath.Join(dir, "a1.mkv")); err != nil {
		t.Error("first entry should have been restored before cancellation")
	}
	if _, err := os.Stat(filepath.Join(dir, "x2.mkv")); err != nil {
		t.Error("second entry should be untouched after cancellation")
	}
}

func TestDeleteLog_Independent(t *testing.T) {
	dir := t.TempDir()
	if err := WriteLog(dir, []LogEntry{{OldPath: "a", NewPath: "b"}}); err != nil {
		t.Fatal(err)
	}
	if err := DeleteLog(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(LogPath(dir)); err == nil {
		t.Fatal("log still present")
	}
	// 再删一次必须失败，但这只是独立一步，不影响任何计数
	if err := DeleteLog(dir); err == nil {
		t.Fatal("expected error deleting missing log")
	}
}

func TestPeekLog(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(LogPath(dir), []byte("garbage\n"), 0644); err != nil {
		t.Fatal(err)
	}
	content, valid, err := PeekLog(dir)
	if err != nil {
		t.Fatal(err)
	}
	if valid {
		t.Error("log without separator reported as valid")
	}
	if content != "garbage\n" {
		t.Errorf("content = %q", content)
	}
}
