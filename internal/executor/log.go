package executor

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/solthius/episode-manager/internal/planner"
)

// 日志行分隔符。路径本身包含 " -> " 时解析会被破坏，
// 这是沿袭下来的已知限制，不做转义。
const logSeparator = " -> "

// LogEntry 一条已完成的重命名记录
type LogEntry struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

// LogPath 返回目录对应的日志文件路径
func LogPath(dir string) string {
	return filepath.Join(dir, planner.BackupLogName)
}

// WriteLog 把整批记录写入目录日志，覆盖旧文件
func WriteLog(dir string, entries []LogEntry) error {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.OldPath)
		b.WriteString(logSeparator)
		b.WriteString(e.NewPath)
		b.WriteString("\n")
	}
	return os.WriteFile(LogPath(dir), []byte(b.String()), 0644)
}

// ReadLog 逐行读取目录日志。不含分隔符的行直接忽略，不算错误。
func ReadLog(dir string) ([]LogEntry, error) {
	f, err := os.Open(LogPath(dir))
	if err != nil {
		return nil, fmt.Errorf("cannot read rename log: %w", err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.Contains(line, logSeparator) {
			continue
		}
		parts := strings.SplitN(line, logSeparator, 2)
		entries = append(entries, LogEntry{OldPath: parts[0], NewPath: parts[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read rename log: %w", err)
	}
	return entries, nil
}

// DeleteLog 删除目录日志。独立步骤，失败不影响已统计的恢复结果。
func DeleteLog(dir string) error {
	return os.Remove(LogPath(dir))
}

// PeekLog 返回日志原文和它是否包含至少一条格式合法的记录，
// 对应恢复前的 "Load Backup File" 预览。
func PeekLog(dir string) (string, bool, error) {
	data, err := os.ReadFile(LogPath(dir))
	if err != nil {
		return "", false, err
	}
	content := string(data)
	return content, strings.Contains(content, logSeparator), nil
}
