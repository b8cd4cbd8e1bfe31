package executor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/solthius/episode-manager/internal/planner"
)

// Options 控制批量执行过程中的回调。
// OnProgress 在每个条目处理前调用一次；Cancelled 在条目之间被轮询，
// 返回 true 时停止后续条目。已经发出的改名永远不会被取消回滚。
type Options struct {
	OnProgress func(index, total int, item string)
	Cancelled  func() bool
}

func (o Options) progress(i, total int, item string) {
	if o.OnProgress != nil {
		o.OnProgress(i, total, item)
	}
}

func (o Options) cancelled() bool {
	return o.Cancelled != nil && o.Cancelled()
}

// ApplyResult 一次重命名批次的结果描述。
// 日志落盘失败不再被吞掉：LogPersisted/LogError 把
// "改名成功但日志丢了" 和 "改名成功且日志在" 区分开。
type ApplyResult struct {
	Entries      []LogEntry `json:"entries"`
	Success      int        `json:"success"`
	ErrorCount   int        `json:"error_count"`
	Errors       []string   `json:"errors,omitempty"`
	Cancelled    bool       `json:"cancelled"`
	LogPersisted bool       `json:"log_persisted"`
	LogError     string     `json:"log_error,omitempty"`
}

// Apply 按计划顺序逐个执行重命名。单个失败只计数并继续，
// 不回滚之前成功的条目。循环结束后（无论是否有失败）把累积的
// 记录整批写入目录日志。
func Apply(plan planner.Plan, opts Options) ApplyResult {
	var res ApplyResult
	total := len(plan.Items)

	for i, item := range plan.Items {
		if opts.cancelled() {
			res.Cancelled = true
			break
		}
		opts.progress(i, total, item.SourceName)

		newPath := filepath.Join(plan.Directory, item.NewName)
		if err := os.Rename(item.SourcePath, newPath); err != nil {
			res.ErrorCount++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", item.SourceName, err))
			continue
		}
		res.Entries = append(res.Entries, LogEntry{OldPath: item.SourcePath, NewPath: newPath})
		res.Success++
	}

	if err := WriteLog(plan.Directory, res.Entries); err != nil {
		res.LogError = err.Error()
	} else {
		res.LogPersisted = true
	}
	return res
}

// RestoreResult 一次恢复批次的结果描述
type RestoreResult struct {
	Lines         []string `json:"lines"`
	RestoredCount int      `json:"restored_count"`
	SkippedCount  int      `json:"skipped_count"`
	ErrorCount    int      `json:"error_count"`
	Cancelled     bool     `json:"cancelled"`
}

// restorePair 恢复映射里的一项：newPath 是当前磁盘名，oldPath 是要恢复的名字
type restorePair struct {
	newPath string
	oldPath string
}

// buildRestoreMap 由日志记录构建恢复映射。
// 重复的 newPath 采用后写覆盖，但保留首次出现的位置作为迭代顺序，
// 等价于按日志顺序折叠重复键。
func buildRestoreMap(entries []LogEntry) []restorePair {
	index := make(map[string]int, len(entries))
	var pairs []restorePair
	for _, e := range entries {
		if i, ok := index[e.NewPath]; ok {
			pairs[i].oldPath = e.OldPath
			continue
		}
		index[e.NewPath] = len(pairs)
		pairs = append(pairs, restorePair{newPath: e.NewPath, oldPath: e.OldPath})
	}
	return pairs
}

// Restore 读取目录日志并把文件改回原名。
// 日志读不出来对这次恢复是致命的；
// 单条恢复失败只计数并继续；磁盘上已不存在的源只跳过，不算错误。
func Restore(dir string, opts Options) (RestoreResult, error) {
	var res RestoreResult

	entries, err := ReadLog(dir)
	if err != nil {
		return res, err
	}

	pairs := buildRestoreMap(entries)
	total := len(pairs)

	for i, p := range pairs {
		if opts.cancelled() {
			res.Cancelled = true
			break
		}
		opts.progress(i, total, filepath.Base(p.newPath))

		if _, err := os.Stat(p.newPath); err != nil {
			res.SkippedCount++
			res.Lines = append(res.Lines, fmt.Sprintf("Skipped: %s (file not found)", filepath.Base(p.newPath)))
			continue
		}
		if err := os.Rename(p.newPath, p.oldPath); err != nil {
			res.ErrorCount++
			res.Lines = append(res.Lines, fmt.Sprintf("Error: %s - %v", filepath.Base(p.newPath), err))
			continue
		}
		res.RestoredCount++
		res.Lines = append(res.Lines, fmt.Sprintf("Restored: %s -> %s", filepath.Base(p.newPath), filepath.Base(p.oldPath)))
	}

	return res, nil
}
