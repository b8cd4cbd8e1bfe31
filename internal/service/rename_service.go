package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/solthius/episode-manager/internal/db"
	"github.com/solthius/episode-manager/internal/event"
	"github.com/solthius/episode-manager/internal/executor"
	"github.com/solthius/episode-manager/internal/model"
	"github.com/solthius/episode-manager/internal/planner"
	"github.com/solthius/episode-manager/internal/worker"
)

// Manager 驱动整个重命名工作流：预览、后台执行、同步恢复。
// 同一目录同一时间只允许一个在途批次，这里用 active 表守住
// （原来靠禁用按钮保证的约束）。
type Manager struct {
	Tasks  *worker.Registry // runID -> 在途任务
	Recent *RecentList

	mu     sync.Mutex
	active map[string]string // directory -> runID
}

// ErrDirectoryBusy 表示目标目录已有在途批次
var ErrDirectoryBusy = errors.New("directory busy")

func NewManager() *Manager {
	return &Manager{
		Tasks:  worker.NewRegistry(),
		Recent: NewRecentList(5),
		active: make(map[string]string),
	}
}

// ValidateRequest 开工前的输入校验，对应错误分类里的
// “校验失败：立即上报，操作不启动”。
func ValidateRequest(req planner.Request) error {
	if strings.TrimSpace(req.Directory) == "" {
		return fmt.Errorf("please select a directory")
	}
	if strings.TrimSpace(req.Show) == "" {
		return fmt.Errorf("please enter a show name")
	}
	if strings.TrimSpace(req.Season) == "" {
		return fmt.Errorf("please enter a season identifier (e.g. S1)")
	}
	if strings.TrimSpace(req.Pattern) == "" {
		return fmt.Errorf("please enter a naming pattern")
	}
	return nil
}

// Preview 校验输入并生成计划
func (m *Manager) Preview(req planner.Request) (planner.Plan, error) {
	if err := ValidateRequest(req); err != nil {
		return planner.Plan{}, err
	}
	plan, err := planner.Build(req)
	if err != nil {
		return plan, err
	}
	m.Recent.Add(req.Directory)
	return plan, nil
}

// RenameOutcome 批次完成后的结构化结果
type RenameOutcome struct {
	RunID  string               `json:"run_id"`
	Result executor.ApplyResult `json:"result"`
}

// StartRename 生成计划并提交后台任务，立刻返回 runID。
// 进度和完成通过事件总线广播，取消请求只在条目之间生效。
func (m *Manager) StartRename(req planner.Request) (string, error) {
	plan, err := m.Preview(req)
	if err != nil {
		return "", err
	}
	if len(plan.Items) == 0 {
		return "", fmt.Errorf("no files found for renaming")
	}

	m.mu.Lock()
	if runID, busy := m.active[req.Directory]; busy {
		m.mu.Unlock()
		return "", fmt.Errorf("a rename run (%s) is already in progress for this directory: %w", runID, ErrDirectoryBusy)
	}
	runID := uuid.New().String()
	m.active[req.Directory] = runID
	m.mu.Unlock()

	run := model.RenameRun{
		RunID:        runID,
		Kind:         model.RunKindRename,
		Directory:    req.Directory,
		Show:         req.Show,
		Season:       req.Season,
		StartEpisode: req.StartEpisode,
		Pattern:      req.Pattern,
		Status:       model.RunStatusRunning,
	}
	if err := db.DB.Create(&run).Error; err != nil {
		log.Printf("Manager: failed to record run %s: %v", runID, err)
	}

	task := worker.Submit(func(cancelled func() bool) interface{} {
		res := executor.Apply(plan, executor.Options{
			OnProgress: func(i, total int, item string) {
				event.GlobalBus.Publish(event.EventRenameProgress, map[string]interface{}{
					"run_id": runID,
					"index":  i,
					"total":  total,
					"item":   item,
				})
			},
			Cancelled: cancelled,
		})
		m.finishRename(runID, req.Directory, plan, res)
		return RenameOutcome{RunID: runID, Result: res}
	})

	// 顺带清掉已完成批次，注册表里只留在途和最近结束的任务
	m.Tasks.Sweep()
	m.Tasks.Add(runID, task)

	return runID, nil
}

func (m *Manager) finishRename(runID, dir string, plan planner.Plan, res executor.ApplyResult) {
	m.mu.Lock()
	delete(m.active, dir)
	m.mu.Unlock()

	status := model.RunStatusCompleted
	if res.Cancelled {
		status = model.RunStatusCancelled
	}
	updates := map[string]interface{}{
		"status":        status,
		"success":       res.Success,
		"errors":        res.ErrorCount,
		"log_persisted": res.LogPersisted,
	}
	if err := db.DB.Model(&model.RenameRun{}).Where("run_id = ?", runID).Updates(updates).Error; err != nil {
		log.Printf("Manager: failed to finalize run %s: %v", runID, err)
	}

	records := make([]model.RenameRecord, 0, len(res.Entries)+len(res.Errors))
	for _, e := range res.Entries {
		records = append(records, model.RenameRecord{
			RunID: runID, OldPath: e.OldPath, NewPath: e.NewPath, Status: "renamed",
		})
	}
	for _, msg := range res.Errors {
		records = append(records, model.RenameRecord{RunID: runID, Status: "error", Detail: msg})
	}
	if len(records) > 0 {
		if err := db.DB.Create(&records).Error; err != nil {
			log.Printf("Manager: failed to record entries for %s: %v", runID, err)
		}
	}

	if !res.LogPersisted {
		// 改名已经发生，只是审计日志没写上——必须让调用方看见
		log.Printf("Manager: run %s renamed %d files but FAILED to persist %s: %s",
			runID, res.Success, planner.BackupLogName, res.LogError)
	}

	event.GlobalBus.Publish(event.EventRenameComplete, map[string]interface{}{
		"run_id":        runID,
		"success":       res.Success,
		"errors":        res.ErrorCount,
		"cancelled":     res.Cancelled,
		"log_persisted": res.LogPersisted,
	})
}

// CancelRun 请求取消在途批次；已完成的条目不会回滚
func (m *Manager) CancelRun(runID string) bool {
	task, ok := m.Tasks.Get(runID)
	if !ok {
		return false
	}
	task.Cancel()
	return true
}

// RunStatus 查询批次状态
type RunStatus struct {
	Run     model.RenameRun `json:"run"`
	Done    bool            `json:"done"`
	Outcome *RenameOutcome  `json:"outcome,omitempty"`
}

func (m *Manager) RunStatus(runID string) (RunStatus, error) {
	var run model.RenameRun
	if err := db.DB.Where("run_id = ?", runID).First(&run).Error; err != nil {
		return RunStatus{}, fmt.Errorf("run not found: %w", err)
	}

	status := RunStatus{Run: run}
	task, ok := m.Tasks.Get(runID)
	if !ok {
		// 任务已被清扫，最终状态以历史记录为准
		status.Done = run.Status != model.RunStatusRunning
		return status, nil
	}

	select {
	case <-task.Done():
		status.Done = true
		if out, ok := task.Result().(RenameOutcome); ok {
			status.Outcome = &out
		}
	default:
	}
	return status, nil
}

// RestoreOutcome 恢复批次的结构化结果。
// 日志删除是独立一步，它的失败不影响恢复计数。
type RestoreOutcome struct {
	RunID      string                 `json:"run_id"`
	Result     executor.RestoreResult `json:"result"`
	LogDeleted bool                   `json:"log_deleted"`
	DeleteErr  string                 `json:"delete_error,omitempty"`
}

// Restore 同步执行恢复（设计如此：恢复期间界面就是阻塞的）。
// ctx 取消只在条目之间被检查，与重命名的取消粒度一致。
func (m *Manager) Restore(ctx context.Context, dir string, deleteLog bool) (RestoreOutcome, error) {
	if strings.TrimSpace(dir) == "" {
		return RestoreOutcome{}, fmt.Errorf("please select a directory")
	}

	runID := uuid.New().String()
	res, err := executor.Restore(dir, executor.Options{
		OnProgress: func(i, total int, item string) {
			event.GlobalBus.Publish(event.EventRestoreProgress, map[string]interface{}{
				"run_id": runID,
				"index":  i,
				"total":  total,
				"item":   item,
			})
		},
		Cancelled: func() bool {
			select {
			case <-ctx.Done():
				return true
			default:
				return false
			}
		},
	})
	if err != nil {
		// 日志读不出来，这次恢复什么都没做
		return RestoreOutcome{}, err
	}

	m.Recent.Add(dir)

	status := model.RunStatusCompleted
	if res.Cancelled {
		status = model.RunStatusCancelled
	}
	run := model.RenameRun{
		RunID:     runID,
		Kind:      model.RunKindRestore,
		Directory: dir,
		Status:    status,
		Success:   res.RestoredCount,
		Skipped:   res.SkippedCount,
		Errors:    res.ErrorCount,
	}
	if err := db.DB.Create(&run).Error; err != nil {
		log.Printf("Manager: failed to record restore run: %v", err)
	}

	outcome := RestoreOutcome{RunID: runID, Result: res}
	if deleteLog && res.RestoredCount > 0 {
		if err := executor.DeleteLog(dir); err != nil {
			outcome.DeleteErr = err.Error()
		} else {
			outcome.LogDeleted = true
		}
	}

	event.GlobalBus.Publish(event.EventRestoreComplete, map[string]interface{}{
		"run_id":   runID,
		"restored": res.RestoredCount,
		"skipped":  res.SkippedCount,
		"errors":   res.ErrorCount,
	})
	return outcome, nil
}
