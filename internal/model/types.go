package model

import (
	"gorm.io/gorm"
)

// RenameRun 一次重命名或恢复批次的历史记录。
// 文本日志 rename_backup.txt 仍然是撤销的唯一依据，
// 这里只是落库的审计轨迹，方便回看和统计。
type RenameRun struct {
	gorm.Model
	RunID        string `json:"run_id" gorm:"uniqueIndex"` // UUID
	Kind         string `json:"kind"`                      // "rename" / "restore"
	Directory    string `json:"directory"`
	Show         string `json:"show"`
	Season       string `json:"season"`
	StartEpisode int    `json:"start_episode"`
	Pattern      string `json:"pattern"`
	Status       string `json:"status"` // "running", "completed", "cancelled"
	Success      int    `json:"success"`
	Skipped      int    `json:"skipped"`
	Errors       int    `json:"errors"`
	LogPersisted bool   `json:"log_persisted"` // 文本日志是否成功落盘
}

// RenameRecord 批次内单个文件的处置结果
type RenameRecord struct {
	gorm.Model
	RunID   string `json:"run_id" gorm:"index"`
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	Status  string `json:"status"` // "renamed", "restored", "skipped", "error"
	Detail  string `json:"detail"` // 错误原因等
}

// GlobalConfig 存储全局配置 (单用户，但存在DB里方便迁移)
type GlobalConfig struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

const (
	ConfigKeyLLMModel  = "llm_model"
	ConfigKeyOllamaURL = "ollama_url"
)

const (
	RunKindRename  = "rename"
	RunKindRestore = "restore"

	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusCancelled = "cancelled"
)
