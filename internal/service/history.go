package service

import (
	"log"
	"time"

	"github.com/solthius/episode-manager/internal/db"
	"github.com/solthius/episode-manager/internal/model"
	"golang.org/x/sync/errgroup"
)

// ListRuns 按时间倒序返回最近的批次
func ListRuns(limit int) ([]model.RenameRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []model.RenameRun
	err := db.DB.Order("created_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}

// RunRecords 返回某个批次的逐文件明细
func RunRecords(runID string) ([]model.RenameRecord, error) {
	var records []model.RenameRecord
	err := db.DB.Where("run_id = ?", runID).Order("id asc").Find(&records).Error
	return records, err
}

// HistoryStats 历史统计摘要
type HistoryStats struct {
	TotalRuns    int64 `json:"total_runs"`
	RenameRuns   int64 `json:"rename_runs"`
	RestoreRuns  int64 `json:"restore_runs"`
	TotalRecords int64 `json:"total_records"`
}

// Stats 并行聚合各项计数
func Stats() (HistoryStats, error) {
	var s HistoryStats
	var eg errgroup.Group

	eg.Go(func() error {
		return db.DB.Model(&model.RenameRun{}).Count(&s.TotalRuns).Error
	})
	eg.Go(func() error {
		return db.DB.Model(&model.RenameRun{}).Where("kind = ?", model.RunKindRename).Count(&s.RenameRuns).Error
	})
	eg.Go(func() error {
		return db.DB.Model(&model.RenameRun{}).Where("kind = ?", model.RunKindRestore).Count(&s.RestoreRuns).Error
	})
	eg.Go(func() error {
		return db.DB.Model(&model.RenameRecord{}).Count(&s.TotalRecords).Error
	})

	if err := eg.Wait(); err != nil {
		return HistoryStats{}, err
	}
	return s, nil
}

// PruneBefore 删除 cutoff 之前的批次和明细，返回清掉的批次数
func PruneBefore(cutoff time.Time) (int64, error) {
	var runIDs []string
	if err := db.DB.Model(&model.RenameRun{}).
		Where("created_at < ?", cutoff).
		Pluck("run_id", &runIDs).Error; err != nil {
		return 0, err
	}
	if len(runIDs) == 0 {
		return 0, nil
	}

	if err := db.DB.Where("run_id IN ?", runIDs).Delete(&model.RenameRecord{}).Error; err != nil {
		return 0, err
	}
	res := db.DB.Where("run_id IN ?", runIDs).Delete(&model.RenameRun{})
	if res.Error != nil {
		return 0, res.Error
	}
	log.Printf("History: pruned %d runs older than %s", res.RowsAffected, cutoff.Format("2006-01-02"))
	return res.RowsAffected, nil
}
