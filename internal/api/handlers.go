package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/solthius/episode-manager/internal/executor"
	"github.com/solthius/episode-manager/internal/pattern"
	"github.com/solthius/episode-manager/internal/planner"
	"github.com/solthius/episode-manager/internal/service"
)

// RenameRequest 预览和执行共用的请求体
type RenameRequest struct {
	Directory        string `json:"directory"`
	Show             string `json:"show"`
	Season           string `json:"season"`
	StartEpisode     int    `json:"start_episode"`
	Pattern          string `json:"pattern"`
	IncludeVideo     *bool  `json:"include_video"`
	IncludeSubtitles *bool  `json:"include_subtitles"`
}

func (r RenameRequest) toPlannerRequest() planner.Request {
	// 两个开关默认打开，对齐原来界面上的勾选初始值
	includeVideo, includeSubs := true, true
	if r.IncludeVideo != nil {
		includeVideo = *r.IncludeVideo
	}
	if r.IncludeSubtitles != nil {
		includeSubs = *r.IncludeSubtitles
	}
	return planner.Request{
		Directory:        r.Directory,
		Show:             r.Show,
		Season:           r.Season,
		StartEpisode:     r.StartEpisode,
		Pattern:          r.Pattern,
		IncludeVideo:     includeVideo,
		IncludeSubtitles: includeSubs,
	}
}

// PreviewHandler 生成重命名计划但不执行
func (h *Handlers) PreviewHandler(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	plan, err := h.Manager.Preview(req.toPlannerRequest())
	if err != nil {
		// 目录读不了是非致命状况：空计划加错误消息
		c.JSON(http.StatusOK, gin.H{"plan": plan, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan, "count": len(plan.Items)})
}

// RenameHandler 提交后台重命名批次，返回 run_id
func (h *Handlers) RenameHandler(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	runID, err := h.Manager.StartRename(req.toPlannerRequest())
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, service.ErrDirectoryBusy) {
			code = http.StatusConflict
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run_id": runID})
}

// RunStatusHandler 查询批次进度与结果
func (h *Handlers) RunStatusHandler(c *gin.Context) {
	status, err := h.Manager.RunStatus(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// CancelRunHandler 请求取消；只对未开始的条目生效
func (h *Handlers) CancelRunHandler(c *gin.Context) {
	if !h.Manager.CancelRun(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found or already finished"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancel requested"})
}

// PeekBackupHandler 恢复前预览日志内容
func (h *Handlers) PeekBackupHandler(c *gin.Context) {
	dir := c.Query("directory")
	if dir == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "directory is required"})
		return
	}
	content, valid, err := executor.PeekLog(dir)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No backup file found in this directory."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content, "valid": valid})
}

// RestoreRequest 恢复请求体
type RestoreRequest struct {
	Directory string `json:"directory"`
	DeleteLog bool   `json:"delete_log"`
}

// RestoreHandler 同步执行恢复
func (h *Handlers) RestoreHandler(c *gin.Context) {
	var req RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// 客户端断开即视为取消请求，在下一个条目检查点生效
	outcome, err := h.Manager.Restore(c.Request.Context(), req.Directory, req.DeleteLog)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// DeleteBackupHandler 独立的日志删除步骤
func (h *Handlers) DeleteBackupHandler(c *gin.Context) {
	dir := c.Query("directory")
	if dir == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "directory is required"})
		return
	}
	if err := executor.DeleteLog(dir); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// RecentHandler 最近目录列表
func (h *Handlers) RecentHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"directories": h.Manager.Recent.List()})
}

// HistoryHandler 最近批次
func (h *Handlers) HistoryHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := service.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// HistoryRecordsHandler 批次明细
func (h *Handlers) HistoryRecordsHandler(c *gin.Context) {
	records, err := service.RunRecords(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// HistoryStatsHandler 历史统计
func (h *Handlers) HistoryStatsHandler(c *gin.Context) {
	stats, err := service.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PatternsHandler 内置模板清单
func (h *Handlers) PatternsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"patterns": pattern.BuiltIn()})
}
