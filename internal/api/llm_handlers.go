package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LLMStatusHandler 探测 Ollama 可用性和模型清单
func (h *Handlers) LLMStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.LLM.Status())
}

// LLMDetectRequest 探测请求体
type LLMDetectRequest struct {
	Directory string `json:"directory"`
}

// LLMDetectHandler 对目录文件名跑一次模型探测。
// 失败只意味着没有建议，表单值不动。
func (h *Handlers) LLMDetectHandler(c *gin.Context) {
	var req LLMDetectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Directory == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "directory is required"})
		return
	}

	result, err := h.LLM.Detect(req.Directory)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// LLMSetModelRequest 模型选择请求体
type LLMSetModelRequest struct {
	Model string `json:"model"`
}

// LLMSetModelHandler 持久化模型选择
func (h *Handlers) LLMSetModelHandler(c *gin.Context) {
	var req LLMSetModelRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Model == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model is required"})
		return
	}
	if err := h.LLM.SetModel(req.Model); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model": req.Model})
}
