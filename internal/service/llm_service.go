package service

import (
	"fmt"
	"log"

	"github.com/solthius/episode-manager/internal/config"
	"github.com/solthius/episode-manager/internal/db"
	"github.com/solthius/episode-manager/internal/event"
	"github.com/solthius/episode-manager/internal/llm"
	"github.com/solthius/episode-manager/internal/model"
	"github.com/solthius/episode-manager/internal/planner"
	"golang.org/x/sync/errgroup"
)

// LLMService 封装探测工作流：取文件名样本、调模型、回填建议。
// 模型不可达或响应解析失败都只降级为“没有建议”。
type LLMService struct{}

func NewLLMService() *LLMService {
	return &LLMService{}
}

// client 按当前配置和 DB 覆盖值构建客户端
func (s *LLMService) client() *llm.Client {
	url := config.AppConfig.Ollama.URL
	modelName := config.AppConfig.Ollama.Model

	// DB 里的设置覆盖配置文件（对应原来的 LLM 设置对话框）
	var configs []model.GlobalConfig
	if err := db.DB.Find(&configs).Error; err == nil {
		for _, c := range configs {
			switch c.Key {
			case model.ConfigKeyLLMModel:
				if c.Value != "" {
					modelName = c.Value
				}
			case model.ConfigKeyOllamaURL:
				if c.Value != "" {
					url = c.Value
				}
			}
		}
	}

	return llm.NewClient(url, modelName,
		config.AppConfig.Ollama.RequestTimeout,
		config.AppConfig.Ollama.ProbeTimeout)
}

// DetectResult 探测结果和完整往返日志
type DetectResult struct {
	Detection *llm.Detection `json:"detection"`
	CallLog   *llm.CallLog   `json:"call_log"`
}

// Detect 对目录里的媒体文件名跑一次探测
func (s *LLMService) Detect(dir string) (*DetectResult, error) {
	c := s.client()
	if !c.Available() {
		return nil, fmt.Errorf("cannot connect to Ollama, is it running?")
	}

	names, err := planner.ListMediaNames(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read directory: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no video or subtitle files found in directory")
	}

	log.Printf("LLM: starting detection with %d files", len(names))
	detection, callLog, err := c.DetectShowInfo(names)
	if err != nil {
		return nil, err
	}
	log.Printf("LLM: detection finished in %dms", callLog.DurationMS)

	event.GlobalBus.Publish(event.EventDetectComplete, map[string]interface{}{
		"directory":   dir,
		"duration_ms": callLog.DurationMS,
	})
	return &DetectResult{Detection: detection, CallLog: callLog}, nil
}

// LLMStatus 服务可用性和模型清单
type LLMStatus struct {
	Available bool     `json:"available"`
	Model     string   `json:"model"`
	Models    []string `json:"models"`
}

// Status 并行探测可用性和模型列表
func (s *LLMService) Status() LLMStatus {
	c := s.client()
	status := LLMStatus{Model: c.Model}

	var eg errgroup.Group
	eg.Go(func() error {
		status.Available = c.Available()
		return nil
	})
	eg.Go(func() error {
		models, err := c.Models()
		if err != nil {
			// 列表拿不到不算致命
			return nil
		}
		status.Models = models
		return nil
	})
	_ = eg.Wait()
	return status
}

// SetModel 持久化模型选择
func (s *LLMService) SetModel(name string) error {
	cfg := model.GlobalConfig{Key: model.ConfigKeyLLMModel, Value: name}
	return db.DB.Save(&cfg).Error
}
