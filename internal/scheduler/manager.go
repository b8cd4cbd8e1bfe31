package scheduler

import (
	"log"
	"time"

	"github.com/solthius/episode-manager/internal/config"
	"github.com/solthius/episode-manager/internal/service"
)

type Manager struct {
	ticker *time.Ticker
	quit   chan struct{}
}

func NewManager() *Manager {
	// 每24小时清理一次历史
	return &Manager{
		ticker: time.NewTicker(24 * time.Hour),
		quit:   make(chan struct{}),
	}
}

func (m *Manager) Start() {
	log.Println("Scheduler started...")
	go func() {
		for {
			select {
			case <-m.ticker.C:
				m.PruneHistory()
			case <-m.quit:
				m.ticker.Stop()
				return
			}
		}
	}()
	// 立即执行一次
	go m.PruneHistory()
}

func (m *Manager) Stop() {
	close(m.quit)
	log.Println("Scheduler stopped.")
}

// PruneHistory 按保留天数清理过期的批次记录
func (m *Manager) PruneHistory() {
	days := config.AppConfig.History.RetentionDays
	if days <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	pruned, err := service.PruneBefore(cutoff)
	if err != nil {
		log.Printf("Scheduler: history prune failed: %v", err)
		return
	}
	if pruned > 0 {
		log.Printf("Scheduler: pruned %d expired runs", pruned)
	}
}
