package service

import "sync"

// RecentList 最近使用目录的有界 MRU 列表。
// 由应用控制器持有并传给需要它的界面层，不做持久化。
type RecentList struct {
	mu   sync.Mutex
	max  int
	dirs []string
}

func NewRecentList(max int) *RecentList {
	return &RecentList{max: max}
}

// Add 记录一次目录使用：已存在则先移除再插到最前，超出上限截断
func (r *RecentList) Add(dir string) {
	if dir == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]string, 0, len(r.dirs)+1)
	next = append(next, dir)
	for _, d := range r.dirs {
		if d != dir {
			next = append(next, d)
		}
	}
	if len(next) > r.max {
		next = next[:r.max]
	}
	r.dirs = next
}

// List 返回最近优先的快照
func (r *RecentList) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.dirs))
	copy(out, r.dirs)
	return out
}
