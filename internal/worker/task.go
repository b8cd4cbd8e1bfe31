package worker

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Task 一个后台执行单元：提交后拿到 future，完成后取结构化结果。
// Cancel 只设标志位，由执行体在条目之间轮询；
// 已经做完的工作不会被取消撤销。
type Task struct {
	ID string

	done      chan struct{}
	cancelled atomic.Bool

	mu     sync.Mutex
	result interface{}
}

// Fn 执行体签名。cancelled 必须在每个条目之间轮询一次。
type Fn func(cancelled func() bool) interface{}

// Submit 启动一个后台任务
func Submit(fn Fn) *Task {
	t := &Task{
		ID:   uuid.New().String(),
		done: make(chan struct{}),
	}
	go func() {
		res := fn(t.cancelled.Load)
		t.mu.Lock()
		t.result = res
		t.mu.Unlock()
		close(t.done)
	}()
	return t
}

// Cancel 请求取消，只对尚未开始的条目生效
func (t *Task) Cancel() {
	t.cancelled.Store(true)
}

// Done 完成通知
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result 任务结果；未完成时返回 nil
func (t *Task) Result() interface{} {
	select {
	case <-t.done:
	default:
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Registry 按调用方给定的 ID（如批次 runID）跟踪任务，供 API 查询和取消
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

func (r *Registry) Add(id string, t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[id] = t
}

func (r *Registry) Get(id string) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	return t, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}

// Sweep 清掉所有已完成的任务，防止长期运行下无限堆积。
// 已完成任务被清掉后，最终状态仍然可以从历史记录里查到。
func (r *Registry) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tasks {
		select {
		case <-t.done:
			delete(r.tasks, id)
		default:
		}
	}
}
