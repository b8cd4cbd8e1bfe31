package worker

import (
	"testing"
	"time"
)

func TestSubmit_ResultAvailableAfterDone(t *testing.T) {
	task := Submit(func(cancelled func() bool) interface{} {
		return 42
	})

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not complete")
	}

	if got := task.Result(); got != 42 {
		t.Errorf("result = %v, expected 42", got)
	}
}

func TestTask_ResultNilBeforeDone(t *testing.T) {
	block := make(chan struct{})
	task := Submit(func(cancelled func() bool) interface{} {
		<-block
		return "done"
	})

	if task.Result() != nil {
		t.Error("result should be nil before completion")
	}
	close(block)
	<-task.Done()
	if task.Result() != "done" {
		t.Error("result missing after completion")
	}
}

func TestTask_CancelObservedBetweenItems(t *testing.T) {
	started := make(chan struct{})
	proceed := make(chan struct{})

	task := Submit(func(cancelled func() bool) interface{} {
		close(started)
		<-proceed
		// 模拟条目间的检查点
		if cancelled() {
			return "cancelled"
		}
		return "finished"
	})

	<-started
	task.Cancel()
	close(proceed)
	<-task.Done()

	if task.Result() != "cancelled" {
		t.Errorf("result = %v, expected cancelled", task.Result())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	task := Submit(func(cancelled func() bool) interface{} { return nil })
	r.Add("run-1", task)

	if got, ok := r.Get("run-1"); !ok || got != task {
		t.Fatal("task not found in registry")
	}
	r.Remove("run-1")
	if _, ok := r.Get("run-1"); ok {
		t.Fatal("task still in registry after remove")
	}
}

func TestRegistry_SweepRemovesOnlyCompleted(t *testing.T) {
	r := NewRegistry()

	finished := Submit(func(cancelled func() bool) interface{} { return nil })
	select {
	case <-finished.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not complete")
	}

	block := make(chan struct{})
	running := Submit(func(cancelled func() bool) interface{} {
		<-block
		return nil
	})
	defer close(block)

	r.Add("finished", finished)
	r.Add("running", running)
	r.Sweep()

	if _, ok := r.Get("finished"); ok {
		t.Error("completed task should have been swept")
	}
	if _, ok := r.Get("running"); !ok {
		t.Error("in-flight task must survive a sweep")
	}
}
