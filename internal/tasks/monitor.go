package tasks

import "sync"

// TaskInfo is what the monitor knows about one running task.
type TaskInfo struct {
	Name        string   `json:"name"`
	Priority    Priority `json:"priority"`
	StackBudget int      `json:"stack_budget"` // bytes, bookkeeping only
}

// Monitor is the running-task registry. Supervisors and the web monitor
// read it to see what is alive; the watchdog decides whether anything
// alive has stalled.
type Monitor struct {
	mu      sync.RWMutex
	entries map[string]TaskInfo
	handles map[string]*Task
}

func NewMonitor() *Monitor {
	return &Monitor{
		entries: make(map[string]TaskInfo),
		handles: make(map[string]*Task),
	}
}

// RegisterTask records a spawned task under its id.
func (m *Monitor) RegisterTask(id string, handle *Task, prio Priority, stackBudget int) {
	m.mu.Lock()
	m.entries[id] = TaskInfo{Name: id, Priority: prio, StackBudget: stackBudget}
	m.handles[id] = handle
	m.mu.Unlock()
}

// Running returns a snapshot of all registered tasks.
func (m *Monitor) Running() []TaskInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TaskInfo, 0, len(m.entries))
	for _, info := range m.entries {
		out = append(out, info)
	}
	return out
}
