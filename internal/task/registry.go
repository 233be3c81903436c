package task

// Registry holds in-flight tasks. Owner goroutine only.
type Registry struct {
	tasks []Task
}

func NewRegistry() *Registry {
	return &Registry{tasks: make([]Task, 0, 16)}
}

// Track adds t unless it has already resolved.
func (r *Registry) Track(t Task) {
	if t == nil || t.Status() != Pending {
		return
	}
	r.tasks = append(r.tasks, t)
}

// Purge drops every task that is no longer pending and returns how many
// were removed.
func (r *Registry) Purge() int {
	kept := r.tasks[:0]
	for _, t := range r.tasks {
		if t.Status() == Pending {
			kept = append(kept, t)
		}
	}
	removed := len(r.tasks) - len(kept)
	for i := len(kept); i < len(r.tasks); i++ {
		r.tasks[i] = nil
	}
	r.tasks = kept
	return removed
}

func (r *Registry) Len() int    { return len(r.tasks) }
func (r *Registry) Empty() bool { return len(r.tasks) == 0 }

// Clear forgets all tasks without touching them.
func (r *Registry) Clear() {
	for i := range r.tasks {
		r.tasks[i] = nil
	}
	r.tasks = r.tasks[:0]
}
