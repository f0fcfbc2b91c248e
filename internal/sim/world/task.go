package world

import "fmt"

// Task is a unit of behaviour in a unit's queue. Only the head of the queue
// is stepped, once per tick. A task may push subtasks onto the front of the
// queue and step them immediately in the same tick.
type Task interface {
	// Kind names the task in events and logs.
	Kind() string
	// Exclusive tasks replace the whole queue when assigned with AssignNow.
	Exclusive() bool
	// Eligible reports whether u may run this task.
	Eligible(u *Unit) bool
	Step(w *World, u *Unit)
}

// Abandoner is implemented by tasks that hold something outside the unit,
// such as an undeployed structure kit. Abandon runs when the task leaves the
// queue without completing.
type Abandoner interface {
	Abandon(w *World, u *Unit)
}

// Queue returns a copy of the pending tasks, head first.
func (u *Unit) Queue() []Task {
	out := make([]Task, len(u.queue))
	copy(out, u.queue)
	return out
}

func (u *Unit) CurrentTask() Task {
	if len(u.queue) == 0 {
		return nil
	}
	return u.queue[0]
}

func (u *Unit) IsIdle() bool { return len(u.queue) == 0 }

func (u *Unit) checkEligible(t Task) error {
	if t == nil {
		return fmt.Errorf("%w: nil task", ErrInvalidTask)
	}
	if u.dead {
		return fmt.Errorf("%w: unit %d is dead", ErrIneligibleUnit, u.ID)
	}
	if !t.Eligible(u) {
		return fmt.Errorf("%w: %s cannot run %s", ErrIneligibleUnit, u.Type.Name, t.Kind())
	}
	return nil
}

// AssignNow replaces the queue with t when t is exclusive and appends it
// otherwise.
func (u *Unit) AssignNow(t Task) error {
	if err := u.checkEligible(t); err != nil {
		return err
	}
	if t.Exclusive() {
		dropped := u.queue
		u.queue = []Task{t}
		u.dropTasks(dropped, t)
		return nil
	}
	u.queue = append(u.queue, t)
	return nil
}

// AssignNext pushes t to the front of the queue so it runs before the
// current head.
func (u *Unit) AssignNext(t Task) error {
	if err := u.checkEligible(t); err != nil {
		return err
	}
	q := make([]Task, 0, len(u.queue)+1)
	q = append(q, t)
	u.queue = append(q, u.queue...)
	return nil
}

// Interrupt abandons everything the unit was doing and runs t instead.
// Reservations held by the unit are released and the activity is reset.
func (u *Unit) Interrupt(t Task) error {
	if err := u.checkEligible(t); err != nil {
		return err
	}
	dropped := u.queue
	u.abandon()
	u.queue = []Task{t}
	u.dropTasks(dropped, t)
	return nil
}

// Stop abandons all tasks and leaves the unit idle.
func (u *Unit) Stop() {
	dropped := u.queue
	u.abandon()
	u.queue = nil
	u.dropTasks(dropped, nil)
}

func (u *Unit) abandon() {
	if u.world != nil {
		u.world.m.Release(u)
	}
	u.SetActivity(ActivityStill)
	u.ResetAnimationFrame()
}

func (u *Unit) dropTasks(dropped []Task, keep Task) {
	if u.world == nil {
		return
	}
	for _, t := range dropped {
		if a, ok := t.(Abandoner); ok && t != keep {
			a.Abandon(u.world, u)
		}
	}
}

// CompleteTask removes t from the queue. Completing a task that is no longer
// queued is a no-op.
func (u *Unit) CompleteTask(t Task) bool {
	for i, q := range u.queue {
		if q == t {
			u.queue = append(u.queue[:i:i], u.queue[i+1:]...)
			return true
		}
	}
	return false
}

// Step runs the head task. Tasks call it again after pushing a subtask;
// recursion deeper than MaxNestedSteps ends the tick for this unit.
func (u *Unit) Step(w *World) {
	if u.dead || u.disabled || len(u.queue) == 0 {
		return
	}
	if u.stepDepth >= w.cfg.Tuning.MaxNestedSteps {
		w.logf("unit %d: nested step limit reached in %s", u.ID, u.queue[0].Kind())
		return
	}
	u.stepDepth++
	defer func() { u.stepDepth-- }()
	u.queue[0].Step(w, u)
}
