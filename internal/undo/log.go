package undo

import (
	"github.com/verte-zerg/klondike/internal/board"
)

// DefaultCapacity is the number of actions kept for undo.
const DefaultCapacity = 10

// Log is a bounded LIFO of actions. Pushing past capacity silently drops
// the oldest entry.
type Log struct {
	capacity int
	actions  []Action
}

// NewLog returns an empty log. Non-positive capacities use DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Push appends a.
func (l *Log) Push(a Action) {
	l.actions = append(l.actions, a)
	if over := len(l.actions) - l.capacity; over > 0 {
		l.actions = append(l.actions[:0:0], l.actions[over:]...)
	}
}

// Pop removes and returns the newest action.
func (l *Log) Pop() (Action, bool) {
	if len(l.actions) == 0 {
		return nil, false
	}
	a := l.actions[len(l.actions)-1]
	l.actions = l.actions[:len(l.actions)-1]
	return a, true
}

// Len returns the number of recorded actions.
func (l *Log) Len() int {
	return len(l.actions)
}

// Clear drops every recorded action.
func (l *Log) Clear() {
	l.actions = nil
}

// UndoLast pops the newest action and reverts it on b. An empty log is a no-op.
// If the revert fails the action is dropped and the error returned.
func (l *Log) UndoLast(b *board.Board) (Action, bool, error) {
	a, ok := l.Pop()
	if !ok {
		return nil, false, nil
	}
	if err := Revert(b, a); err != nil {
		return nil, false, err
	}
	return a, true, nil
}
