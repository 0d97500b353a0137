package engine

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/robotalks/uci.go/pkg/uci"
)

// TimerAction defines what to do with the response timer.
type TimerAction int

const (
	// TimerNoChange indicates keep the timer as-is.
	TimerNoChange TimerAction = iota
	// TimerRestart to restart the timer with the response timeout.
	TimerRestart
	// TimerRetry to restart the timer with the retry timeout.
	TimerRetry
	// TimerStop to stop/cancel the timer.
	TimerStop
)

// Writer transmits the frames of a command.
type Writer func(frames [][]byte) error

// CommandQueue keeps at most one command waiting for its response and
// queues the others in submission order.
type CommandQueue struct {
	MaxRetry int
	MaxDepth int

	writer        Writer
	window        int
	queue         []*Command
	pending       *Command
	retryCount    int
	statusRetries int
}

// NewCommandQueue creates a CommandQueue transmitting with w.
func NewCommandQueue(w Writer) *CommandQueue {
	return &CommandQueue{writer: w, window: 1}
}

// Window returns 1 when a command can be transmitted, 0 otherwise.
func (q *CommandQueue) Window() int {
	return q.window
}

// Depth returns the number of queued commands.
func (q *CommandQueue) Depth() int {
	return len(q.queue)
}

// InFlight returns the number of commands transmitted and not resolved.
func (q *CommandQueue) InFlight() int {
	if q.pending != nil {
		return 1
	}
	return 0
}

// Pending returns the command waiting for its response.
func (q *CommandQueue) Pending() *Command {
	return q.pending
}

// RetryCount returns the retransmissions after timeouts of the pending
// command.
func (q *CommandQueue) RetryCount() int {
	return q.retryCount
}

// Submit transmits the command if the window is open and nothing is
// queued, otherwise queues it. A transmit failure is returned and leaves
// the window open.
func (q *CommandQueue) Submit(cmd *Command) (TimerAction, error) {
	if q.window == 0 || len(q.queue) > 0 {
		if q.MaxDepth > 0 && len(q.queue) >= q.MaxDepth {
			return TimerNoChange, ErrQueueFull
		}
		q.queue = append(q.queue, cmd)
		glog.V(4).Infof("queued %s, depth %d", cmd, len(q.queue))
		return TimerNoChange, nil
	}
	if err := q.transmit(cmd); err != nil {
		return TimerNoChange, err
	}
	return TimerRestart, nil
}

// OnResponse takes a response. A response not matching the pending
// command is rejected without touching the window. On match the pending
// command is returned and the head of the queue is transmitted.
func (q *CommandQueue) OnResponse(rsp *uci.Packet) (*Command, TimerAction, error) {
	if q.pending == nil {
		return nil, TimerNoChange, fmt.Errorf("%w: %s while nothing pending", ErrUnexpectedResponse, rsp.Name())
	}
	if !q.pending.matches(rsp) {
		return nil, TimerNoChange, fmt.Errorf("%w: %s while waiting for %s", ErrUnexpectedResponse, rsp.Name(), q.pending)
	}
	done := q.pending
	q.pending, q.window, q.retryCount, q.statusRetries = nil, 1, 0, 0
	return done, q.next(), nil
}

// OnTimeout handles expiry of the response timer. The pending command is
// retransmitted until MaxRetry, then it is returned as expired. The window
// stays closed until Flush.
func (q *CommandQueue) OnTimeout() (expired *Command, action TimerAction) {
	if q.pending == nil {
		return nil, TimerStop
	}
	if q.retryCount < q.MaxRetry {
		q.retryCount++
		glog.Warningf("%s timeout, retransmit %d/%d", q.pending, q.retryCount, q.MaxRetry)
		if err := q.writer(q.pending.frames); err != nil {
			glog.Errorf("retransmit %s: %v", q.pending, err)
		}
		return nil, TimerRetry
	}
	expired, q.pending = q.pending, nil
	return expired, TimerStop
}

// Retransmit resends the pending command on request of the controller.
// It has its own bound and doesn't consume timeout retries.
func (q *CommandQueue) Retransmit() (TimerAction, error) {
	if q.pending == nil {
		return TimerNoChange, ErrNoPendingCommand
	}
	if q.statusRetries >= q.MaxRetry {
		return TimerNoChange, ErrRetryExhausted
	}
	q.statusRetries++
	if err := q.writer(q.pending.frames); err != nil {
		return TimerNoChange, &TransportError{Op: "write", Err: err}
	}
	return TimerRetry, nil
}

// Remove drops a queued command which isn't transmitted yet.
func (q *CommandQueue) Remove(cmd *Command) bool {
	for n, c := range q.queue {
		if c == cmd {
			q.queue = append(q.queue[:n], q.queue[n+1:]...)
			return true
		}
	}
	return false
}

// Flush drops the pending and queued commands, returning them in
// submission order, and reopens the window.
func (q *CommandQueue) Flush() []*Command {
	var dropped []*Command
	if q.pending != nil {
		dropped = append(dropped, q.pending)
	}
	dropped = append(dropped, q.queue...)
	q.queue, q.pending = nil, nil
	q.window, q.retryCount, q.statusRetries = 1, 0, 0
	return dropped
}

func (q *CommandQueue) transmit(cmd *Command) error {
	if err := cmd.encode(); err != nil {
		return err
	}
	if err := q.writer(cmd.frames); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	q.pending, q.window, q.retryCount, q.statusRetries = cmd, 0, 0, 0
	return nil
}

// next transmits the head of the queue. Commands failing to transmit are
// resolved with the failure and skipped.
func (q *CommandQueue) next() TimerAction {
	for len(q.queue) > 0 {
		cmd := q.queue[0]
		q.queue[0] = nil
		q.queue = q.queue[1:]
		if err := q.transmit(cmd); err != nil {
			glog.Errorf("transmit %s: %v", cmd, err)
			cmd.resolve(Result{Err: err})
			continue
		}
		return TimerRestart
	}
	return TimerStop
}
