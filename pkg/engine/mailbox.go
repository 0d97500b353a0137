package engine

import (
	"sync"

	"github.com/robotalks/uci.go/pkg/hal"
)

type message interface{}

type (
	dataMessage      []byte
	transportMessage struct {
		event hal.Event
		err   error
	}
	submitMessage  struct{ cmd *Command }
	enableMessage  struct{ future *Future }
	disableMessage struct{ future *Future }
	callMessage    struct {
		fn   func()
		done chan struct{}
	}
)

type messageItem struct {
	msg  message
	next *messageItem
}

type messageList struct {
	head *messageItem
	tail *messageItem
}

func (l *messageList) append(item *messageItem) {
	if l.head == nil {
		l.head = item
	} else {
		l.tail.next = item
	}
	l.tail = item
}

func (l *messageList) splice(src *messageList) {
	l.head, l.tail, src.head, src.tail = src.head, src.tail, nil, nil
}

// mailbox is an unbounded queue of messages for the loop. Posting never
// blocks so transport callbacks can't stall on a busy loop.
type mailbox struct {
	messages messageList
	closed   bool
	lock     sync.Mutex
	wakeUpCh chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{wakeUpCh: make(chan struct{}, 1)}
}

func (m *mailbox) post(msg message) bool {
	m.lock.Lock()
	if m.closed {
		m.lock.Unlock()
		return false
	}
	m.messages.append(&messageItem{msg: msg})
	m.lock.Unlock()
	select {
	case m.wakeUpCh <- struct{}{}:
	default:
	}
	return true
}

// take removes all messages in posting order.
func (m *mailbox) take() (lst messageList) {
	m.lock.Lock()
	lst.splice(&m.messages)
	m.lock.Unlock()
	return
}

// close rejects further posts and returns the messages not taken.
func (m *mailbox) close() messageList {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.closed = true
	var lst messageList
	lst.splice(&m.messages)
	return lst
}
