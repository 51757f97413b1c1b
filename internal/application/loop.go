// Package application contains use-case orchestration services.
package application

import "sync"

// eventLoop runs posted functions one at a time on a single goroutine. All
// controller state is read and written only from inside posted functions, so
// it needs no locking. Functions must not post to their own loop.
type eventLoop struct {
	tasks    chan func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newEventLoop() *eventLoop {
	l := &eventLoop{
		tasks: make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *eventLoop) run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.quit:
			return
		}
	}
}

// post hands fn to the loop. It returns false, without running fn, once the
// loop has been stopped. A true return means fn runs to completion.
func (l *eventLoop) post(fn func()) bool {
	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// call runs fn on the loop and waits for it to finish.
func (l *eventLoop) call(fn func()) bool {
	finished := make(chan struct{})
	if !l.post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	<-finished
	return true
}

// stop ends the loop after the function currently running, if any. Pending
// and future posts are rejected. It must not be called from inside the loop.
func (l *eventLoop) stop() {
	l.stopOnce.Do(func() { close(l.quit) })
	<-l.done
}
