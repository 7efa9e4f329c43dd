package interview

import (
	"sync"
	"time"
)

// ticker runs fn every interval on its own goroutine until stopped
type ticker struct {
	done chan struct{}
	once sync.Once
}

func startTicker(interval time.Duration, fn func()) *ticker {
	t := &ticker{done: make(chan struct{})}
	go func() {
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-tk.C:
				fn()
			}
		}
	}()
	return t
}

func (t *ticker) stop() {
	if t == nil {
		return
	}
	t.once.Do(func() { close(t.done) })
}

// debouncer delays a call until no new schedule arrived for window. The
// callback receives the sequence number it was scheduled with; it is current
// only while fired(seq) holds, which guards against a timer that already
// fired while a newer schedule or a cancel happened.
type debouncer struct {
	window time.Duration
	timer  *time.Timer
	seq    uint64
}

func (d *debouncer) schedule(fn func(seq uint64)) {
	d.cancel()
	seq := d.seq
	d.timer = time.AfterFunc(d.window, func() { fn(seq) })
}

func (d *debouncer) fired(seq uint64) bool {
	if d.timer == nil || d.seq != seq {
		return false
	}
	d.timer = nil
	return true
}

func (d *debouncer) cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
