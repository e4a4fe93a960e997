package ui

import (
	"strings"
	"sync"
	"time"
)

// LoaderInterval is the delay between two frames of the loading dots
const LoaderInterval = 500 * time.Millisecond

// Loader animates "text", "text.", "text..", "text..." until stopped.
// Each analysis owns its loader, so stopping one leaves the others running.
type Loader struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartLoader renders base immediately and then every interval with 0 to 3 dots
func StartLoader(base string, interval time.Duration, render func(string)) *Loader {
	l := &Loader{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	base = strings.TrimRight(base, ".")
	render(base)

	go func() {
		defer close(l.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		dots := 0
		for {
			select {
			case <-l.stop:
				return
			case <-ticker.C:
				dots = (dots + 1) % 4
				render(base + strings.Repeat(".", dots))
			}
		}
	}()

	return l
}

// Stop ends the animation and waits until no further frame is rendered
func (l *Loader) Stop() {
	l.once.Do(func() { close(l.stop) })
	<-l.done
}
