package watchers

import (
	"time"

	"github.com/hoppxi/dusk/internal/subscribe"
)

// DisplaySettle is how long the display set must stay quiet after a hot-plug
// before brightness is re-applied. New monitors answer DDC/CI late.
const DisplaySettle = 2 * time.Second

// DisplayWatcher calls onChange once the display set settles after a
// hot-plug. onChange runs on the watcher goroutine.
func DisplayWatcher(onChange func()) func(stop <-chan struct{}) {
	return func(stop <-chan struct{}) {
		watchDisplays(stop, subscribe.DisplayEvents(stop), DisplaySettle, onChange)
	}
}

func watchDisplays(stop <-chan struct{}, events <-chan struct{}, settle time.Duration, onChange func()) {
	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-events:
			timer.Reset(settle)
		case <-timer.C:
			onChange()
		}
	}
}
