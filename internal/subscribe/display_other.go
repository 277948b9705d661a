//go:build !linux

package subscribe

// DisplayEvents never fires on platforms without netlink uevents; displays
// are still enumerated fresh on every brightness change.
func DisplayEvents(stop <-chan struct{}) <-chan struct{} {
	return make(chan struct{})
}
