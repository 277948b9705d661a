package subscribe

import "bytes"

// isDisplayUevent reports whether a kernel uevent announces a monitor
// hot-plug or a new backlight device. Uevents are NUL separated KEY=VALUE
// fields after an "action@devpath" header.
func isDisplayUevent(msg []byte) bool {
	var subsystem, action string
	hotplug := false
	for _, field := range bytes.Split(msg, []byte{0}) {
		key, value, ok := bytes.Cut(field, []byte("="))
		if !ok {
			continue
		}
		switch string(key) {
		case "SUBSYSTEM":
			subsystem = string(value)
		case "ACTION":
			action = string(value)
		case "HOTPLUG":
			hotplug = string(value) == "1"
		}
	}

	switch subsystem {
	case "drm":
		return action == "change" && hotplug
	case "backlight":
		return action == "add" || action == "remove"
	}
	return false
}
