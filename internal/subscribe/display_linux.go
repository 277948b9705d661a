//go:build linux

package subscribe

import (
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// DisplayEvents signals monitor hot-plugs and backlight device changes until
// stop is closed.
func DisplayEvents(stop <-chan struct{}) <-chan struct{} {
	events := make(chan struct{}, 1)

	go func() {
		fd, err := syscall.Socket(syscall.AF_NETLINK, syscall.SOCK_RAW, syscall.NETLINK_KOBJECT_UEVENT)
		if err != nil {
			log.Warn().Err(err).Msg("subscribe: failed to open netlink socket")
			return
		}
		defer syscall.Close(fd)

		addr := &syscall.SockaddrNetlink{
			Family: syscall.AF_NETLINK,
			Groups: 1, // listen to broadcast uevents
		}
		if err := syscall.Bind(fd, addr); err != nil {
			log.Warn().Err(err).Msg("subscribe: failed to bind netlink socket")
			return
		}

		// wake up periodically so stop is honored
		tv := syscall.NsecToTimeval(int64(time.Second))
		_ = syscall.SetsockoptTimeval(fd, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv)

		buf := make([]byte, 8192)
		for {
			select {
			case <-stop:
				return
			default:
			}

			n, _, err := syscall.Recvfrom(fd, buf, 0)
			if err != nil {
				if err != syscall.EAGAIN && err != syscall.EINTR {
					log.Debug().Err(err).Msg("subscribe: netlink recv error")
				}
				continue
			}

			if isDisplayUevent(buf[:n]) {
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}
	}()

	return events
}
