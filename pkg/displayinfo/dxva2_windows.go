//go:build windows

package displayinfo

import (
	"context"
	"fmt"
	"strconv"
	"unsafe"

	"github.com/hoppxi/dusk/pkg/intensity"
	"github.com/hoppxi/dusk/pkg/operation"
	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	dxva2  = windows.NewLazySystemDLL("dxva2.dll")

	procEnumDisplayMonitors                     = user32.NewProc("EnumDisplayMonitors")
	procGetNumberOfPhysicalMonitorsFromHMONITOR = dxva2.NewProc("GetNumberOfPhysicalMonitorsFromHMONITOR")
	procGetPhysicalMonitorsFromHMONITOR         = dxva2.NewProc("GetPhysicalMonitorsFromHMONITOR")
	procSetMonitorBrightness                    = dxva2.NewProc("SetMonitorBrightness")
	procGetMonitorBrightness                    = dxva2.NewProc("GetMonitorBrightness")
	procDestroyPhysicalMonitor                  = dxva2.NewProc("DestroyPhysicalMonitor")
)

type physicalMonitor struct {
	handle      windows.Handle
	description [128]uint16
}

// the callback keeps enumeration going after every monitor
var enumMonitor = windows.NewCallback(func(hmonitor, _, _, data uintptr) uintptr {
	list := (*[]uintptr)(unsafe.Pointer(data))
	*list = append(*list, hmonitor)
	return 1
})

// DXVA2 reaches every monitor through the Windows high-level monitor
// configuration API.
type DXVA2 struct{}

func (DXVA2) Name() string { return "dxva2" }

func (DXVA2) Enumerate(context.Context) ([]operation.Display, error) {
	var hmonitors []uintptr
	r, _, err := procEnumDisplayMonitors.Call(0, 0, enumMonitor, uintptr(unsafe.Pointer(&hmonitors)))
	if r == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors: %w", err)
	}

	var displays []operation.Display
	for i, hmon := range hmonitors {
		var count uint32
		r, _, _ := procGetNumberOfPhysicalMonitorsFromHMONITOR.Call(hmon, uintptr(unsafe.Pointer(&count)))
		if r == 0 || count == 0 {
			continue
		}
		monitors := make([]physicalMonitor, count)
		r, _, _ = procGetPhysicalMonitorsFromHMONITOR.Call(hmon, uintptr(count), uintptr(unsafe.Pointer(&monitors[0])))
		if r == 0 {
			continue
		}
		for j := range monitors {
			displays = append(displays, &dxvaMonitor{
				index: strconv.Itoa(i) + "." + strconv.Itoa(j),
				pm:    monitors[j],
			})
		}
	}
	return displays, nil
}

type dxvaMonitor struct {
	index string
	pm    physicalMonitor
}

func (m *dxvaMonitor) Name() string {
	desc := windows.UTF16ToString(m.pm.description[:])
	if desc == "" {
		return "dxva2:" + m.index
	}
	return "dxva2:" + m.index + " " + desc
}

func (m *dxvaMonitor) SetBrightness(_ context.Context, b intensity.Brightness) error {
	r, _, err := procSetMonitorBrightness.Call(uintptr(m.pm.handle), uintptr(b))
	if r == 0 {
		return fmt.Errorf("SetMonitorBrightness: %w", err)
	}
	return nil
}

func (m *dxvaMonitor) Brightness(context.Context) (intensity.Brightness, error) {
	var minVal, cur, maxVal uint32
	r, _, err := procGetMonitorBrightness.Call(uintptr(m.pm.handle),
		uintptr(unsafe.Pointer(&minVal)), uintptr(unsafe.Pointer(&cur)), uintptr(unsafe.Pointer(&maxVal)))
	if r == 0 {
		return 0, fmt.Errorf("GetMonitorBrightness: %w", err)
	}
	if maxVal <= minVal {
		return 0, fmt.Errorf("invalid brightness range %d-%d", minVal, maxVal)
	}
	return toPercent(int(cur-minVal), int(maxVal-minVal)), nil
}

func (m *dxvaMonitor) Close() error {
	procDestroyPhysicalMonitor.Call(uintptr(m.pm.handle))
	return nil
}
