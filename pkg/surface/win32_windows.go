//go:build windows

package surface

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/hoppxi/dusk/pkg/intensity"
	"github.com/hoppxi/dusk/pkg/operation"
	"golang.org/x/sys/windows"
)

const (
	wsExLayered     = 0x00080000
	wsExTransparent = 0x00000020
	wsExTopmost     = 0x00000008
	wsExToolWindow  = 0x00000080
	wsExNoActivate  = 0x08000000
	wsPopup         = 0x80000000

	smCxScreen = 0
	smCyScreen = 1

	lwaAlpha = 0x2

	swHide           = 0
	swShowNoActivate = 4

	wmClose = 0x0010

	blackBrush = 4
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procCreateWindowExW            = user32.NewProc("CreateWindowExW")
	procDestroyWindow              = user32.NewProc("DestroyWindow")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procShowWindow                 = user32.NewProc("ShowWindow")
	procGetSystemMetrics           = user32.NewProc("GetSystemMetrics")
	procGetMessageW                = user32.NewProc("GetMessageW")
	procTranslateMessage           = user32.NewProc("TranslateMessage")
	procDispatchMessageW           = user32.NewProc("DispatchMessageW")
	procPostMessageW               = user32.NewProc("PostMessageW")
	procRegisterClassExW           = user32.NewProc("RegisterClassExW")
	procDefWindowProcW             = user32.NewProc("DefWindowProcW")

	gdi32              = windows.NewLazySystemDLL("gdi32.dll")
	procGetStockObject = gdi32.NewProc("GetStockObject")
)

const className = "DuskOverlay"

type wndClassEx struct {
	size       uint32
	style      uint32
	wndProc    uintptr
	clsExtra   int32
	wndExtra   int32
	instance   windows.Handle
	icon       windows.Handle
	cursor     windows.Handle
	background windows.Handle
	menuName   *uint16
	className  *uint16
	iconSm     windows.Handle
}

var defWndProc = windows.NewCallback(func(hwnd, message, wParam, lParam uintptr) uintptr {
	r, _, _ := procDefWindowProcW.Call(hwnd, message, wParam, lParam)
	return r
})

// registerClass registers a window class painted solid black.
func registerClass() (*uint16, error) {
	name, err := windows.UTF16PtrFromString(className)
	if err != nil {
		return nil, err
	}
	brush, _, _ := procGetStockObject.Call(blackBrush)
	wc := wndClassEx{
		wndProc:    defWndProc,
		background: windows.Handle(brush),
		className:  name,
	}
	wc.size = uint32(unsafe.Sizeof(wc))
	if r, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); r == 0 {
		return nil, fmt.Errorf("RegisterClassExW: %w", err)
	}
	return name, nil
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// Win32 is a layered, click-through popup window covering the primary
// display. The window lives on its own locked OS thread, which pumps its
// messages for the life of the process.
type Win32 struct {
	hwnd uintptr
}

var _ operation.Surface = (*Win32)(nil)

func (w *Win32) Create(style operation.Style) error {
	if !style.ClickThrough {
		return errors.New("win32 overlay only supports click-through windows")
	}

	created := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		width, height := style.Width, style.Height
		if width <= 0 || height <= 0 {
			cx, _, _ := procGetSystemMetrics.Call(smCxScreen)
			cy, _, _ := procGetSystemMetrics.Call(smCyScreen)
			width, height = int(cx), int(cy)
		}

		exStyle := uintptr(wsExLayered | wsExTransparent | wsExToolWindow | wsExNoActivate)
		if style.TopMost {
			exStyle |= wsExTopmost
		}
		class, err := registerClass()
		if err != nil {
			created <- err
			return
		}
		hwnd, _, err := procCreateWindowExW.Call(
			exStyle,
			uintptr(unsafe.Pointer(class)),
			0,
			uintptr(wsPopup),
			0, 0, uintptr(width), uintptr(height),
			0, 0, 0, 0,
		)
		if hwnd == 0 {
			created <- fmt.Errorf("CreateWindowExW: %w", err)
			return
		}
		w.hwnd = hwnd
		created <- nil

		var m msg
		for {
			r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(r) <= 0 {
				return
			}
			if m.message == wmClose && m.hwnd == hwnd {
				procDestroyWindow.Call(hwnd)
				return
			}
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
			procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
		}
	}()
	return <-created
}

// SetOpacity applies a black fill at the given alpha.
func (w *Win32) SetOpacity(a intensity.Alpha) error {
	r, _, err := procSetLayeredWindowAttributes.Call(w.hwnd, 0, uintptr(a), lwaAlpha)
	if r == 0 {
		return fmt.Errorf("SetLayeredWindowAttributes: %w", err)
	}
	return nil
}

func (w *Win32) Show() error {
	procShowWindow.Call(w.hwnd, swShowNoActivate)
	return nil
}

func (w *Win32) Hide() error {
	procShowWindow.Call(w.hwnd, swHide)
	return nil
}

// Close asks the window thread to destroy the window and stop pumping.
func (w *Win32) Close() error {
	if w.hwnd == 0 {
		return nil
	}
	procPostMessageW.Call(w.hwnd, wmClose, 0, 0)
	return nil
}
