//go:build linux

package surface

import (
	"errors"
	"fmt"

	"github.com/hoppxi/dusk/pkg/intensity"
	"github.com/hoppxi/dusk/pkg/operation"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/shape"
	"github.com/jezek/xgb/xproto"
)

// X11 draws the overlay as a black override-redirect window whose input
// region is empty, so every click lands on the window below. Opacity is left
// to the compositing manager through _NET_WM_WINDOW_OPACITY; without one the
// window would be opaque, so Create refuses to run.
type X11 struct {
	conn    *xgb.Conn
	win     xproto.Window
	opacity xproto.Atom
}

var _ operation.Surface = (*X11)(nil)

func (x *X11) Create(style operation.Style) error {
	if !style.ClickThrough {
		return errors.New("x11 overlay only supports click-through windows")
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("connect to X server: %w", err)
	}
	if err := x.create(conn, style); err != nil {
		conn.Close()
		return err
	}
	x.conn = conn
	return nil
}

func (x *X11) create(conn *xgb.Conn, style operation.Style) error {
	if err := shape.Init(conn); err != nil {
		return fmt.Errorf("%w: X shape extension missing: %w", ErrNoPassthrough, err)
	}

	cm, err := internAtom(conn, fmt.Sprintf("_NET_WM_CM_S%d", conn.DefaultScreen))
	if err != nil {
		return err
	}
	owner, err := xproto.GetSelectionOwner(conn, cm).Reply()
	if err != nil {
		return fmt.Errorf("query compositing manager: %w", err)
	}
	if owner.Owner == xproto.WindowNone {
		return errors.New("no compositing manager running, overlay opacity would be ignored")
	}

	x.opacity, err = internAtom(conn, "_NET_WM_WINDOW_OPACITY")
	if err != nil {
		return err
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)
	width, height := screen.WidthInPixels, screen.HeightInPixels
	if style.Width > 0 && style.Height > 0 {
		width, height = uint16(style.Width), uint16(style.Height)
	}

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return err
	}
	// override-redirect keeps the window manager from framing, focusing or
	// restacking it
	err = xproto.CreateWindowChecked(conn, screen.RootDepth, wid, screen.Root,
		0, 0, width, height, 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		[]uint32{screen.BlackPixel, 1},
	).Check()
	if err != nil {
		return fmt.Errorf("create overlay window: %w", err)
	}
	x.win = wid

	if err := clearInput(conn, wid); err != nil {
		xproto.DestroyWindow(conn, wid)
		return err
	}
	return nil
}

func (x *X11) SetOpacity(a intensity.Alpha) error {
	if x.conn == nil {
		return operation.ErrNotInitialized
	}
	buf := make([]byte, 4)
	xgb.Put32(buf, opacityCardinal(a))
	return xproto.ChangePropertyChecked(x.conn, xproto.PropModeReplace, x.win,
		x.opacity, xproto.AtomCardinal, 32, 1, buf).Check()
}

func (x *X11) Show() error {
	if x.conn == nil {
		return operation.ErrNotInitialized
	}
	if err := xproto.MapWindowChecked(x.conn, x.win).Check(); err != nil {
		return fmt.Errorf("map overlay: %w", err)
	}
	return xproto.ConfigureWindowChecked(x.conn, x.win,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}).Check()
}

func (x *X11) Hide() error {
	if x.conn == nil {
		return operation.ErrNotInitialized
	}
	return xproto.UnmapWindowChecked(x.conn, x.win).Check()
}

func (x *X11) Close() error {
	if x.conn == nil {
		return nil
	}
	xproto.DestroyWindow(x.conn, x.win)
	x.conn.Close()
	x.conn = nil
	return nil
}

// ClearInputByTitle empties the input region of every window titled after
// the eww window name, searching top-level windows and their direct children
// in case a window manager framed them.
func ClearInputByTitle(name string) error {
	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("connect to X server: %w", err)
	}
	defer conn.Close()

	if err := shape.Init(conn); err != nil {
		return fmt.Errorf("X shape extension missing: %w", err)
	}
	netName, err := internAtom(conn, "_NET_WM_NAME")
	if err != nil {
		return err
	}

	root := xproto.Setup(conn).DefaultScreen(conn).Root
	wins, err := findByTitle(conn, root, name, netName, 2)
	if err != nil {
		return err
	}
	if len(wins) == 0 {
		return fmt.Errorf("%s: %w", name, errWindowNotFound)
	}
	for _, w := range wins {
		if err := clearInput(conn, w); err != nil {
			return err
		}
	}
	return nil
}

func findByTitle(conn *xgb.Conn, parent xproto.Window, name string, netName xproto.Atom, depth int) ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(conn, parent).Reply()
	if err != nil {
		return nil, fmt.Errorf("query window tree: %w", err)
	}

	var found []xproto.Window
	for _, w := range tree.Children {
		if titleMatches(windowTitle(conn, w, netName), name) {
			found = append(found, w)
			continue
		}
		if depth > 1 {
			// windows can vanish between the two queries
			sub, _ := findByTitle(conn, w, name, netName, depth-1)
			found = append(found, sub...)
		}
	}
	return found, nil
}

func windowTitle(conn *xgb.Conn, w xproto.Window, netName xproto.Atom) string {
	for _, prop := range []xproto.Atom{netName, xproto.AtomWmName} {
		reply, err := xproto.GetProperty(conn, false, w, prop, xproto.GetPropertyTypeAny, 0, 256).Reply()
		if err == nil && reply != nil && len(reply.Value) > 0 {
			return string(reply.Value)
		}
	}
	return ""
}

// clearInput sets an empty input shape on w.
func clearInput(conn *xgb.Conn, w xproto.Window) error {
	err := shape.RectanglesChecked(conn, shape.SoSet, shape.SkInput,
		xproto.ClipOrderingUnsorted, w, 0, 0, nil).Check()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoPassthrough, err)
	}
	return nil
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern %s: %w", name, err)
	}
	return reply.Atom, nil
}
