package operation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hoppxi/dusk/pkg/intensity"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDisplay struct {
	name   string
	fail   error
	panics bool
	got    []intensity.Brightness
	closed int
}

func (s *stubDisplay) Name() string { return s.name }

func (s *stubDisplay) SetBrightness(_ context.Context, b intensity.Brightness) error {
	if s.panics {
		panic("driver exploded")
	}
	if s.fail != nil {
		return s.fail
	}
	s.got = append(s.got, b)
	return nil
}

func (s *stubDisplay) Brightness(context.Context) (intensity.Brightness, error) {
	if len(s.got) == 0 {
		return 0, errors.New("unknown")
	}
	return s.got[len(s.got)-1], nil
}

func (s *stubDisplay) Close() error {
	s.closed++
	return nil
}

type stubEnumerator struct {
	name     string
	displays []*stubDisplay
	err      error
	calls    int
}

func (s *stubEnumerator) Name() string { return s.name }

func (s *stubEnumerator) Enumerate(context.Context) ([]Display, error) {
	s.calls++
	out := make([]Display, 0, len(s.displays))
	for _, d := range s.displays {
		out = append(out, d)
	}
	return out, s.err
}

func TestApplyReachesEveryDisplayDespiteFailure(t *testing.T) {
	good1 := &stubDisplay{name: "a"}
	bad := &stubDisplay{name: "b", fail: errors.New("not DDC/CI capable")}
	good2 := &stubDisplay{name: "c"}
	e := &stubEnumerator{name: "stub", displays: []*stubDisplay{good1, bad, good2}}

	d := NewDispatcher(zerolog.Nop(), time.Second, e)
	report := d.Apply(context.Background(), 70)

	assert.Equal(t, []intensity.Brightness{70}, good1.got)
	assert.Equal(t, []intensity.Brightness{70}, good2.got)
	assert.Empty(t, bad.got)
	assert.Equal(t, []string{"a", "c"}, report.Applied)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "b", report.Failed[0].Name)
}

func TestApplyEnumeratesFreshEachCall(t *testing.T) {
	first := &stubDisplay{name: "internal"}
	e := &stubEnumerator{name: "stub", displays: []*stubDisplay{first}}
	d := NewDispatcher(zerolog.Nop(), 0, e)

	d.Apply(context.Background(), 40)

	plugged := &stubDisplay{name: "external"}
	e.displays = append(e.displays, plugged)
	d.Apply(context.Background(), 40)

	assert.Equal(t, 2, e.calls)
	assert.Equal(t, []intensity.Brightness{40, 40}, first.got)
	assert.Equal(t, []intensity.Brightness{40}, plugged.got)
}

func TestApplyIsIdempotent(t *testing.T) {
	disp := &stubDisplay{name: "a"}
	d := NewDispatcher(zerolog.Nop(), 0, &stubEnumerator{name: "stub", displays: []*stubDisplay{disp}})

	r1 := d.Apply(context.Background(), 60)
	r2 := d.Apply(context.Background(), 60)

	assert.Equal(t, r1, r2)
	assert.Equal(t, []intensity.Brightness{60, 60}, disp.got)
}

func TestApplyIsolatesBackendsAndPanics(t *testing.T) {
	broken := &stubEnumerator{name: "broken", err: errors.New("no bus")}
	crashing := &stubDisplay{name: "crash", panics: true}
	ok := &stubDisplay{name: "ok"}
	healthy := &stubEnumerator{name: "healthy", displays: []*stubDisplay{crashing, ok}}

	d := NewDispatcher(zerolog.Nop(), 0, broken, healthy)
	report := d.Apply(context.Background(), 100)

	assert.Equal(t, []string{"ok"}, report.Applied)
	require.Len(t, report.Failed, 2)
	assert.Equal(t, "broken", report.Failed[0].Name)
	assert.Equal(t, "crash", report.Failed[1].Name)
}

func TestApplyReleasesDisplays(t *testing.T) {
	a := &stubDisplay{name: "a"}
	b := &stubDisplay{name: "b", fail: errors.New("rejected")}
	d := NewDispatcher(zerolog.Nop(), 0, &stubEnumerator{name: "stub", displays: []*stubDisplay{a, b}})

	d.Apply(context.Background(), 10)

	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
}

func TestApplyWithNoDisplaysIsNoop(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), 0)
	report := d.Apply(context.Background(), 50)

	assert.Empty(t, report.Applied)
	assert.Empty(t, report.Failed)
	assert.Equal(t, intensity.Brightness(50), report.Target)
}

func TestSetEnumeratorsAndDisplays(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), 0, &stubEnumerator{name: "old", displays: []*stubDisplay{{name: "x"}}})
	d.SetEnumerators(
		&stubEnumerator{name: "new", displays: []*stubDisplay{{name: "y"}, {name: "z"}}},
		&stubEnumerator{name: "gone", err: errors.New("missing")},
	)

	infos, failures := d.Displays(context.Background())
	require.Len(t, infos, 2)
	assert.Equal(t, "y", infos[0].Name)
	assert.Equal(t, "new", infos[0].Backend)
	assert.False(t, infos[0].Known)
	assert.Equal(t, "z", infos[1].Name)
	require.Len(t, failures, 1)
	assert.Equal(t, "gone", failures[0].Name)
}

func TestDisplaysReportsKnownLevels(t *testing.T) {
	disp := &stubDisplay{name: "a"}
	d := NewDispatcher(zerolog.Nop(), 0, &stubEnumerator{name: "stub", displays: []*stubDisplay{disp}})
	d.Apply(context.Background(), 35)

	infos, failures := d.Displays(context.Background())
	assert.Empty(t, failures)
	require.Len(t, infos, 1)
	assert.True(t, infos[0].Known)
	assert.Equal(t, intensity.Brightness(35), infos[0].Brightness)
}

type stuckEnumerator struct{}

func (stuckEnumerator) Name() string { return "stuck-bus" }

func (stuckEnumerator) Enumerate(ctx context.Context) ([]Display, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type stuckDisplay struct{}

func (stuckDisplay) Name() string { return "stuck" }

func (stuckDisplay) SetBrightness(ctx context.Context, _ intensity.Brightness) error {
	<-ctx.Done()
	return ctx.Err()
}

type fixedEnumerator struct{ displays []Display }

func (fixedEnumerator) Name() string { return "fixed" }

func (f fixedEnumerator) Enumerate(context.Context) ([]Display, error) { return f.displays, nil }

func applyWithin(t *testing.T, d *Dispatcher, b intensity.Brightness) Report {
	t.Helper()
	done := make(chan Report, 1)
	go func() { done <- d.Apply(context.Background(), b) }()
	select {
	case r := <-done:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("Apply did not return within its timeout")
		return Report{}
	}
}

func TestApplyBoundsStuckEnumeration(t *testing.T) {
	ok := &stubDisplay{name: "ok"}
	d := NewDispatcher(zerolog.Nop(), 50*time.Millisecond, stuckEnumerator{}, &stubEnumerator{name: "good", displays: []*stubDisplay{ok}})

	report := applyWithin(t, d, 40)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "stuck-bus", report.Failed[0].Name)
	assert.ErrorIs(t, report.Failed[0].Err, context.DeadlineExceeded)
	assert.Equal(t, []string{"ok"}, report.Applied)
}

func TestApplyBoundsStuckDisplay(t *testing.T) {
	ok := &stubDisplay{name: "ok"}
	d := NewDispatcher(zerolog.Nop(), 50*time.Millisecond, fixedEnumerator{displays: []Display{stuckDisplay{}, ok}})

	report := applyWithin(t, d, 40)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "stuck", report.Failed[0].Name)
	assert.Equal(t, []intensity.Brightness{40}, ok.got)
}

func TestSetTimeoutAppliesToLaterCalls(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), 0, stuckEnumerator{})
	d.SetTimeout(20 * time.Millisecond)

	report := applyWithin(t, d, 10)
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0].Err, context.DeadlineExceeded)
}

type panickingEnumerator struct{}

func (panickingEnumerator) Name() string { return "broken" }

func (panickingEnumerator) Enumerate(context.Context) ([]Display, error) { panic("bus gone") }

func TestApplyIsolatesPanickingBackend(t *testing.T) {
	ok := &stubDisplay{name: "ok"}
	d := NewDispatcher(zerolog.Nop(), time.Second, panickingEnumerator{}, &stubEnumerator{name: "good", displays: []*stubDisplay{ok}})

	report := d.Apply(context.Background(), 70)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "broken", report.Failed[0].Name)
	assert.Equal(t, []string{"ok"}, report.Applied)
}
