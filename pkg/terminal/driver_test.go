//go:build unix

package terminal

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openPTY(t *testing.T) (ptmx, tty *os.File) {
	t.Helper()
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = tty.Close()
		_ = ptmx.Close()
	})
	return ptmx, tty
}

func TestDriver_RawModeLifecycle(t *testing.T) {
	_, tty := openPTY(t)
	d := New(tty, tty)

	assert.True(t, d.IsTerminal())
	require.NoError(t, d.EnterRawMode())
	assert.True(t, d.IsRaw())
	require.NoError(t, d.EnterRawMode(), "re-entering through the same driver is a no-op")

	require.NoError(t, d.ExitRawMode())
	assert.False(t, d.IsRaw())
	require.NoError(t, d.ExitRawMode(), "exit is idempotent")
}

func TestDriver_SecondDriverIsBusy(t *testing.T) {
	_, tty := openPTY(t)
	first := New(tty, tty)
	second := New(tty, tty)

	release, err := first.Acquire()
	require.NoError(t, err)

	assert.ErrorIs(t, second.EnterRawMode(), ErrBusy)

	release()
	require.NoError(t, second.EnterRawMode())
	require.NoError(t, second.ExitRawMode())
}

func TestDriver_RestoreAll(t *testing.T) {
	_, tty := openPTY(t)
	d := New(tty, tty)
	require.NoError(t, d.EnterRawMode())

	require.NoError(t, RestoreAll())
	// The driver still thinks it holds the terminal; leaving must not fail.
	require.NoError(t, d.ExitRawMode())
	assert.False(t, d.IsRaw())
}

func TestDriver_NotATerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	d := New(r, w, WithFallbackCols(72))
	assert.False(t, d.IsTerminal())
	assert.ErrorIs(t, d.EnterRawMode(), ErrTerminalUnsupported)

	release, err := d.Acquire()
	assert.ErrorIs(t, err, ErrTerminalUnsupported)
	release()

	assert.Equal(t, 72, d.Width())
}

func TestDriver_Unsupported(t *testing.T) {
	_, tty := openPTY(t)
	tests := []struct {
		term string
		want bool
	}{
		{"dumb", true},
		{"DUMB", true},
		{"cons25", true},
		{"emacs", true},
		{"xterm-256color", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tty, tty, WithTermEnv(tt.term)).Unsupported())
		})
	}
}

func TestDriver_WidthFromWindowSize(t *testing.T) {
	ptmx, tty := openPTY(t)
	require.NoError(t, pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: 123}))

	assert.Equal(t, 123, New(tty, tty).Width())
}

func TestDriver_WidthFallsBackWithoutRawMode(t *testing.T) {
	_, tty := openPTY(t)
	d := New(tty, tty, WithFallbackCols(64))
	assert.Equal(t, 64, d.Width())
}

func TestDriver_WidthFromCursorReport(t *testing.T) {
	ptmx, tty := openPTY(t)
	d := New(tty, tty)
	require.NoError(t, d.EnterRawMode())
	defer d.ExitRawMode()

	// Play the terminal: answer each position request, reporting column 3
	// first and column 57 after the cursor was pushed right.
	done := make(chan []byte, 1)
	go func() {
		var seen []byte
		replies := []string{"\x1b[5;3R", "\x1b[5;57R"}
		buf := make([]byte, 64)
		for len(replies) > 0 {
			n, err := ptmx.Read(buf)
			if err != nil {
				break
			}
			seen = append(seen, buf[:n]...)
			for len(replies) > 0 && bytes.Count(seen, []byte("\x1b[6n")) > 2-len(replies) {
				_, _ = ptmx.Write([]byte(replies[0]))
				replies = replies[1:]
			}
		}
		done <- seen
	}()

	assert.Equal(t, 57, d.Width())

	select {
	case seen := <-done:
		assert.Contains(t, string(seen), "\x1b[999C")
	case <-time.After(2 * time.Second):
		t.Fatal("terminal side never saw both requests")
	}
}

func TestDriver_WaitReadable(t *testing.T) {
	ptmx, tty := openPTY(t)
	d := New(tty, tty)
	require.NoError(t, d.EnterRawMode())
	defer d.ExitRawMode()

	ready, err := d.WaitReadable(20 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ready)

	_, err = ptmx.Write([]byte("x"))
	require.NoError(t, err)

	ready, err = d.WaitReadable(time.Second)
	require.NoError(t, err)
	require.True(t, ready)

	buf := make([]byte, 8)
	n, err := d.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "x", string(buf[:n]))
}

func TestDriver_Output(t *testing.T) {
	ptmx, tty := openPTY(t)
	d := New(tty, tty)
	require.NoError(t, d.EnterRawMode())
	defer d.ExitRawMode()

	require.NoError(t, d.Beep())
	require.NoError(t, d.ClearScreen())
	_, err := d.Write([]byte("ok"))
	require.NoError(t, err)

	want := "\a\x1b[H\x1b[2Jok"
	got := make([]byte, 0, len(want))
	buf := make([]byte, 64)
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < len(want) && time.Now().Before(deadline) {
		n, err := ptmx.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	assert.Equal(t, want, string(got))
}
