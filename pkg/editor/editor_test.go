//go:build unix

package editor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcaldas/linenoise/pkg/completion"
	"github.com/kcaldas/linenoise/pkg/events"
	"github.com/kcaldas/linenoise/pkg/terminal"
)

func openPTY(t *testing.T) (ptmx, tty *os.File) {
	t.Helper()
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	require.NoError(t, pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: 80}))
	t.Cleanup(func() {
		_ = tty.Close()
		_ = ptmx.Close()
	})
	// Keep the output side drained so redraws never block.
	go func() { _, _ = io.Copy(io.Discard, ptmx) }()
	return ptmx, tty
}

// typeInRaw writes each chunk once the editor holds the terminal in raw
// mode, so the line discipline passes control bytes through untouched.
func typeInRaw(ed *Editor, ptmx *os.File, gap time.Duration, chunks ...string) {
	go func() {
		for !ed.Terminal().IsRaw() {
			time.Sleep(time.Millisecond)
		}
		for i, c := range chunks {
			if i > 0 {
				time.Sleep(gap)
			}
			_, _ = ptmx.Write([]byte(c))
		}
	}()
}

type publisherFunc func(topic string, event interface{})

func (f publisherFunc) Publish(topic string, event interface{}) { f(topic, event) }

func TestEditor_ReadLine(t *testing.T) {
	ptmx, tty := openPTY(t)

	var mu sync.Mutex
	var published []events.LineAccepted
	pub := publisherFunc(func(_ string, e interface{}) {
		if accepted, ok := e.(events.LineAccepted); ok {
			mu.Lock()
			published = append(published, accepted)
			mu.Unlock()
		}
	})
	ed := New(tty, tty, WithPublisher(pub))

	typeInRaw(ed, ptmx, 0, "hello\r")

	line, err := ed.ReadLine(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "hello", line)
	assert.Equal(t, []string{"hello"}, ed.History().Snapshot())
	assert.False(t, ed.Terminal().IsRaw(), "raw mode is released")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, published, 1)
	assert.Equal(t, "hello", published[0].Line)
	assert.Equal(t, []string{"hello"}, published[0].History)
}

func TestEditor_TypeAheadCarriesToNextLine(t *testing.T) {
	ptmx, tty := openPTY(t)
	ed := New(tty, tty)

	typeInRaw(ed, ptmx, 0, "one\rtwo\r")

	first, err := ed.ReadLine(context.Background(), "> ")
	require.NoError(t, err)
	second, err := ed.ReadLine(context.Background(), "> ")
	require.NoError(t, err)

	assert.Equal(t, "one", first)
	assert.Equal(t, "two", second)
}

func TestEditor_CancelAndEOF(t *testing.T) {
	ptmx, tty := openPTY(t)
	ed := New(tty, tty)

	typeInRaw(ed, ptmx, 0, "abc\x03")
	_, err := ed.ReadLine(context.Background(), "> ")
	assert.ErrorIs(t, err, ErrCancelled)

	typeInRaw(ed, ptmx, 0, "\x04")
	_, err = ed.ReadLine(context.Background(), "> ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestEditor_PollStops(t *testing.T) {
	_, tty := openPTY(t)
	calls := 0
	ed := New(tty, tty, WithPoll(func() bool {
		calls++
		return calls < 3
	}))

	_, err := ed.ReadLine(context.Background(), "> ")

	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 3, calls)
	assert.False(t, ed.Terminal().IsRaw())
}

func TestEditor_ContextCancel(t *testing.T) {
	_, tty := openPTY(t)
	ed := New(tty, tty)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := ed.ReadLine(ctx, "> ")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ed.Terminal().IsRaw())
}

func TestEditor_CompletionOverPTY(t *testing.T) {
	ptmx, tty := openPTY(t)
	ed := New(tty, tty, WithCompleter(completion.CompleterFunc(func(line string) []string {
		return []string{line + "lo", line + "p"}
	})))

	typeInRaw(ed, ptmx, 0, "hel\t\t\r")

	line, err := ed.ReadLine(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "help", line)
}

func TestEditor_LoneEscapeTimesOut(t *testing.T) {
	ptmx, tty := openPTY(t)
	ed := New(tty, tty, WithEscapeTimeout(5*time.Millisecond))

	typeInRaw(ed, ptmx, 50*time.Millisecond, "ab\x1b", "c\r")

	line, err := ed.ReadLine(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "abc", line)
}

func TestEditor_FallbackForPipes(t *testing.T) {
	in, w, err := os.Pipe()
	require.NoError(t, err)
	out, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = in.Close()
		_ = out.Close()
	})

	_, err = w.Write([]byte("first\r\n\nlast"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ed := New(in, out)

	line, err := ed.ReadLine(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = ed.ReadLine(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "", line)

	line, err = ed.ReadLine(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "last", line, "a final line without newline is returned")

	_, err = ed.ReadLine(context.Background(), "> ")
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, []string{"first", "last"}, ed.History().Snapshot())
}

func TestEditor_UnsupportedTermReadsPlainLines(t *testing.T) {
	ptmx, tty := openPTY(t)
	ed := New(tty, tty, WithTerminalOptions(terminal.WithTermEnv("dumb")))

	_, err := ptmx.Write([]byte("plain\n"))
	require.NoError(t, err)

	line, err := ed.ReadLine(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "plain", line)
	assert.False(t, ed.Terminal().IsRaw())
}

func TestEditor_NonBlockingSession(t *testing.T) {
	ptmx, tty := openPTY(t)
	ed := New(tty, tty)

	s, err := ed.Begin("> ", "")
	require.NoError(t, err)

	_, err = ed.Begin("> ", "")
	assert.ErrorIs(t, err, ErrSessionActive)

	status, err := ed.Step(s)
	require.NoError(t, err)
	assert.Equal(t, StatusEditing, status)

	_, err = ptmx.Write([]byte("ab\r"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, err := ed.Step(s)
		return err == nil && status == StatusAccepted
	}, time.Second, 5*time.Millisecond)

	line, err := ed.End(s)
	require.NoError(t, err)
	assert.Equal(t, "ab", line)
	assert.False(t, ed.Terminal().IsRaw())

	_, err = ed.Step(s)
	assert.ErrorIs(t, err, ErrSessionDone)
}

func TestEditor_StepExpiresStaleEscapeBeforeReading(t *testing.T) {
	ptmx, tty := openPTY(t)
	ed := New(tty, tty, WithEscapeTimeout(20*time.Millisecond))

	s, err := ed.Begin("> ", "")
	require.NoError(t, err)

	_, err = ptmx.Write([]byte{0x1b})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := ed.Step(s)
		return err == nil && ed.decoder.Pending()
	}, time.Second, time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	_, err = ptmx.Write([]byte("x\r"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, err := ed.Step(s)
		return err == nil && status == StatusAccepted
	}, time.Second, 5*time.Millisecond)

	line, err := ed.End(s)
	require.NoError(t, err)
	assert.Equal(t, "x", line)
}

func TestEditor_EndAbandonsUnfinishedSession(t *testing.T) {
	_, tty := openPTY(t)
	ed := New(tty, tty)

	s, err := ed.Begin("> ", "draft")
	require.NoError(t, err)
	assert.Equal(t, "draft", s.Line())

	_, err = ed.End(s)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StatusCancelled, s.Status())
}

func TestEditor_Loop(t *testing.T) {
	ptmx, tty := openPTY(t)
	ed := New(tty, tty)

	n := 0
	done, err := ed.Loop(context.Background(), func() bool {
		n++
		return n == 3
	}, 'q')
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 3, n)

	typeInRaw(ed, ptmx, 0, "q")
	done, err = ed.Loop(context.Background(), func() bool { return false }, 'q')
	require.NoError(t, err)
	assert.False(t, done)
}

func TestEditor_PrintKeycodes(t *testing.T) {
	ptmx, tty := openPTY(t)
	ed := New(tty, tty)

	typeInRaw(ed, ptmx, 0, "\x1b[Aquit")

	var out bytes.Buffer
	require.NoError(t, ed.PrintKeycodes(context.Background(), &out))

	assert.Contains(t, out.String(), "'ESC' 0x1b (27)\r\n")
	assert.Contains(t, out.String(), "'A' 0x41 (65) => Up\r\n")
	assert.Contains(t, out.String(), "'q' 0x71 (113) => Rune('q')\r\n")
	assert.Contains(t, out.String(), "Type 'quit' at any time to exit.")
}

func TestEditor_StoppedErrorMatchesCancelled(t *testing.T) {
	assert.True(t, errors.Is(ErrStopped, ErrCancelled))
	assert.False(t, errors.Is(ErrCancelled, ErrStopped))
}
