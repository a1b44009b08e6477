package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/MrEthical07/goSession/apierror"
	"github.com/MrEthical07/goSession/notify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type collector struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (c *collector) Notify(_ context.Context, n notify.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, n)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func TestNewStampsIDAndTime(t *testing.T) {
	a := notify.New(apierror.SeverityHigh, "session.expired", "expired")
	b := notify.New(apierror.SeverityHigh, "session.expired", "expired")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, "session.expired", a.Key)
}

func TestTerminalSinkPlain(t *testing.T) {
	var buf bytes.Buffer
	s := notify.NewTerminalSink(&buf, true)

	s.Notify(context.Background(), notify.New(apierror.SeverityHigh, "", " server down "))
	s.Notify(context.Background(), notify.New(apierror.SeverityLow, "", "slow"))

	assert.Equal(t, "HIGH     server down\nLOW      slow\n", buf.String())
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := notify.NewJSONWriterSink(&buf)
	s.Notify(context.Background(), notify.New(apierror.SeverityMedium, "k", "hello"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "MEDIUM", decoded["severity"])
	assert.Equal(t, "hello", decoded["message"])
	assert.Equal(t, "k", decoded["key"])

	var nilSink *notify.JSONWriterSink
	assert.NotPanics(t, func() { nilSink.Notify(context.Background(), notify.Notification{}) })
}

func TestMultiAndSinkFunc(t *testing.T) {
	var a collector
	calls := 0
	m := notify.Multi{&a, nil, notify.SinkFunc(func(context.Context, notify.Notification) { calls++ }), notify.NoOpSink{}}

	m.Notify(context.Background(), notify.New(apierror.SeverityLow, "", "x"))
	assert.Equal(t, 1, a.len())
	assert.Equal(t, 1, calls)
}

func TestChannelSink(t *testing.T) {
	s := notify.NewChannelSink(1)
	s.Notify(context.Background(), notify.New(apierror.SeverityLow, "", "first"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Notify(ctx, notify.New(apierror.SeverityLow, "", "dropped"))

	got := <-s.Notifications()
	assert.Equal(t, "first", got.Message)
	assert.Empty(t, s.Notifications())
}

func TestBoardAutoDismiss(t *testing.T) {
	clock := clockwork.NewFakeClock()
	dismissed := make(chan notify.Notification, 4)
	b := notify.NewBoard(3*time.Second,
		notify.WithBoardClock(clock),
		notify.WithDismissHook(func(n notify.Notification) { dismissed <- n }),
	)
	defer b.Close()

	b.Notify(context.Background(), notify.New(apierror.SeverityHigh, "", "short"))
	long := notify.New(apierror.SeverityLow, "", "long")
	long.TTL = 10 * time.Second
	b.Notify(context.Background(), long)
	require.Equal(t, 2, b.Len())

	clock.Advance(2 * time.Second)
	assert.Equal(t, 2, b.Len())

	clock.Advance(time.Second)
	select {
	case n := <-dismissed:
		assert.Equal(t, "short", n.Message)
	case <-time.After(5 * time.Second):
		t.Fatal("entry was not dismissed")
	}
	require.Eventually(t, func() bool { return b.Len() == 1 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, "long", b.List()[0].Message)

	clock.Advance(7 * time.Second)
	require.Eventually(t, func() bool { return b.Len() == 0 }, 5*time.Second, 5*time.Millisecond)
}

func TestBoardDismissAndLimit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var evicted []string
	b := notify.NewBoard(time.Minute,
		notify.WithBoardClock(clock),
		notify.WithLimit(2),
		notify.WithDismissHook(func(n notify.Notification) { evicted = append(evicted, n.Message) }),
	)
	defer b.Close()

	first := notify.New(apierror.SeverityLow, "", "one")
	b.Notify(context.Background(), first)
	b.Notify(context.Background(), notify.New(apierror.SeverityLow, "", "two"))
	b.Notify(context.Background(), notify.New(apierror.SeverityLow, "", "three"))

	list := b.List()
	require.Len(t, list, 2)
	assert.Equal(t, "two", list[0].Message)
	assert.Equal(t, []string{"one"}, evicted)
	assert.False(t, b.Dismiss(first.ID))

	assert.True(t, b.Dismiss(list[0].ID))
	assert.Equal(t, 1, b.Len())
}

func TestBoardFillsMissingFields(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := notify.NewBoard(0, notify.WithBoardClock(clock))
	defer b.Close()

	b.Notify(context.Background(), notify.Notification{Message: "bare"})
	n := b.List()[0]
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, notify.DefaultTTL, n.TTL)
	assert.Equal(t, clock.Now(), n.CreatedAt)

	b.Close()
	b.Notify(context.Background(), notify.Notification{Message: "after close"})
	assert.Equal(t, 0, b.Len())
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	var c collector
	d := notify.NewDispatcher(&c, notify.DispatcherConfig{BufferSize: 16})

	for i := 0; i < 10; i++ {
		d.Notify(context.Background(), notify.New(apierror.SeverityLow, "", "n"))
	}
	d.Close()
	d.Close()

	assert.Equal(t, 10, c.len())
	d.Notify(context.Background(), notify.New(apierror.SeverityLow, "", "late"))
	assert.Equal(t, 10, c.len())
}

func TestDispatcherDropIfFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	blocking := notify.SinkFunc(func(context.Context, notify.Notification) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})

	d := notify.NewDispatcher(blocking, notify.DispatcherConfig{BufferSize: 1, DropIfFull: true})
	d.Notify(context.Background(), notify.New(apierror.SeverityLow, "", "in flight"))
	<-started
	d.Notify(context.Background(), notify.New(apierror.SeverityLow, "", "queued"))
	d.Notify(context.Background(), notify.New(apierror.SeverityLow, "", "dropped"))

	assert.Equal(t, uint64(1), d.Dropped())
	close(release)
	d.Close()
}

func TestNilDispatcher(t *testing.T) {
	var d *notify.Dispatcher
	assert.NotPanics(t, func() {
		d.Notify(context.Background(), notify.Notification{})
		d.Close()
	})
	assert.Zero(t, d.Dropped())
}

func TestDefaultSink(t *testing.T) {
	var c collector
	prev := notify.SetDefault(&c)
	t.Cleanup(func() { notify.SetDefault(prev) })

	notify.Show(context.Background(), apierror.SeverityMedium, "hello")
	require.Equal(t, 1, c.len())
	assert.Equal(t, apierror.SeverityMedium, c.got[0].Severity)

	notify.SetDefault(nil)
	assert.IsType(t, notify.NoOpSink{}, notify.Default())
}
