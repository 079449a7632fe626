package helpers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/roulettebot/core/logger"
	"github.com/m3rciful/roulettebot/core/sender"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	upd   tele.Update
	store map[string]any
	sent  chan any
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		upd: tele.Update{ID: 77, Message: &tele.Message{
			Sender: &tele.User{ID: 12},
			Chat:   &tele.Chat{ID: 34},
		}},
		store: map[string]any{},
		sent:  make(chan any, 4),
	}
}

func (f *fakeContext) Update() tele.Update  { return f.upd }
func (f *fakeContext) Sender() *tele.User   { return f.upd.Message.Sender }
func (f *fakeContext) Chat() *tele.Chat     { return f.upd.Message.Chat }
func (f *fakeContext) Get(k string) any     { return f.store[k] }
func (f *fakeContext) Set(k string, v any)  { f.store[k] = v }
func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent <- what
	return nil
}

func TestBuildContextMeta(t *testing.T) {
	c := newFakeContext()
	ctx := BuildContext(c)
	if got := logger.UserIDFrom(ctx); got != "tg:12" {
		t.Fatalf("user id = %q", got)
	}
	if got := logger.EventIDFrom(ctx); got != "77" {
		t.Fatalf("event id = %q", got)
	}
	if got := logger.ChannelFrom(ctx); got != Channel {
		t.Fatalf("channel = %q", got)
	}
	if got := logger.RIDFrom(ctx); got != "77:34:12" {
		t.Fatalf("rid = %q", got)
	}
	if BuildContext(c) != ctx {
		t.Fatal("context must be cached on the update")
	}
}

func TestSendTextInlineWithoutDispatcher(t *testing.T) {
	SetDispatcher(nil)
	c := newFakeContext()
	if err := SendText(c, "hello"); err != nil {
		t.Fatal(err)
	}
	if got := <-c.sent; got != "hello" {
		t.Fatalf("sent %v", got)
	}
}

func TestDispatchUsesDispatcher(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1, QueueSize: 1})
	SetDispatcher(d)
	t.Cleanup(func() {
		SetDispatcher(nil)
		d.Close()
	})

	c := newFakeContext()
	if err := SendText(c, "queued"); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-c.sent:
		if got != "queued" {
			t.Fatalf("sent %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher never ran the send")
	}
}

func TestDispatchFallsBackWhenClosed(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1})
	d.Close()
	SetDispatcher(d)
	t.Cleanup(func() { SetDispatcher(nil) })

	want := errors.New("inline")
	err := Dispatch(newFakeContext(), "test", "sendMessage", func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("closed dispatcher must run inline, err = %v", err)
	}
}
