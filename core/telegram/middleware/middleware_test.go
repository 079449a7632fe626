package middleware

import (
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	upd   tele.Update
	store map[string]any
}

func newFakeContext(userID int64, callback bool) *fakeContext {
	upd := tele.Update{ID: 1}
	user := &tele.User{ID: userID}
	if callback {
		upd.Callback = &tele.Callback{Sender: user, Data: "\fpb|action=x"}
	} else {
		upd.Message = &tele.Message{Sender: user, Chat: &tele.Chat{ID: userID}, Text: "hi"}
	}
	return &fakeContext{upd: upd, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update { return f.upd }
func (f *fakeContext) Get(k string) any    { return f.store[k] }
func (f *fakeContext) Set(k string, v any) { f.store[k] = v }
func (f *fakeContext) Text() string        { return "hi" }
func (f *fakeContext) Send(any, ...any) error {
	return nil
}

func (f *fakeContext) Sender() *tele.User {
	if f.upd.Callback != nil {
		return f.upd.Callback.Sender
	}
	return f.upd.Message.Sender
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.upd.Message != nil {
		return f.upd.Message.Chat
	}
	return nil
}

func TestRateLimit(t *testing.T) {
	now := time.Unix(1000, 0)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
		Now:       func() time.Time { return now },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	_ = h(newFakeContext(1, false))
	_ = h(newFakeContext(1, false))
	if calls != 1 || limited != 1 {
		t.Fatalf("calls=%d limited=%d, want 1/1", calls, limited)
	}

	_ = h(newFakeContext(2, false))
	_ = h(newFakeContext(1, true))
	if calls != 3 {
		t.Fatalf("other users and excluded kinds must pass, calls=%d", calls)
	}

	now = now.Add(time.Second)
	_ = h(newFakeContext(1, false))
	if calls != 4 {
		t.Fatalf("interval elapsed, calls=%d", calls)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	if err := h(newFakeContext(1, false)); err == nil {
		t.Fatal("panic must surface as an error")
	}

	want := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return want })
	if err := h(newFakeContext(1, false)); !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}

func TestMessageCounters(t *testing.T) {
	c := newFakeContext(1, false)
	h := MessageCountersMiddleware(func(c tele.Context) error {
		if err := c.Send("plain"); err != nil {
			return err
		}
		return c.Send("kb", &tele.ReplyMarkup{})
	})
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	msgs, kb := GetCounters(c)
	if msgs != 2 || !kb {
		t.Fatalf("messages=%d kb=%v", msgs, kb)
	}
}

func TestLoggerMiddlewareSetsRID(t *testing.T) {
	c := newFakeContext(5, false)
	called := false
	h := LoggerMiddleware(func(tele.Context) error { called = true; return nil })
	if err := h(c); err != nil || !called {
		t.Fatalf("err=%v called=%v", err, called)
	}
	if rid, _ := c.Get("rid").(string); rid == "" {
		t.Fatal("rid not stored")
	}
}
