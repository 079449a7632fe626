package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "send_counters"

// sendCounters is shared between the handler and dispatcher workers that send
// on its behalf, so the fields are atomic.
type sendCounters struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

// countingContext records every successful Send and Reply.
type countingContext struct {
	tele.Context
	n *sendCounters
}

func (c countingContext) record(opts []any, err error) error {
	if err != nil {
		return err
	}
	c.n.messages.Add(1)
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			if v != nil {
				c.n.keyboard.Store(true)
			}
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				c.n.keyboard.Store(true)
			}
		}
	}
	return nil
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.record(opts, c.Context.Send(what, opts...))
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.record(opts, c.Context.Reply(what, opts...))
}

// MessageCountersMiddleware counts the replies a handler sends and whether any carried a keyboard.
func MessageCountersMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		n := &sendCounters{}
		c.Set(countersKey, n)
		return next(countingContext{Context: c, n: n})
	}
}

// GetCounters returns the messages sent so far and whether a keyboard was attached.
// Jobs still queued on the dispatcher are not counted yet.
func GetCounters(c tele.Context) (messages int, keyboard bool) {
	n, ok := c.Get(countersKey).(*sendCounters)
	if !ok {
		return 0, false
	}
	return int(n.messages.Load()), n.keyboard.Load()
}
