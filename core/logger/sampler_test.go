package logger

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestKeyedSamplerPerKey(t *testing.T) {
	s := newKeyedSampler(1, 3)
	var got []bool
	for i := 0; i < 4; i++ {
		got = append(got, s.Allow("a"))
	}
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("a[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if !s.Allow("b") {
		t.Fatal("first event of a new key must pass")
	}
}

func TestKeyedSamplerDisabled(t *testing.T) {
	s := newKeyedSampler(0, 0)
	for i := 0; i < 10; i++ {
		if !s.Allow("x") {
			t.Fatal("disabled sampler must pass everything")
		}
	}
}

func TestParseRatio(t *testing.T) {
	cases := map[string][2]int{
		"":      {0, 0},
		"1/10":  {1, 10},
		" 2/5 ": {2, 5},
		"20":    {1, 20},
		"0":     {0, 0},
		"a/b":   {0, 0},
		"junk":  {0, 0},
	}
	for in, want := range cases {
		n, d := parseRatio(in)
		if n != want[0] || d != want[1] {
			t.Fatalf("%q -> %d/%d, want %d/%d", in, n, d, want[0], want[1])
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterIsolatesBrokenSink(t *testing.T) {
	var good bytes.Buffer
	aw := newAsyncWriter([]io.Writer{failingWriter{}, &good}, 16)
	if err := aw.Write([]byte("one\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = aw.Flush()
	if err := aw.Write([]byte("two\n")); err != nil {
		t.Fatalf("write with one healthy sink: %v", err)
	}
	if err := aw.Close(); err == nil {
		t.Fatal("close should report the broken sink")
	}
	if good.String() != "one\ntwo\n" {
		t.Fatalf("healthy sink got %q", good.String())
	}
}

func TestAsyncWriterAllSinksBroken(t *testing.T) {
	aw := newAsyncWriter([]io.Writer{failingWriter{}}, 16)
	_ = aw.Write([]byte("one\n"))
	_ = aw.Flush()
	if err := aw.Write([]byte("two\n")); err == nil {
		t.Fatal("write must fail once every sink is broken")
	}
	_ = aw.Close()
}
