package header

import "testing"

func TestAddAndGetCaseInsensitive(t *testing.T) {
	l := New(0)
	l.Add("Content-Type", "text/plain")

	v, ok := l.Get("content-type")
	if !ok || v != "text/plain" {
		t.Fatalf("got (%q, %v), want (\"text/plain\", true)", v, ok)
	}
}

func TestValuesPreservesOrderAndMultiValue(t *testing.T) {
	l := New(0)
	l.Add("Set-Cookie", "a=1")
	l.Add("Set-Cookie", "b=2")

	vs := l.Values("set-cookie")
	if len(vs) != 2 || vs[0] != "a=1" || vs[1] != "b=2" {
		t.Fatalf("got %#v, want [a=1 b=2]", vs)
	}
}

func TestSetReplacesAllOccurrences(t *testing.T) {
	l := New(0)
	l.Add("X-Trace", "one")
	l.Add("X-Other", "keep")
	l.Add("X-Trace", "two")

	l.Set("x-trace", "three")

	vs := l.Values("X-Trace")
	if len(vs) != 1 || vs[0] != "three" {
		t.Fatalf("got %#v, want [three]", vs)
	}
	if v, ok := l.Get("X-Other"); !ok || v != "keep" {
		t.Fatalf("unrelated header was disturbed: %q, %v", v, ok)
	}
}

func TestDel(t *testing.T) {
	l := New(0)
	l.Add("A", "1")
	l.Add("B", "2")
	l.Add("A", "3")
	l.Del("a")

	if l.Has("A") {
		t.Fatalf("expected A to be removed")
	}
	if l.Len() != 1 {
		t.Fatalf("got length %d, want 1", l.Len())
	}
}
