package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "nope")
	if got := Int("ENVUTIL_INT", 7); got != 7 {
		t.Fatalf("Int: want=7 got=%d", got)
	}
	t.Setenv("ENVUTIL_INT", " 12 ")
	if got := Int("ENVUTIL_INT", 7); got != 12 {
		t.Fatalf("Int: want=12 got=%d", got)
	}
}

func TestDurationAcceptsSecondsAndGoSyntax(t *testing.T) {
	t.Setenv("ENVUTIL_DUR", "45")
	if got := Duration("ENVUTIL_DUR", time.Second); got != 45*time.Second {
		t.Fatalf("Duration: want=45s got=%s", got)
	}
	t.Setenv("ENVUTIL_DUR", "2m")
	if got := Duration("ENVUTIL_DUR", time.Second); got != 2*time.Minute {
		t.Fatalf("Duration: want=2m got=%s", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("ENVUTIL_BOOL", "off")
	if Bool("ENVUTIL_BOOL", true) {
		t.Fatalf("Bool: want=false")
	}
	t.Setenv("ENVUTIL_BOOL", "")
	if !Bool("ENVUTIL_BOOL", true) {
		t.Fatalf("Bool: want default true")
	}
}

func TestFloatAndList(t *testing.T) {
	t.Setenv("ENVUTIL_FLOAT", "0.25")
	if got := Float("ENVUTIL_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float: want=0.25 got=%v", got)
	}
	t.Setenv("ENVUTIL_LIST", " a, ,b ,")
	got := List("ENVUTIL_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: want=[a b] got=%v", got)
	}
	t.Setenv("ENVUTIL_LIST", " , ")
	if got := List("ENVUTIL_LIST", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Fatalf("List default: got=%v", got)
	}
}
