package scripture

import (
	"errors"
	"fmt"
	"testing"
)

func TestFormatReference(t *testing.T) {
	cases := map[string]string{
		"GEN-1-1":  "GEN 1:1",
		"1CO-13-4": "1CO 13:4",
		"PSA-119":  "PSA-119",
		"GEN":      "GEN",
	}
	for in, want := range cases {
		if got := FormatReference(in); got != want {
			t.Fatalf("FormatReference(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestHasSource(t *testing.T) {
	e := CrossReference{Sources: []string{"TSK", "Haydock"}}
	if !e.HasSource(map[string]struct{}{"Haydock": {}}) {
		t.Fatalf("HasSource: want true")
	}
	if e.HasSource(map[string]struct{}{"OpenBible": {}}) {
		t.Fatalf("HasSource: want false")
	}
	if (CrossReference{}).HasSource(map[string]struct{}{"TSK": {}}) {
		t.Fatalf("HasSource on empty sources: want false")
	}
}

func TestErrorCodesSurviveWrapping(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("export: snapshot: %w", Unavailable("neo4j.snapshot", base))
	if !IsCode(err, CodeUnavailable) {
		t.Fatalf("want unavailable code, got %q (%v)", CodeOf(err), err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("cause must stay reachable through errors.Is")
	}
	if Unavailable("op", nil) != nil {
		t.Fatalf("Unavailable(nil) must be nil")
	}
	inc := Inconsistent("positions.index", "book %s: counted %d, enumerated %d", "GEN", 2, 3)
	if CodeOf(inc) != CodeInconsistent {
		t.Fatalf("want inconsistent code, got %q", CodeOf(inc))
	}
}
