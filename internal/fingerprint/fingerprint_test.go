package fingerprint

import (
	"strings"
	"testing"
)

func TestOf_Deterministic(t *testing.T) {
	v := map[string]any{"b": 2, "a": []string{"x", "y"}}
	first, err := Of(v)
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	for i := 0; i < 100; i++ {
		got, _ := Of(map[string]any{"a": []string{"x", "y"}, "b": 2})
		if got != first {
			t.Fatalf("iteration %d: %s != %s", i, got, first)
		}
	}
	if !strings.HasPrefix(first, `"`) || !strings.HasSuffix(first, `"`) || len(first) != 18 {
		t.Errorf("etag %s is not a quoted 16 hex digit value", first)
	}
}

func TestOf_Distinct(t *testing.T) {
	a, _ := Of([]int{1, 2})
	b, _ := Of([]int{2, 1})
	if a == b {
		t.Error("different values produced the same etag")
	}
}

func TestOf_Unencodable(t *testing.T) {
	if _, err := Of(make(chan int)); err == nil {
		t.Fatal("expected error for channel")
	}
}

func TestMatches(t *testing.T) {
	etag := Bytes([]byte("x"))
	tests := []struct {
		header string
		want   bool
	}{
		{etag, true},
		{"W/" + etag, true},
		{"*", true},
		{"", false},
		{`"other"`, false},
	}
	for _, tt := range tests {
		if got := Matches(tt.header, etag); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
