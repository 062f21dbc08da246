package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc , broken, =x, team=parla ")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "parla" {
		t.Fatalf("got %v", got)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty input should yield nil")
	}
}

func TestClampRatio(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0.1},
		{-1, 0.1},
		{0.5, 0.5},
		{3, 1},
	}
	for _, tc := range cases {
		if got := clampRatio(tc.in); got != tc.want {
			t.Fatalf("clampRatio(%v)=%v want %v", tc.in, got, tc.want)
		}
	}
}
