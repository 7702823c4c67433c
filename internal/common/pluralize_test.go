package common

import "testing"

func TestPluralizeTakeouts(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, "выносов"},
		{1, "вынос"},
		{2, "выноса"},
		{4, "выноса"},
		{5, "выносов"},
		{11, "выносов"},
		{12, "выносов"},
		{14, "выносов"},
		{21, "вынос"},
		{22, "выноса"},
		{25, "выносов"},
		{100, "выносов"},
		{101, "вынос"},
		{111, "выносов"},
		{-3, "выноса"},
	}

	for _, c := range cases {
		if got := PluralizeTakeouts(c.n); got != c.want {
			t.Errorf("PluralizeTakeouts(%d) = %q, ожидалось %q", c.n, got, c.want)
		}
	}
}

func TestFormatTakeouts(t *testing.T) {
	if got := FormatTakeouts(5); got != "5 выносов" {
		t.Errorf("FormatTakeouts(5) = %q", got)
	}
	if got := FormatTakeouts(1); got != "1 вынос" {
		t.Errorf("FormatTakeouts(1) = %q", got)
	}
}
