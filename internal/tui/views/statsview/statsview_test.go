package statsview

import "testing"

func TestSortedKinds(t *testing.T) {
	got := sortedKinds(map[string]int{
		"tab-switch":  4,
		"no-face":     9,
		"window-blur": 4,
	})
	want := []kindCount{
		{kind: "no-face", n: 9},
		{kind: "tab-switch", n: 4},
		{kind: "window-blur", n: 4},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sortedKinds[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		sec  float64
		want string
	}{
		{330, "5m30s"},
		{59, "0m59s"},
		{7200, "2h00m"},
	}
	for _, tc := range cases {
		if got := formatSeconds(tc.sec); got != tc.want {
			t.Errorf("formatSeconds(%v) = %q, want %q", tc.sec, got, tc.want)
		}
	}
}
