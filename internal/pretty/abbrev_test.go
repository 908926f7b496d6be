package pretty

import "testing"

func TestAbbrev(t *testing.T) {
	cases := []struct {
		Input  string
		Ranges []int
		Want   string
	}{
		{"short", nil, "short"},
		{"0123456789abcdef0123456789abcdef", nil, "0123456789ab…"},
		{"0123456789abcdef0123456789abcdef", []int{8}, "01234567…"},
		{"0123456789", []int{12, 4}, "0123456789"},
		{"0123456789abcdef", []int{12, 4}, "0123…"},
	}

	for i, tc := range cases {
		got := Abbrev(tc.Input, tc.Ranges...).String()
		if got != tc.Want {
			t.Errorf("case #%d: got: %q; want %q", i, got, tc.Want)
		}
	}
}
