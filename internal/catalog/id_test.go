package catalog

import "testing"

func TestNormalizeID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"123", "123"},
		{"123.0", "123"},
		{" 123.0 ", "123"},
		{"1.23e2", "123"},
		{"123.5", "123.5"},
		{"veggie-box", "veggie-box"},
		{"", ""},
		{"0", "0"},
		{"86385", "86385"},
	}
	for _, tc := range cases {
		if got := NormalizeID(tc.in); got != tc.want {
			t.Errorf("NormalizeID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIDUnmarshalJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want ID
	}{
		{`"3497"`, "3497"},
		{`3497`, "3497"},
		{`3497.0`, "3497"},
		{`"3497.0"`, "3497"},
		{`null`, ""},
	}
	for _, tc := range cases {
		var id ID
		if err := id.UnmarshalJSON([]byte(tc.raw)); err != nil {
			t.Fatalf("UnmarshalJSON(%s) error = %v", tc.raw, err)
		}
		if id != tc.want {
			t.Errorf("UnmarshalJSON(%s) = %q, want %q", tc.raw, id, tc.want)
		}
	}
}
