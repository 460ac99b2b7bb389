package lang

import "testing"

func TestNormalizeTag(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "en", want: "en"},
		{in: " EN ", want: "en"},
		{in: "zh_Hans", want: "zh-hans"},
		{in: "pt-BR", want: "pt-br"},
		{in: "", want: ""},
		{in: "en US", want: ""},
		{in: "e1", want: ""},
		{in: "--", want: ""},
	}

	for _, tc := range cases {
		if got := NormalizeTag(tc.in); got != tc.want {
			t.Fatalf("NormalizeTag(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "en-US", want: "en"},
		{in: "zh-Hans", want: "zh"},
		{in: "FR", want: "fr"},
		{in: "123", want: ""},
	}

	for _, tc := range cases {
		if got := NormalizeCode(tc.in); got != tc.want {
			t.Fatalf("NormalizeCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
