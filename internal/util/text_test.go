package util

import (
	"strings"
	"testing"
	"unicode"
)

func TestDigits(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "spaces and star", input: "35 234*", want: "35234"},
		{name: "grouped iccid", input: "8970101 2345678901234", want: "89701012345678901234"},
		{name: "no digits", input: "н/д", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "punctuation", input: "(897)-01.01/99", want: "897010199"},
		{name: "cyrillic mixed", input: "IMEI: 3512 №7", want: "35127"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Digits(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDigitsProperties(t *testing.T) {
	inputs := []string{"", "abc", "12 34", "IMEI 35-6789", "  8970\t120\n", "٣٤x5", "номер 1"}
	for _, in := range inputs {
		out := Digits(in)
		if len(out) > len(in) {
			t.Fatalf("%q: output longer than input", in)
		}
		for _, r := range out {
			if !unicode.IsDigit(r) {
				t.Fatalf("%q: non-digit %q in output", in, r)
			}
		}
		if Digits(out) != out {
			t.Fatalf("%q: not idempotent", in)
		}
		// digits keep their relative order
		rest := in
		for _, r := range out {
			idx := strings.IndexRune(rest, r)
			if idx < 0 {
				t.Fatalf("%q: order broken at %q", in, r)
			}
			rest = rest[idx+len(string(r)):]
		}
	}
}

func TestUnwrapMarkdownLink(t *testing.T) {
	if got := UnwrapMarkdownLink("[vkusvill-211](https://example.test/x)"); got != "vkusvill-211" {
		t.Fatalf("got %q", got)
	}
	if got := UnwrapMarkdownLink("  router1 "); got != "router1" {
		t.Fatalf("got %q", got)
	}
}
