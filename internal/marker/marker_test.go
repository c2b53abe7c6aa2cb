package marker

import (
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want bool
	}{
		{"Danke. [MAIL_SENDEN]", true},
		{"[MAIL_SENDEN] am Anfang", true},
		{"mitten[MAIL_SENDEN]drin", true},
		{"Danke. mail senden", false},
		{"Danke. [mail_senden]", false},
		{"Danke. MAIL_SENDEN", false},
		{"Danke. [MAIL SENDEN]", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Detect(tc.text); got != tc.want {
			t.Errorf("Detect(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestStripRemovesEveryOccurrence(t *testing.T) {
	t.Parallel()

	got := Strip("Danke Herr Müller. [MAIL_SENDEN]")
	if got != "Danke Herr Müller. " {
		t.Fatalf("unexpected stripped text: %q", got)
	}

	got = Strip("[MAIL_SENDEN]a[MAIL_SENDEN]b[MAIL_SENDEN]")
	if got != "ab" {
		t.Fatalf("unexpected stripped text: %q", got)
	}
	if strings.Contains(got, Sentinel) {
		t.Fatalf("sentinel survived stripping: %q", got)
	}
}

func TestStripLeavesPlainTextAlone(t *testing.T) {
	t.Parallel()

	in := "  Wie heißen Sie?  "
	if got := Strip(in); got != in {
		t.Fatalf("Strip altered text without sentinel: %q", got)
	}
}
