package gateway

import "testing"

func TestPrepareTextStripsHTMLAndCollapsesNewlines(t *testing.T) {
	got := PrepareText("Headline", "<p>First &amp; best</p>\n\n\n<p>Second\tline</p>")
	want := "Headline\nFirst & best\nSecond line"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestPrepareTextNormalizesLineEndings(t *testing.T) {
	got := PrepareText("  Title ", "a\r\n\r\nb c  ")
	if got != "Title\na\nb c" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestPrepareTextWithoutBody(t *testing.T) {
	if got := PrepareText("Only title", ""); got != "Only title" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestStripHTMLPlainText(t *testing.T) {
	if got := StripHTML("no markup here"); got != "no markup here" {
		t.Fatalf("unexpected text %q", got)
	}
}
