package summarizer

import (
	"strings"
	"testing"
)

func TestSummarizeKeepsOrderAndLimit(t *testing.T) {
	text := "Fractions name parts of a whole. The sky is blue today. " +
		"A fraction has a numerator and a denominator. Equivalent fractions name the same part of a whole."
	got, err := NewFrequencySummarizer().Summarize(text, 2)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "sky") {
		t.Errorf("off-topic sentence should rank low: %q", got)
	}
	first := strings.Index(got, "Fractions name parts")
	last := strings.Index(got, "Equivalent fractions")
	if first < 0 || last < 0 || first > last {
		t.Errorf("expected the two fraction sentences in original order: %q", got)
	}
}

func TestSummarizeWithoutPunctuation(t *testing.T) {
	got, _ := NewFrequencySummarizer().Summarize("  no sentence end here  ", 3)
	if got != "no sentence end here" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestSummarizeDanda(t *testing.T) {
	got, _ := NewFrequencySummarizer().Summarize("भिन्न एक भाग है। भिन्न का अंश होता है। आकाश नीला है।", 1)
	if !strings.HasSuffix(got, "।") || strings.Count(got, "।") != 1 {
		t.Fatalf("expected a single Devanagari sentence, got %q", got)
	}
}
