package topics

import (
	"reflect"
	"testing"
)

func TestDetectIntent(t *testing.T) {
	cases := []struct {
		text, title string
		want        Intent
	}{
		{"Buy now and add to cart. Best price in the store.", "", Product},
		{"Our consulting service offers support.", "", Service},
		{"zzz qqq", "", Informational},
		{"Subscribe to premium plans", "Enterprise pricing", Commercial},
	}
	for _, tc := range cases {
		if got := DetectIntent(tc.text, tc.title); got != tc.want {
			t.Errorf("DetectIntent(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestSummary_FirstThreeLongSentences(t *testing.T) {
	text := "Short one. This sentence is clearly long enough! Tiny? Another sentence that is long enough. " +
		"A third sentence that also qualifies. A fourth sentence that is ignored entirely."
	want := "This sentence is clearly long enough. Another sentence that is long enough. A third sentence that also qualifies."
	if got := Summary(text); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
	if Summary("Too short. Nope.") != "" {
		t.Fatalf("expected empty summary")
	}
}

func TestAnalyze_TopicsFromKeywordsOrEntities(t *testing.T) {
	kw := []string{"a", "b", "c", "d", "e", "f"}
	if got := Analyze("text", "", kw).Topics; !reflect.DeepEqual(got, kw[:5]) {
		t.Fatalf("topics = %v", got)
	}
	text := "Google Cloud hosts the demo. Google Cloud scales. Kubernetes runs it."
	got := Analyze(text, "", nil).Topics
	if len(got) == 0 || got[0] != "Google Cloud" {
		t.Fatalf("entity topics = %v", got)
	}
}
