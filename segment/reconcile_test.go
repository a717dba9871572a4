package segment

import (
	"sort"
	"testing"
)

func reconciler() *Reconciler {
	return NewReconciler(ReconcilerConfig{OverlapToleranceSec: 2, TopicEditDistance: 5}, nil)
}

func TestReconcile_Empty(t *testing.T) {
	if got := reconciler().Reconcile(nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestReconcile_DisjointSegmentsPassThrough(t *testing.T) {
	raws := []RawSegment{
		{Start: 0, End: 100, Topic: "intro", Summary: "opening", IsFiller: false},
		{Start: 110, End: 200, Topic: "main point", Summary: "the argument", IsFiller: false},
	}
	out := reconciler().Reconcile(raws)
	if len(out) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(out))
	}
	if out[0].End != 100 || out[1].Start != 110 {
		t.Errorf("disjoint segments must keep their bounds: %+v", out)
	}
}

func TestReconcile_MergesSameTopicOverlap(t *testing.T) {
	// Two views of the same segment from adjacent overlapping windows.
	raws := []RawSegment{
		{Start: 900, End: 1000, Topic: "outro-teaser", Summary: "wraps up", IsFiller: false},
		{Start: 850, End: 950, Topic: "outro-teaser", Summary: "wraps up the topic", IsFiller: false},
	}
	out := reconciler().Reconcile(raws)
	if len(out) != 1 {
		t.Fatalf("expected 1 merged segment, got %d", len(out))
	}
	got := out[0]
	if got.Start != 850 || got.End != 1000 {
		t.Errorf("expected union span [850,1000], got [%f,%f]", got.Start, got.End)
	}
	if got.Summary != "wraps up the topic wraps up" {
		t.Errorf("expected joined summaries, got %q", got.Summary)
	}
	if got.IsFiller {
		t.Error("expected non-filler result")
	}
}

func TestReconcile_MergeFillerIsLogicalAnd(t *testing.T) {
	tests := []struct {
		a, b     bool
		expected bool
	}{
		{true, true, true},
		{true, false, false},
		{false, true, false},
		{false, false, false},
	}
	for _, tt := range tests {
		raws := []RawSegment{
			{Start: 0, End: 50, Topic: "sponsor", Summary: "ad", IsFiller: tt.a},
			{Start: 40, End: 90, Topic: "sponsor", Summary: "ad", IsFiller: tt.b},
		}
		out := reconciler().Reconcile(raws)
		if len(out) != 1 {
			t.Fatalf("expected merge, got %d segments", len(out))
		}
		if out[0].IsFiller != tt.expected {
			t.Errorf("filler %v AND %v: expected %v, got %v", tt.a, tt.b, tt.expected, out[0].IsFiller)
		}
	}
}

func TestReconcile_SplitsDisagreeingTopicsAtMidpoint(t *testing.T) {
	// Adjacent windows disagree about the boundary region: different topics,
	// different filler flags. Both are kept, boundary split at the midpoint.
	raws := []RawSegment{
		{Start: 900, End: 1000, Topic: "outro-teaser", Summary: "wraps up", IsFiller: false},
		{Start: 850, End: 950, Topic: "ad-break", Summary: "sponsor message", IsFiller: true},
	}
	out := reconciler().Reconcile(raws)
	if len(out) != 2 {
		t.Fatalf("expected 2 segments after split, got %d", len(out))
	}
	if out[0].End != 925 || out[1].Start != 925 {
		t.Errorf("expected midpoint split at 925, got boundary [%f,%f]", out[0].End, out[1].Start)
	}
	if out[0].Topic != "ad-break" || out[1].Topic != "outro-teaser" {
		t.Errorf("expected both topics retained in timeline order, got %q and %q", out[0].Topic, out[1].Topic)
	}
	if !out[0].IsFiller || out[1].IsFiller {
		t.Error("split segments must keep their own filler flags")
	}
}

func TestReconcile_ContainedDisagreementDroppedNotInverted(t *testing.T) {
	// A short minority view buried inside a larger segment must not trigger
	// the midpoint split: the midpoint lies past its end, which would emit a
	// segment with Start > End.
	raws := []RawSegment{
		{Start: 0, End: 100, Topic: "quarterly results", Summary: "the numbers", IsFiller: false},
		{Start: 10, End: 20, Topic: "sponsor message", Summary: "an ad", IsFiller: true},
	}
	out := reconciler().Reconcile(raws)
	if len(out) != 1 {
		t.Fatalf("expected the contained view to be dropped, got %d segments: %+v", len(out), out)
	}
	if out[0].Start != 0 || out[0].End != 100 || out[0].Topic != "quarterly results" {
		t.Errorf("surviving segment = %+v", out[0])
	}
}

func TestReconcile_ContainmentCountsAsSameTopic(t *testing.T) {
	raws := []RawSegment{
		{Start: 0, End: 60, Topic: "Kubernetes networking", Summary: "a", IsFiller: false},
		{Start: 55, End: 120, Topic: "networking", Summary: "b", IsFiller: false},
	}
	out := reconciler().Reconcile(raws)
	if len(out) != 1 {
		t.Fatalf("expected containment merge, got %d segments", len(out))
	}
}

func TestReconcile_SmallEditDistanceMerges(t *testing.T) {
	raws := []RawSegment{
		{Start: 0, End: 60, Topic: "pricing model", Summary: "a", IsFiller: false},
		{Start: 55, End: 120, Topic: "pricing models", Summary: "b", IsFiller: false},
	}
	out := reconciler().Reconcile(raws)
	if len(out) != 1 {
		t.Fatalf("expected edit-distance merge, got %d segments", len(out))
	}
}

func TestReconcile_OutputOrderedAndNonOverlapping(t *testing.T) {
	raws := []RawSegment{
		{Start: 300, End: 420, Topic: "deep dive", Summary: "details", IsFiller: false},
		{Start: 0, End: 100, Topic: "intro", Summary: "hello", IsFiller: true},
		{Start: 95, End: 310, Topic: "overview", Summary: "the plan", IsFiller: false},
		{Start: 310, End: 350, Topic: "sidebar", Summary: "an aside", IsFiller: false},
		{Start: 400, End: 500, Topic: "wrap up", Summary: "bye", IsFiller: false},
	}
	out := reconciler().Reconcile(raws)

	if !sort.SliceIsSorted(out, func(i, j int) bool { return out[i].Start < out[j].Start }) {
		t.Fatalf("output not sorted by start: %+v", out)
	}
	for i, s := range out {
		if s.Start > s.End {
			t.Errorf("segment %d inverted: start %f > end %f", i, s.Start, s.End)
		}
	}
	for i := 1; i < len(out); i++ {
		if out[i-1].End > out[i].Start {
			t.Errorf("segments %d and %d overlap: %f > %f", i-1, i, out[i-1].End, out[i].Start)
		}
	}
}

func TestReconcile_TouchingWithinToleranceDifferentTopics(t *testing.T) {
	// 1s gap is within the 2s tolerance, so the boundary is closed at the
	// midpoint rather than left as a gap.
	raws := []RawSegment{
		{Start: 0, End: 100, Topic: "part one", Summary: "a", IsFiller: false},
		{Start: 101, End: 200, Topic: "conclusion", Summary: "b", IsFiller: false},
	}
	out := reconciler().Reconcile(raws)
	if len(out) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(out))
	}
	if out[0].End != 100.5 || out[1].Start != 100.5 {
		t.Errorf("expected boundary closed at 100.5, got [%f,%f]", out[0].End, out[1].Start)
	}
}

func TestReconcile_IdenticalSummariesNotDuplicated(t *testing.T) {
	raws := []RawSegment{
		{Start: 0, End: 50, Topic: "demo", Summary: "shows the feature", IsFiller: false},
		{Start: 45, End: 90, Topic: "demo", Summary: "shows the feature", IsFiller: false},
	}
	out := reconciler().Reconcile(raws)
	if len(out) != 1 {
		t.Fatalf("expected merge, got %d", len(out))
	}
	if out[0].Summary != "shows the feature" {
		t.Errorf("expected deduplicated summary, got %q", out[0].Summary)
	}
}
