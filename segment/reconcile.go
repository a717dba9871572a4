package segment

import (
	"sort"

	"github.com/skillsenselab/clipwise/logger"
	"github.com/skillsenselab/clipwise/util"
)

// ReconcilerConfig controls how overlapping per-window segments are resolved.
type ReconcilerConfig struct {
	// OverlapToleranceSec is the gap, in seconds, below which two segments are
	// considered touching and their boundary is adjusted instead of reported.
	OverlapToleranceSec float64 `yaml:"overlap_tolerance_sec" mapstructure:"overlap_tolerance_sec"`
	// TopicEditDistance is the Levenshtein threshold below which two topic
	// labels are considered the same topic. Tunable per oracle and domain.
	TopicEditDistance int `yaml:"topic_edit_distance" mapstructure:"topic_edit_distance"`
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *ReconcilerConfig) ApplyDefaults() {
	if c.OverlapToleranceSec == 0 {
		c.OverlapToleranceSec = 2
	}
	if c.TopicEditDistance == 0 {
		c.TopicEditDistance = 5
	}
}

// Reconciler merges the concatenation of all windows' valid raw segments into
// one ordered, non-overlapping timeline. Overlapping windows both see the
// boundary region, so their proposals may duplicate or disagree there.
type Reconciler struct {
	cfg ReconcilerConfig
	log *logger.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(cfg ReconcilerConfig, log *logger.Logger) *Reconciler {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Reconciler{cfg: cfg, log: log.WithComponent("reconciler")}
}

// Reconcile folds sorted raw segments into the global segment timeline.
//
// Two overlapping proposals with textually similar topics are two views of the
// same real segment seen from adjacent windows: they merge, spanning their
// union, with summaries joined and the filler flag ANDed (a segment is filler
// only if every window-view agreed). Overlapping proposals with genuinely
// different topics disagree about where the boundary falls: the boundary is
// split at the midpoint and both are kept.
func (r *Reconciler) Reconcile(raws []RawSegment) []Segment {
	if len(raws) == 0 {
		return nil
	}

	sorted := make([]RawSegment, len(raws))
	copy(sorted, raws)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := make([]Segment, 0, len(sorted))
	out = append(out, Segment(sorted[0]))

	for _, cur := range sorted[1:] {
		prev := &out[len(out)-1]

		if cur.Start > prev.End+r.cfg.OverlapToleranceSec {
			out = append(out, Segment(cur))
			continue
		}

		if r.sameTopic(prev.Topic, cur.Topic) {
			prev.End = max(prev.End, cur.End)
			prev.Summary = joinSummaries(prev.Summary, cur.Summary)
			prev.IsFiller = prev.IsFiller && cur.IsFiller
			continue
		}

		// A disagreeing segment that never extends past the previous one is a
		// minority view of a region the previous segment already covers, not a
		// boundary dispute. Splitting there can invert or truncate the
		// timeline, so the contained view is dropped.
		if cur.End <= prev.End {
			r.log.Debug("dropping contained disagreeing segment", map[string]interface{}{
				"previous_topic": prev.Topic,
				"current_topic":  cur.Topic,
				"start":          cur.Start,
				"end":            cur.End,
			})
			continue
		}

		mid := (prev.End + cur.Start) / 2
		r.log.Debug("boundary disagreement, splitting at midpoint", map[string]interface{}{
			"previous_topic": prev.Topic,
			"current_topic":  cur.Topic,
			"midpoint":       mid,
		})
		prev.End = mid
		next := Segment(cur)
		next.Start = mid
		out = append(out, next)
	}

	return out
}

// sameTopic reports whether two topic labels describe the same segment: one
// contains the other (case-insensitive) or their edit distance is below the
// configured threshold.
func (r *Reconciler) sameTopic(a, b string) bool {
	if util.ContainsFold(a, b) {
		return true
	}
	return util.Levenshtein(a, b) < r.cfg.TopicEditDistance
}

func joinSummaries(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "" || a == b:
		return a
	default:
		return a + " " + b
	}
}
