package segment

import (
	"strings"

	"github.com/skillsenselab/clipwise/errors"
	"github.com/skillsenselab/clipwise/logger"
)

// PlannerConfig controls window sizing.
type PlannerConfig struct {
	// TokenBudget is the oracle's maximum input size in estimator units.
	TokenBudget int `yaml:"token_budget" mapstructure:"token_budget"`
	// OverlapFraction is the fraction of a window's word count shared with
	// the next window.
	OverlapFraction float64 `yaml:"overlap_fraction" mapstructure:"overlap_fraction"`
	// TargetFraction is the share of the post-overhead budget spent on the
	// window itself; the rest is reserved for the oracle's output.
	TargetFraction float64 `yaml:"target_fraction" mapstructure:"target_fraction"`
	// MinWindowWords is the smallest window worth emitting. A trailing
	// remainder below this is folded into the previous window.
	MinWindowWords int `yaml:"min_window_words" mapstructure:"min_window_words"`
	// SafetyMarginTokens absorbs estimation error.
	SafetyMarginTokens int `yaml:"safety_margin_tokens" mapstructure:"safety_margin_tokens"`
	// InstructionTokens is the cost of the oracle's instruction prompt and
	// response schema. Zero means measure from the segmenter's defaults.
	InstructionTokens int `yaml:"instruction_tokens" mapstructure:"instruction_tokens"`
}

// DefaultPlannerConfig returns planner defaults sized for a 32k-token oracle.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		TokenBudget:        32000,
		OverlapFraction:    0.2,
		TargetFraction:     0.4,
		MinWindowWords:     10,
		SafetyMarginTokens: 1000,
	}
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *PlannerConfig) ApplyDefaults() {
	d := DefaultPlannerConfig()
	if c.TokenBudget == 0 {
		c.TokenBudget = d.TokenBudget
	}
	if c.OverlapFraction == 0 {
		c.OverlapFraction = d.OverlapFraction
	}
	if c.TargetFraction == 0 {
		c.TargetFraction = d.TargetFraction
	}
	if c.MinWindowWords == 0 {
		c.MinWindowWords = d.MinWindowWords
	}
	if c.SafetyMarginTokens == 0 {
		c.SafetyMarginTokens = d.SafetyMarginTokens
	}
	if c.InstructionTokens == 0 {
		c.InstructionTokens = EstimateTokens(DefaultInstruction) + schemaOverheadTokens
	}
}

// Planner partitions a word sequence into overlapping token-budgeted windows.
type Planner struct {
	cfg PlannerConfig
	log *logger.Logger
}

// NewPlanner creates a Planner. A nil log falls back to the global logger.
func NewPlanner(cfg PlannerConfig, log *logger.Logger) *Planner {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Planner{cfg: cfg, log: log.WithComponent("planner")}
}

// Plan produces an ordered list of windows such that every word appears in at
// least one window, every window's estimated token cost fits the budget, and
// consecutive windows overlap by the configured fraction.
func (p *Planner) Plan(words []Word) ([]Window, error) {
	if len(words) == 0 {
		return nil, errors.InvalidInput("words", "transcript contains no words")
	}

	perWord := WordOverheadTokens()
	fixed := p.cfg.InstructionTokens + p.cfg.SafetyMarginTokens
	usable := p.cfg.TokenBudget - fixed
	if usable <= 0 {
		return nil, errors.BudgetTooSmall(p.cfg.TokenBudget, fixed)
	}

	target := int(float64(usable) * p.cfg.TargetFraction / float64(1+perWord))
	if target < 1 {
		return nil, errors.BudgetTooSmall(p.cfg.TokenBudget, fixed)
	}

	var windows []Window
	i := 0
	for i < len(words) {
		take := min(target, len(words)-i)
		// Fold a degenerate trailing remainder into this window.
		if rem := len(words) - (i + take); rem > 0 && rem < p.cfg.MinWindowWords {
			take += rem
		}

		w, cost := p.buildWindow(words[i : i+take])
		// The target is computed from average word cost; unusually long words
		// can still blow the precise estimate, so shrink until it fits.
		for cost > p.cfg.TokenBudget && take > 1 {
			take--
			w, cost = p.buildWindow(words[i : i+take])
		}
		if cost > p.cfg.TokenBudget {
			return nil, errors.BudgetTooSmall(p.cfg.TokenBudget, cost)
		}

		// Shrinking can hand back words and strand a remainder below the
		// minimum that the earlier fold no longer covers. Give the next
		// window enough words to stand on its own.
		if rem := len(words) - (i + take); rem > 0 && rem < p.cfg.MinWindowWords {
			if spare := take - (p.cfg.MinWindowWords - rem); spare >= 1 {
				take = spare
				w, cost = p.buildWindow(words[i : i+take])
			}
		}

		windows = append(windows, w)
		p.log.Debug("planned window", map[string]interface{}{
			logger.FieldWindow: len(windows) - 1,
			"words":            take,
			"tokens":           cost,
		})

		if i+take >= len(words) {
			break
		}

		overlap := int(float64(take) * p.cfg.OverlapFraction)
		if remaining := len(words) - (i + take); overlap > remaining {
			overlap = remaining
		}
		next := i + take - overlap
		if next <= i {
			return nil, errors.PlanningStalled(i)
		}
		i = next
	}

	return windows, nil
}

// buildWindow assembles a window from a word slice and returns it with its
// precise estimated token cost, overheads included.
func (p *Planner) buildWindow(words []Word) (Window, int) {
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	text := strings.Join(texts, " ")

	perWord := WordOverheadTokens()
	cost := EstimateTokens(text) + len(words)*perWord + p.cfg.InstructionTokens + p.cfg.SafetyMarginTokens

	return Window{
		Words: words,
		Text:  text,
		Start: words[0].Start,
		End:   words[len(words)-1].End,
	}, cost
}
