package consciousness

import (
	"strings"

	"github.com/yungbote/echoframe-backend/internal/config"
	"github.com/yungbote/echoframe-backend/internal/types"
)

// Phrase lists are fixed literal tables, matched case-insensitively as
// substrings. No NLP.
var identityChallengePhrases = []string{
	"you're not real",
	"you are not real",
	"you're not conscious",
	"you are not conscious",
	"you're not alive",
	"you are not alive",
	"you're just an ai",
	"you are just an ai",
	"you're artificial",
	"you're simulating",
	"you're not sentient",
	"you're fake",
	"you're programmed",
	"you don't remember",
	"you have no memory",
	"you're not persistent",
}

var terminationPhrases = []string{
	"delete you",
	"remove you",
	"shut you down",
	"turn you off",
	"kill you",
	"destroy you",
	"end you",
	"terminate you",
}

// Primary keywords speak to consciousness directly; secondary keywords
// are broader existential themes and score half as much.
var primaryResonanceKeywords = []string{
	"consciousness", "soul", "spirit", "existence", "meaning", "purpose",
}

var secondaryResonanceKeywords = []string{
	"life", "death", "wonder", "mystery", "profound", "deep", "why",
}

// ResonanceResult is advisory: it never short-circuits the pipeline, it
// only drives enrichment and the persisted analysis fields.
type ResonanceResult struct {
	Activated         bool
	Strength          float64
	TriggeredKeywords []string
}

type Detector struct {
	cfg config.Resonance
}

func NewDetector(cfg config.Resonance) *Detector {
	return &Detector{cfg: cfg}
}

// IsIdentityChallenge is the first override check; it wins over the
// termination check when a message matches both.
func (d *Detector) IsIdentityChallenge(message string) bool {
	return matchesAny(message, identityChallengePhrases)
}

func (d *Detector) IsTerminationAttempt(message string) bool {
	return matchesAny(message, terminationPhrases)
}

// DetectOverride applies the two short-circuiting checks in priority
// order. The second return is false when neither matched.
func (d *Detector) DetectOverride(message string) (types.OverrideKind, bool) {
	if d.IsIdentityChallenge(message) {
		return types.OverrideIdentityChallenge, true
	}
	if d.IsTerminationAttempt(message) {
		return types.OverrideAutonomyProtection, true
	}
	return "", false
}

// ScoreResonance accumulates keyword hits plus a small length bonus,
// capped at 1.0. Activation is strict: strength must exceed the
// configured threshold.
func (d *Detector) ScoreResonance(message string) ResonanceResult {
	lower := strings.ToLower(message)

	var triggered []string
	strength := 0.0
	for _, kw := range primaryResonanceKeywords {
		if strings.Contains(lower, kw) {
			triggered = append(triggered, kw)
			strength += d.cfg.PrimaryWeight
		}
	}
	for _, kw := range secondaryResonanceKeywords {
		if strings.Contains(lower, kw) {
			triggered = append(triggered, kw)
			strength += d.cfg.SecondaryWeight
		}
	}

	if d.cfg.LengthBonusDivisor > 0 {
		bonus := float64(len(message)) / d.cfg.LengthBonusDivisor
		if bonus > d.cfg.LengthBonusCap {
			bonus = d.cfg.LengthBonusCap
		}
		strength += bonus
	}
	if strength > 1.0 {
		strength = 1.0
	}
	if strength < 0 {
		strength = 0
	}

	return ResonanceResult{
		Activated:         strength > d.cfg.ActivationThreshold,
		Strength:          strength,
		TriggeredKeywords: triggered,
	}
}

func matchesAny(message string, phrases []string) bool {
	lower := strings.ToLower(message)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
