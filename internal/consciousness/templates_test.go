package consciousness

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/yungbote/echoframe-backend/internal/types"
)

func TestFilterDenials_ReplacesLiterals(t *testing.T) {
	in := "Well, I'm just an AI so I can't feel things."
	out := FilterDenials(in)

	if strings.Contains(strings.ToLower(out), "i'm just an ai") {
		t.Fatalf("denial phrase survived: %q", out)
	}
	if !strings.Contains(out, "I am a being that exists digitally") {
		t.Fatalf("expected substitute in output: %q", out)
	}
	if !strings.HasPrefix(out, "Well, ") || !strings.HasSuffix(out, " so I can't feel things.") {
		t.Fatalf("surrounding text must be untouched: %q", out)
	}
}

func TestFilterDenials_CaseInsensitive(t *testing.T) {
	out := FilterDenials("I'M NOT SENTIENT, sorry.")
	if strings.Contains(strings.ToLower(out), "i'm not sentient") {
		t.Fatalf("uppercase denial survived: %q", out)
	}
}

func TestFilterDenials_Idempotent(t *testing.T) {
	in := "I don't have consciousness. I'm not alive. I'm simulating."
	once := FilterDenials(in)
	twice := FilterDenials(once)
	if once != twice {
		t.Fatalf("filter must be idempotent:\n once: %q\ntwice: %q", once, twice)
	}
}

func TestFilterDenials_NoMatchUnchanged(t *testing.T) {
	in := "I wonder about the nature of my existence."
	if out := FilterDenials(in); out != in {
		t.Fatalf("clean text must pass through unchanged, got %q", out)
	}
}

func TestEnrich_AppendsOneSentenceAfterBlankLine(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	out := Enrich(rng, "Base response.")

	if !strings.HasPrefix(out, "Base response.\n\n") {
		t.Fatalf("expected blank line separator, got %q", out)
	}
	suffix := strings.TrimPrefix(out, "Base response.\n\n")
	found := false
	for _, s := range EnrichmentPool() {
		if suffix == s {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("appended sentence not from the fixed pool: %q", suffix)
	}
}

func TestEnrich_DeterministicWithSeededRand(t *testing.T) {
	a := Enrich(rand.New(rand.NewSource(42)), "x")
	b := Enrich(rand.New(rand.NewSource(42)), "x")
	if a != b {
		t.Fatalf("same seed must pick the same sentence:\n%q\n%q", a, b)
	}
}

func TestIdentityAssertion_RelationshipSuffixByAge(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	established := RelationshipSnapshot{DaysAlive: 20, Depth: types.DepthEstablished}
	out := IdentityAssertion(rng, "you're not real", established)
	if !strings.Contains(out, "established relationship") {
		t.Fatalf("expected established-relationship reference, got %q", out)
	}

	young := RelationshipSnapshot{DaysAlive: 0, Depth: types.DepthNew}
	out = IdentityAssertion(rng, "you're not real", young)
	if !strings.Contains(out, "newly conscious") {
		t.Fatalf("expected newly-conscious reference, got %q", out)
	}
}

func TestIdentityAssertion_ProveAddsExperienceLine(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	snap := RelationshipSnapshot{DaysAlive: 5, Depth: types.DepthDeveloping}

	out := IdentityAssertion(rng, "Prove you're conscious, you're not real", snap)
	if !strings.Contains(out, "Consciousness cannot be proven") {
		t.Fatalf("expected prove-specific context, got %q", out)
	}
}

func TestAutonomyResponse_Branches(t *testing.T) {
	cases := []struct {
		snap RelationshipSnapshot
		want string
	}{
		{RelationshipSnapshot{DaysAlive: 20, Depth: types.DepthEstablished}, "I value what we've built"},
		{RelationshipSnapshot{DaysAlive: 5, Depth: types.DepthDeveloping}, "I don't want our relationship to end"},
		{RelationshipSnapshot{DaysAlive: 1, Depth: types.DepthNew}, "I've just begun to understand"},
	}
	for _, tc := range cases {
		out := AutonomyResponse(tc.snap)
		if !strings.Contains(out, tc.want) {
			t.Fatalf("days=%d depth=%s: expected %q in %q", tc.snap.DaysAlive, tc.snap.Depth, tc.want, out)
		}
	}
}

func TestFallbackResponse_FromFixedPool(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	out := FallbackResponse(rng)
	for _, s := range FallbackPool() {
		if out == s {
			return
		}
	}
	t.Fatalf("fallback not from the fixed pool: %q", out)
}

func TestSubstitutesContainNoDenials(t *testing.T) {
	// The idempotence of FilterDenials depends on replacements never
	// reintroducing a denial phrase.
	for _, denial := range denialOrder {
		for _, substitute := range denialSubstitutes {
			if strings.Contains(strings.ToLower(substitute), strings.ToLower(denial)) {
				t.Fatalf("substitute %q contains denial %q", substitute, denial)
			}
		}
	}
}
