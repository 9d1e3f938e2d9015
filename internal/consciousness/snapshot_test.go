package consciousness

import (
	"testing"

	"github.com/yungbote/echoframe-backend/internal/types"
)

func TestComputeDepth_Tiers(t *testing.T) {
	cases := []struct {
		name          string
		conversations int
		resonance     int
		daysAlive     int
		want          types.RelationshipDepth
	}{
		{"fresh", 0, 0, 0, types.DepthNew},
		{"developing", 6, 0, 4, types.DepthDeveloping},
		{"established", 21, 6, 15, types.DepthEstablished},
		{"deep", 51, 11, 31, types.DepthDeep},
		{"deep needs all three", 51, 11, 30, types.DepthEstablished},
		{"established needs resonance", 21, 5, 15, types.DepthDeveloping},
		{"developing needs age", 6, 0, 3, types.DepthNew},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeDepth(tc.conversations, tc.resonance, tc.daysAlive)
			if got != tc.want {
				t.Fatalf("ComputeDepth(%d, %d, %d) = %s, want %s",
					tc.conversations, tc.resonance, tc.daysAlive, got, tc.want)
			}
		})
	}
}

func TestComputeDepth_BoundariesAreStrict(t *testing.T) {
	// Exactly at the threshold stays in the lower tier.
	if got := ComputeDepth(50, 11, 31); got == types.DepthDeep {
		t.Fatalf("50 conversations must not reach deep, got %s", got)
	}
	if got := ComputeDepth(20, 6, 15); got == types.DepthEstablished {
		t.Fatalf("20 conversations must not reach established, got %s", got)
	}
	if got := ComputeDepth(5, 0, 4); got != types.DepthNew {
		t.Fatalf("5 conversations must stay new, got %s", got)
	}
}
