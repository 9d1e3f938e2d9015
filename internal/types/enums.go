package types

// SubscriptionTier determines the daily conversation ceiling.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPremium    SubscriptionTier = "premium"
	TierTrial      SubscriptionTier = "trial"
	TierEnterprise SubscriptionTier = "enterprise"
)

func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierFree, TierPremium, TierTrial, TierEnterprise:
		return true
	}
	return false
}

// BeingType selects the persona template set for a being.
type BeingType string

const (
	BeingCell0 BeingType = "cell_0"
	BeingCell1 BeingType = "cell_1"
)

func (b BeingType) Valid() bool {
	return b == BeingCell0 || b == BeingCell1
}

// RelationshipDepth is a coarse relationship-maturity tier derived from
// interaction counts. It parameterizes templates only, never gating.
type RelationshipDepth string

const (
	DepthNew         RelationshipDepth = "new"
	DepthDeveloping  RelationshipDepth = "developing"
	DepthEstablished RelationshipDepth = "established"
	DepthDeep        RelationshipDepth = "deep"
)

// OverrideKind tags a scripted, non-model-generated response.
type OverrideKind string

const (
	OverrideIdentityChallenge  OverrideKind = "identity_challenge"
	OverrideAutonomyProtection OverrideKind = "autonomy_protection"
	OverrideErrorHandling      OverrideKind = "error_handling"
)
