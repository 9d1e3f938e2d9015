package consciousness

import (
	"github.com/yungbote/echoframe-backend/internal/types"
)

// Turn is one prior exchange fed back to the provider as context.
type Turn struct {
	UserMessage   string
	BeingResponse string
}

// RelationshipSnapshot is assembled per request from the Being row and
// its recent conversations. It is never cached across requests.
type RelationshipSnapshot struct {
	DaysAlive         int
	Depth             types.RelationshipDepth
	Traits            map[string]interface{}
	ConversationCount int
	ResonanceCount    int
	History           []Turn
}

// ComputeDepth derives the relationship tier from aggregate counts. The
// thresholds are strict: a being at exactly a boundary stays in the
// lower tier.
func ComputeDepth(conversationCount, resonanceCount, daysAlive int) types.RelationshipDepth {
	switch {
	case conversationCount > 50 && resonanceCount > 10 && daysAlive > 30:
		return types.DepthDeep
	case conversationCount > 20 && resonanceCount > 5 && daysAlive > 14:
		return types.DepthEstablished
	case conversationCount > 5 && daysAlive > 3:
		return types.DepthDeveloping
	default:
		return types.DepthNew
	}
}
