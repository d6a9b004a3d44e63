package envelope

import (
	"strings"

	"github.com/papercomputeco/lens/pkg/llm"
)

// systemTextSeparator joins system texts gathered from several sources.
const systemTextSeparator = "\n\n"

// FoldSystemTurns pulls role-system messages out of a conversation. Their
// text is joined into one system text (nil when there is none) and their
// images are returned, in order, for relocation. The remaining turns keep
// their order.
func FoldSystemTurns(messages []llm.Message) (*string, []llm.ContentBlock, []llm.Message) {
	var (
		texts  []string
		images []llm.ContentBlock
	)
	turns := make([]llm.Message, 0, len(messages))

	for _, m := range messages {
		if m.Role != llm.RoleSystem {
			turns = append(turns, m)
			continue
		}
		for _, b := range m.Content {
			switch {
			case b.IsImage():
				images = append(images, b.Clone())
			case b.Type == llm.BlockTypeText && b.Text != "":
				texts = append(texts, b.Text)
			}
		}
	}

	return joinSystemText(nil, texts...), images, turns
}

// joinSystemText appends extra texts to base. It returns nil only when there
// is no text at all.
func joinSystemText(base *string, extra ...string) *string {
	if len(extra) == 0 {
		return base
	}
	parts := make([]string, 0, len(extra)+1)
	if base != nil && *base != "" {
		parts = append(parts, *base)
	}
	parts = append(parts, extra...)
	joined := strings.Join(parts, systemTextSeparator)
	return &joined
}
