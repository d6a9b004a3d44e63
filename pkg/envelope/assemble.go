package envelope

import "github.com/papercomputeco/lens/pkg/llm"

// Assemble composes the content of a single turn. The image, when present,
// comes first so the instruction that refers to it follows it. Neither text
// nor image yields an empty, non-nil sequence.
func Assemble(text *string, image *llm.ContentBlock) []llm.ContentBlock {
	blocks := make([]llm.ContentBlock, 0, 2)
	if image != nil {
		blocks = append(blocks, image.Clone())
	}
	if text != nil {
		blocks = append(blocks, llm.NewTextBlock(*text))
	}
	return blocks
}
