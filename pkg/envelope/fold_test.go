package envelope_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lens/pkg/envelope"
	"github.com/papercomputeco/lens/pkg/llm"
)

var _ = Describe("FoldSystemTurns", func() {
	It("returns nil text when there are no system turns", func() {
		turns := []llm.Message{llm.NewUserMessage("hi")}

		text, images, rest := envelope.FoldSystemTurns(turns)
		Expect(text).To(BeNil())
		Expect(images).To(BeEmpty())
		Expect(rest).To(Equal(turns))
	})

	It("joins system texts and collects their images", func() {
		img := llm.NewURLImageBlock(llm.MediaTypePNG, "https://example.com/a.png")
		turns := []llm.Message{
			llm.NewMessage(llm.RoleSystem, llm.NewTextBlock("You are a reviewer.")),
			llm.NewUserMessage("hi"),
			llm.NewMessage(llm.RoleSystem, img, llm.NewTextBlock("Be terse.")),
			llm.NewAssistantMessage("hello"),
		}

		text, images, rest := envelope.FoldSystemTurns(turns)
		Expect(text).NotTo(BeNil())
		Expect(*text).To(Equal("You are a reviewer.\n\nBe terse."))
		Expect(images).To(Equal([]llm.ContentBlock{img}))
		Expect(rest).To(Equal([]llm.Message{turns[1], turns[3]}))
	})

	It("skips empty system text", func() {
		turns := []llm.Message{llm.NewMessage(llm.RoleSystem, llm.NewTextBlock(""))}

		text, _, rest := envelope.FoldSystemTurns(turns)
		Expect(text).To(BeNil())
		Expect(rest).To(BeEmpty())
	})
})
