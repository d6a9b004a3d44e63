package merkle_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lens/pkg/llm"
	"github.com/papercomputeco/lens/pkg/merkle"
)

var _ = Describe("Ledger", func() {
	var (
		ctx    context.Context
		ledger *merkle.Ledger
		req    *llm.ChatRequest
	)

	BeforeEach(func() {
		ctx = context.Background()
		ledger = merkle.NewLedger(merkle.NewMemoryStorer(), nil)

		system := "You describe images."
		req = &llm.ChatRequest{
			Model:     "claude-test",
			MaxTokens: 256,
			RequestEnvelope: llm.RequestEnvelope{
				System: &system,
				Messages: []llm.Message{
					llm.NewMessage(llm.RoleUser,
						llm.NewBase64ImageBlock(llm.MediaTypePNG, "aGVsbG8="),
						llm.NewTextBlock("Describe this"),
					),
				},
			},
		}
	})

	reply := func(text string) *llm.ChatResponse {
		return &llm.ChatResponse{
			Model:   "claude-test",
			Role:    llm.RoleAssistant,
			Content: []llm.ContentBlock{llm.NewTextBlock(text)},
		}
	}

	It("chains system, messages and response", func() {
		head, err := ledger.Record(ctx, llm.ConversationTurn{Request: req, Response: reply("A cat.")})
		Expect(err).NotTo(HaveOccurred())

		path, err := ledger.Storer().Descendants(ctx, head.Hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(HaveLen(3))
		Expect(path[0].Bucket.Type).To(Equal(merkle.BucketTypeSystem))
		Expect(path[1].Bucket.ImageCount()).To(Equal(1))
		Expect(path[1].Bucket.Content[0].Image.Data).To(HavePrefix(merkle.DigestPrefix))
		Expect(path[2].Bucket.Role).To(Equal(llm.RoleAssistant))
		Expect(path[2].Bucket.Text()).To(Equal("A cat."))
	})

	It("deduplicates repeated histories and branches on new responses", func() {
		_, err := ledger.Record(ctx, llm.ConversationTurn{Request: req, Response: reply("A cat.")})
		Expect(err).NotTo(HaveOccurred())
		_, err = ledger.Record(ctx, llm.ConversationTurn{Request: req, Response: reply("A cat.")})
		Expect(err).NotTo(HaveOccurred())
		_, err = ledger.Record(ctx, llm.ConversationTurn{Request: req, Response: reply("A small cat.")})
		Expect(err).NotTo(HaveOccurred())

		stats, err := ledger.Stats(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.TotalNodes).To(Equal(4))
		Expect(stats.RootCount).To(Equal(1))
		Expect(stats.LeafCount).To(Equal(2))
	})

	It("refuses to record nothing", func() {
		_, err := ledger.Record(ctx, llm.ConversationTurn{Request: &llm.ChatRequest{}})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Merge", func() {
	It("unions two stores", func() {
		ctx := context.Background()
		src := merkle.NewMemoryStorer()
		dst := merkle.NewMemoryStorer()

		a := merkle.NewNode(textBucket(llm.RoleUser, "a"), nil)
		b := merkle.NewNode(textBucket(llm.RoleAssistant, "b"), a)
		for _, n := range []*merkle.Node{a, b} {
			_, err := src.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
		}
		_, err := dst.Put(ctx, a)
		Expect(err).NotTo(HaveOccurred())

		added, existing, err := merkle.Merge(ctx, dst, src)
		Expect(err).NotTo(HaveOccurred())
		Expect(added).To(Equal(1))
		Expect(existing).To(Equal(1))

		nodes, err := dst.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(2))
	})
})

var _ = Describe("Ingest", func() {
	It("stores verified nodes and counts forged ones", func() {
		ctx := context.Background()
		ledger := merkle.NewLedger(merkle.NewMemoryStorer(), nil)

		a := merkle.NewNode(textBucket(llm.RoleUser, "a"), nil)
		b := merkle.NewNode(textBucket(llm.RoleAssistant, "b"), a)
		forged := merkle.NewNode(textBucket(llm.RoleUser, "c"), nil)
		forged.Hash = a.Hash

		result, err := ledger.Ingest(ctx, []*merkle.Node{a, b, a, forged, nil})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.New).To(Equal(2))
		Expect(result.Duplicate).To(Equal(1))
		Expect(result.Errors).To(Equal(2))
	})
})
