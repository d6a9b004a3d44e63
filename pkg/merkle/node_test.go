package merkle_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lens/pkg/llm"
	"github.com/papercomputeco/lens/pkg/merkle"
)

func textBucket(role llm.Role, text string) merkle.Bucket {
	return merkle.NewMessageBucket("test-model", llm.NewMessage(role, llm.NewTextBlock(text)))
}

var _ = Describe("Node", func() {
	Describe("NewNode", func() {
		Context("when creating a root node (no parent)", func() {
			It("creates a node with the given bucket", func() {
				bucket := textBucket(llm.RoleUser, "hello world")
				node := merkle.NewNode(bucket, nil)

				Expect(node.Bucket).To(Equal(bucket))
			})

			It("sets ParentHash to nil for root nodes", func() {
				node := merkle.NewNode(textBucket(llm.RoleUser, "test"), nil)

				Expect(node.ParentHash).To(BeNil())
			})

			It("produces consistent hashes for the same content", func() {
				node1 := merkle.NewNode(textBucket(llm.RoleUser, "same content"), nil)
				node2 := merkle.NewNode(textBucket(llm.RoleUser, "same content"), nil)

				Expect(node1.Hash).To(Equal(node2.Hash))
			})

			It("produces different hashes for different content", func() {
				node1 := merkle.NewNode(textBucket(llm.RoleUser, "content A"), nil)
				node2 := merkle.NewNode(textBucket(llm.RoleUser, "content B"), nil)

				Expect(node1.Hash).NotTo(Equal(node2.Hash))
			})

			It("produces different hashes for different roles", func() {
				node1 := merkle.NewNode(textBucket(llm.RoleUser, "same"), nil)
				node2 := merkle.NewNode(textBucket(llm.RoleAssistant, "same"), nil)

				Expect(node1.Hash).NotTo(Equal(node2.Hash))
			})
		})

		Context("when creating a child node (with parent)", func() {
			var parent *merkle.Node

			BeforeEach(func() {
				parent = merkle.NewNode(textBucket(llm.RoleUser, "parent content"), nil)
			})

			It("links the child to the parent via ParentHash", func() {
				child := merkle.NewNode(textBucket(llm.RoleAssistant, "child content"), parent)

				Expect(child.ParentHash).NotTo(BeNil())
				Expect(*child.ParentHash).To(Equal(parent.Hash))
			})

			It("creates a chain of nodes", func() {
				child1 := merkle.NewNode(textBucket(llm.RoleAssistant, "child 1"), parent)
				child2 := merkle.NewNode(textBucket(llm.RoleUser, "child 2"), child1)

				Expect(*child1.ParentHash).To(Equal(parent.Hash))
				Expect(*child2.ParentHash).To(Equal(child1.Hash))
			})

			It("produces different hashes for same content with different parents", func() {
				parent2 := merkle.NewNode(textBucket(llm.RoleUser, "different parent"), nil)
				child1 := merkle.NewNode(textBucket(llm.RoleAssistant, "same content"), parent)
				child2 := merkle.NewNode(textBucket(llm.RoleAssistant, "same content"), parent2)

				Expect(child1.Hash).NotTo(Equal(child2.Hash))
			})
		})
	})

	Describe("Hash computation", func() {
		It("produces a valid SHA-256 hex string (64 characters)", func() {
			node := merkle.NewNode(textBucket(llm.RoleUser, "test"), nil)

			Expect(node.Hash).To(MatchRegexp("^[a-f0-9]{64}$"))
		})
	})

	Describe("Verify", func() {
		It("accepts a node that survived a JSON round trip", func() {
			parent := merkle.NewNode(textBucket(llm.RoleUser, "look"), nil)
			node := merkle.NewNode(merkle.NewMessageBucket("m", llm.NewMessage(llm.RoleUser,
				llm.NewBase64ImageBlock(llm.MediaTypePNG, "aGVsbG8="),
				llm.NewURLImageBlock(llm.MediaTypeJPEG, "https://example.com/a.jpg"),
				llm.NewTextBlock("and this"),
			)), parent)

			data, err := json.Marshal(node)
			Expect(err).NotTo(HaveOccurred())
			var decoded merkle.Node
			Expect(json.Unmarshal(data, &decoded)).To(Succeed())

			Expect(decoded.Verify()).To(BeTrue())
		})

		It("rejects tampered content", func() {
			node := merkle.NewNode(textBucket(llm.RoleUser, "original"), nil)
			node.Bucket.Content[0].Text = "forged"

			Expect(node.Verify()).To(BeFalse())
		})
	})
})

var _ = Describe("Bucket", func() {
	It("replaces inline image data with its digest", func() {
		msg := llm.NewMessage(llm.RoleUser,
			llm.NewBase64ImageBlock(llm.MediaTypePNG, "aGVsbG8="),
			llm.NewTextBlock("what is this"),
		)

		bucket := merkle.NewMessageBucket("m", msg)
		Expect(bucket.Content[0].Image.Data).To(HavePrefix(merkle.DigestPrefix))
		Expect(bucket.Content[0].Image.Data).To(HaveLen(len(merkle.DigestPrefix) + 64))
		Expect(bucket.Content[1].Text).To(Equal("what is this"))
		Expect(bucket.ImageCount()).To(Equal(1))

		// The source message is untouched.
		Expect(msg.Content[0].Image.Data).To(Equal("aGVsbG8="))
	})

	It("keeps url references", func() {
		msg := llm.NewMessage(llm.RoleUser, llm.NewURLImageBlock(llm.MediaTypeJPEG, "https://example.com/a.jpg"))

		bucket := merkle.NewMessageBucket("m", msg)
		Expect(bucket.Content[0].Image.Data).To(Equal("https://example.com/a.jpg"))
	})

	It("does not digest a digest twice", func() {
		msg := llm.NewMessage(llm.RoleUser, llm.NewBase64ImageBlock(llm.MediaTypePNG, "aGVsbG8="))

		once := merkle.NewMessageBucket("m", msg)
		twice := merkle.NewMessageBucket("m", llm.Message{Role: once.Role, Content: once.Content})
		Expect(twice).To(Equal(once))
	})

	It("creates system buckets", func() {
		bucket := merkle.NewSystemBucket("m", "be nice")
		Expect(bucket.Type).To(Equal(merkle.BucketTypeSystem))
		Expect(bucket.Role).To(Equal(llm.RoleSystem))
		Expect(bucket.Text()).To(Equal("be nice"))
	})
})
