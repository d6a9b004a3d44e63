package image_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lens/pkg/image"
	"github.com/papercomputeco/lens/pkg/llm"
)

var _ = Describe("CheckBlock", func() {
	DescribeTable("accepts well-formed blocks",
		func(b llm.ContentBlock) {
			Expect(image.CheckBlock(b)).To(Succeed())
		},
		Entry("text", llm.NewTextBlock("hi")),
		Entry("empty text", llm.NewTextBlock("")),
		Entry("base64 png", llm.NewBase64ImageBlock(llm.MediaTypePNG, "iVBORw0KGgo=")),
		Entry("base64 with slashes", llm.NewBase64ImageBlock(llm.MediaTypeJPEG, "/9j/4AAQSkZJRgABAQAAAQABAAD/")),
		Entry("https url", llm.NewURLImageBlock(llm.MediaTypePNG, "https://example.com/a.png")),
		Entry("url without extension", llm.NewURLImageBlock(llm.MediaTypeUnsupported, "https://example.com/img?id=1")),
	)

	DescribeTable("rejects malformed blocks",
		func(b llm.ContentBlock, reason string) {
			err := image.CheckBlock(b)
			var encErr *image.EncodingError
			Expect(errors.As(err, &encErr)).To(BeTrue())
			Expect(encErr.Reason).To(ContainSubstring(reason))
		},
		Entry("empty base64", llm.NewBase64ImageBlock(llm.MediaTypePNG, ""), "empty payload"),
		Entry("tiff media type", llm.NewBase64ImageBlock(llm.MediaType("image/tiff"), "iVBORw0KGgo="), "unsupported media type"),
		Entry("missing media type", llm.NewBase64ImageBlock(llm.MediaTypeUnsupported, "iVBORw0KGgo="), "unsupported media type"),
		Entry("undecodable data", llm.NewBase64ImageBlock(llm.MediaTypePNG, "not base64!"), "invalid base64"),
		Entry("wrapped data", llm.NewBase64ImageBlock(llm.MediaTypePNG, "aGVsbG8g\nd29ybGQh"), "line breaks"),
		Entry("relative url", llm.NewURLImageBlock(llm.MediaTypePNG, "not a url"), "absolute"),
		Entry("url without host", llm.NewURLImageBlock(llm.MediaTypePNG, "file:///etc/a.png"), "absolute"),
		Entry("image without source", llm.ContentBlock{Type: llm.BlockTypeImage}, "no source"),
		Entry("unknown encoding", llm.ContentBlock{Type: llm.BlockTypeImage, Image: &llm.ImageSource{Encoding: "s3", Data: "x"}}, "unknown image encoding"),
	)
})
