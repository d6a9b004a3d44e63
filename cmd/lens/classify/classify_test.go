package classifycmder

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Classify Command", func() {
	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := NewClassifyCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	DescribeTable("prints the kind",
		func(ref, want string) {
			out, err := run(ref)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(want + "\n"))
		},
		Entry("https url", "https://example.com/cat.png", "url"),
		Entry("data uri", "data:image/png;base64,iVBORw0KGgo=", "base64"),
		Entry("raw base64", "aGVsbG8gd29ybGQhISE=", "base64"),
		Entry("image path", "./photos/cat.jpg", "file"),
		Entry("plain words", "not an image", "unknown"),
	)

	It("honours the hint", func() {
		out, err := run("--hint", "file", "aGVsbG8gd29ybGQhISE=")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("file\n"))
	})

	It("rejects an unknown hint", func() {
		_, err := run("--hint", "s3", "x")
		Expect(err).To(MatchError(ContainSubstring("unknown image kind")))
	})

	It("requires exactly one argument", func() {
		_, err := run()
		Expect(err).To(HaveOccurred())
	})
})
