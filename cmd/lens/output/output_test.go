package output_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lens/cmd/lens/output"
)

var _ = Describe("Printer", func() {
	It("writes plain verdicts to a non-terminal", func() {
		var buf bytes.Buffer
		p := output.NewPrinter(&buf)
		Expect(p.TTY()).To(BeFalse())

		p.OK("cat.png", "")
		p.Fail("huge.jpg", "image too large")

		Expect(buf.String()).To(Equal("✓ cat.png\n✗ huge.jpg image too large\n"))
		Expect(buf.String()).NotTo(ContainSubstring("\x1b["))
	})

	It("does not cut piped output", func() {
		var buf bytes.Buffer
		p := output.NewPrinter(&buf)

		long := strings.Repeat("a", 200)
		p.OK(long, "")

		Expect(buf.String()).To(Equal("✓ " + long + "\n"))
	})
})

var _ = Describe("Truncate", func() {
	It("cuts to the given width with an ellipsis", func() {
		cut := output.Truncate(strings.Repeat("a", 200), 80)
		Expect(cut).To(HaveSuffix("…"))
		Expect(len([]rune(cut))).To(Equal(80))
	})

	It("leaves short strings alone", func() {
		Expect(output.Truncate("hello", 10)).To(Equal("hello"))
	})

	It("ignores escape sequences when measuring", func() {
		Expect(output.Truncate("\x1b[1mhello\x1b[0m", 5)).To(ContainSubstring("hello"))
	})
})
