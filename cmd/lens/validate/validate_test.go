package validatecmder

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Validate Command", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	write := func(name string, size int) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, bytes.Repeat([]byte{0xff}, size), 0o600)).To(Succeed())
		return path
	}

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := NewValidateCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	It("passes valid images", func() {
		png := write("cat.png", 128)
		jpg := write("dog.JPG", 128)

		out, err := run(png, jpg)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("✓ " + png + "\n✓ " + jpg + "\n"))
	})

	It("reports every invalid image and fails", func() {
		ok := write("ok.gif", 16)
		txt := write("notes.txt", 16)
		missing := filepath.Join(dir, "missing.png")

		out, err := run(ok, txt, missing)
		Expect(err).To(MatchError("2 of 3 images invalid"))
		Expect(out).To(ContainSubstring("✓ " + ok))
		Expect(out).To(ContainSubstring("✗ " + txt + " unsupported image format"))
		Expect(out).To(ContainSubstring("✗ " + missing + " file not found"))
	})

	It("applies the size and format flags", func() {
		big := write("big.png", 2048)
		webp := write("pic.webp", 16)

		out, err := run("--max-size", "1024", "--formats", "png", big, webp)
		Expect(err).To(HaveOccurred())
		Expect(out).To(ContainSubstring("image too large"))
		Expect(out).To(ContainSubstring("unsupported image format"))
	})
})
