package envelopecmder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lens/pkg/llm"
)

var _ = Describe("Envelope Command", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	run := func(args ...string) (*llm.RequestEnvelope, error) {
		var out bytes.Buffer
		cmd := NewEnvelopeCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		if err := cmd.ExecuteContext(context.Background()); err != nil {
			return nil, err
		}
		env := &llm.RequestEnvelope{}
		Expect(json.Unmarshal(out.Bytes(), env)).To(Succeed())
		return env, nil
	}

	It("moves a file system image into the user turn", func() {
		img := filepath.Join(dir, "style.png")
		Expect(os.WriteFile(img, []byte("png bytes"), 0o600)).To(Succeed())

		env, err := run("--system", "You are a critic.", "--system-image", img, "--text", "Rate this")
		Expect(err).NotTo(HaveOccurred())

		Expect(env.SystemText()).To(Equal("You are a critic."))
		Expect(env.Messages).To(HaveLen(1))
		content := env.Messages[0].Content
		Expect(content).To(HaveLen(2))
		Expect(content[0].Image.MediaType).To(Equal(llm.MediaTypePNG))
		Expect(content[0].Image.Data).To(Equal(base64.StdEncoding.EncodeToString([]byte("png bytes"))))
		Expect(content[1].Text).To(Equal("Rate this"))
	})

	It("leaves the system slot empty when no system text is given", func() {
		env, err := run("--system-image", "https://example.com/cat.jpg", "--text", "What is this?")
		Expect(err).NotTo(HaveOccurred())

		Expect(env.System).To(BeNil())
		Expect(env.Messages[0].Content[0].Image.Encoding).To(Equal(llm.EncodingURL))
	})

	It("synthesizes a user turn when there is no text", func() {
		env, err := run("--system-image", "https://example.com/cat.jpg")
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Messages).To(HaveLen(1))
		Expect(env.Messages[0].Role).To(Equal(llm.RoleUser))
		Expect(env.Messages[0].Content).To(HaveLen(1))
	})

	Context("with an unusable image", func() {
		It("drops it by default", func() {
			env, err := run("--system-image", filepath.Join(dir, "missing.png"), "--text", "Hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Messages[0].HasImage()).To(BeFalse())
		})

		It("fails with --on-invalid fail", func() {
			_, err := run("--system-image", filepath.Join(dir, "missing.png"), "--text", "Hi", "--on-invalid", "fail")
			Expect(err).To(MatchError(ContainSubstring("file not found")))
		})

		It("follows the config file policy", func() {
			cfg := filepath.Join(dir, "lens.toml")
			Expect(os.WriteFile(cfg, []byte("[images]\non_invalid = \"fail\"\n"), 0o600)).To(Succeed())

			_, err := run("--config", cfg, "--system-image", filepath.Join(dir, "missing.png"), "--text", "Hi")
			Expect(err).To(HaveOccurred())
		})
	})

	It("takes the system prompt and image from an agent profile", func() {
		profiles := filepath.Join(dir, "agents.toml")
		Expect(os.WriteFile(profiles, []byte(`
[[agent]]
name = "critic"
system = "You critique photographs."
image = "https://example.com/critic.jpg"
`), 0o600)).To(Succeed())

		env, err := run("--profiles", profiles, "--agent", "critic", "--text", "Go")
		Expect(err).NotTo(HaveOccurred())
		Expect(env.SystemText()).To(Equal("You critique photographs."))
		Expect(env.Messages[0].Content[0].Image.Data).To(Equal("https://example.com/critic.jpg"))

		_, err = run("--profiles", profiles, "--agent", "nobody")
		Expect(err).To(MatchError(ContainSubstring("unknown agent")))
	})

	It("keeps debug logs off stdout", func() {
		env, err := run("--debug", "--system-image", "https://example.com/cat.jpg", "--text", "Hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Messages[0].HasImage()).To(BeTrue())
	})

	It("rejects bad flag values", func() {
		_, err := run("--image-type", "s3")
		Expect(err).To(HaveOccurred())

		_, err = run("--on-invalid", "ignore")
		Expect(err).To(HaveOccurred())

		_, err = run("--agent", "critic")
		Expect(err).To(MatchError(ContainSubstring("--profiles")))
	})
})
