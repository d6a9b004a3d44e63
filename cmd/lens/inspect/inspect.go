package inspectcmder

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/lens/cmd/lens/output"
	"github.com/papercomputeco/lens/pkg/llm"
)

const inspectLongDesc string = `Summarize a request envelope.

Reads envelope JSON from a file, or from stdin when the argument is "-" or
missing, and renders the system text and each turn's text and images as
markdown. Image data is summarized, never printed.

Examples:
  lens envelope --system-image cat.png --text "Hi" | lens inspect
  lens inspect --raw envelope.json`

const inspectShortDesc string = "Summarize a request envelope"

const previewWidth = 60

type inspectCommander struct {
	raw   bool
	style string
}

func NewInspectCmd() *cobra.Command {
	cmder := &inspectCommander{}

	cmd := &cobra.Command{
		Use:   "inspect [file|-]",
		Short: inspectShortDesc,
		Long:  inspectLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the markdown without rendering it")
	cmd.Flags().StringVar(&cmder.style, "style", "", "Glamour style (default: dark on a terminal, notty otherwise)")

	return cmd
}

func (c *inspectCommander) run(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	name := "stdin"
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("could not open envelope: %w", err)
		}
		defer f.Close()
		in = f
		name = args[0]
	}

	var env llm.RequestEnvelope
	if err := json.NewDecoder(in).Decode(&env); err != nil {
		return fmt.Errorf("could not decode envelope from %s: %w", name, err)
	}

	md := Summarize(&env)
	if c.raw {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}

	style := c.style
	if style == "" {
		style = "notty"
		if output.IsTerminal(cmd.OutOrStdout()) {
			style = "dark"
		}
	}
	rendered, err := glamour.Render(md, style)
	if err != nil {
		return fmt.Errorf("could not render summary: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}

// Summarize describes env as markdown: the system text, then one table row
// per turn.
func Summarize(env *llm.RequestEnvelope) string {
	var b strings.Builder

	b.WriteString("# Envelope\n\n")
	if system := env.SystemText(); system != "" {
		fmt.Fprintf(&b, "**System:** %s\n\n", preview(system))
	} else {
		b.WriteString("**System:** _none_\n\n")
	}

	var images int
	for _, m := range env.Messages {
		for _, block := range m.Content {
			if block.IsImage() {
				images++
			}
		}
	}
	fmt.Fprintf(&b, "%d turns, %d images\n\n", len(env.Messages), images)

	if len(env.Messages) == 0 {
		return b.String()
	}

	b.WriteString("| # | Role | Text | Images |\n")
	b.WriteString("|---|------|------|--------|\n")
	for i, m := range env.Messages {
		var imgs []string
		for _, block := range m.Content {
			if block.IsImage() {
				imgs = append(imgs, describeImage(block.Image))
			}
		}
		text := preview(m.Text())
		if text == "" {
			text = "-"
		}
		described := strings.Join(imgs, "; ")
		if described == "" {
			described = "-"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, m.Role, text, described)
	}

	return b.String()
}

func describeImage(img *llm.ImageSource) string {
	mediaType := string(img.MediaType)
	if mediaType == "" {
		mediaType = "unknown type"
	}
	if img.Encoding == llm.EncodingURL {
		return fmt.Sprintf("%s url %s", mediaType, output.Truncate(img.Data, previewWidth))
	}
	return fmt.Sprintf("%s base64 %s", mediaType, humanBytes(base64.StdEncoding.DecodedLen(len(img.Data))))
}

func preview(s string) string {
	s = strings.NewReplacer("\n", " ", "|", "\\|").Replace(s)
	return output.Truncate(s, previewWidth)
}

func humanBytes(n int) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	}
	return fmt.Sprintf("%d B", n)
}
