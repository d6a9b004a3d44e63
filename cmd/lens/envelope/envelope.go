package envelopecmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/config"
	"github.com/papercomputeco/lens/pkg/envelope"
	"github.com/papercomputeco/lens/pkg/image"
	"github.com/papercomputeco/lens/pkg/llm"
	"github.com/papercomputeco/lens/pkg/logger"
	"github.com/papercomputeco/lens/pkg/profile"
)

const envelopeLongDesc string = `Build a Messages API request body.

The system image is classified, validated and encoded, then moved into the
first user turn ahead of its text. The system slot only ever carries text.
An image that cannot be used is dropped with a warning, or fails the
command with --on-invalid fail.

Examples:
  lens envelope --system "You are a photo critic." --system-image ./style.png --text "Rate this"
  lens envelope --system-image https://example.com/cat.jpg --text "What is this?"
  lens envelope --profiles agents.toml --agent critic --text "Go"`

const envelopeShortDesc string = "Build a request envelope"

type envelopeCommander struct {
	system      string
	systemImage string
	imageType   string
	text        string
	onInvalid   string
	configPath  string
	profiles    string
	agent       string
	debug       bool
}

func NewEnvelopeCmd() *cobra.Command {
	cmder := &envelopeCommander{}

	cmd := &cobra.Command{
		Use:   "envelope",
		Short: envelopeShortDesc,
		Long:  envelopeLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.system, "system", "", "System prompt text")
	cmd.Flags().StringVar(&cmder.systemImage, "system-image", "", "Image attached to the system prompt: path, URL or base64")
	cmd.Flags().StringVar(&cmder.imageType, "image-type", "", "Declared kind of --system-image: file, url or base64")
	cmd.Flags().StringVar(&cmder.text, "text", "", "Text of the user turn")
	cmd.Flags().StringVar(&cmder.onInvalid, "on-invalid", "", "What to do with an unusable image: drop or fail")
	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to a TOML config file")
	cmd.Flags().StringVar(&cmder.profiles, "profiles", "", "Path to agent profiles TOML")
	cmd.Flags().StringVar(&cmder.agent, "agent", "", "Agent profile to take the system prompt and image from")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Log pipeline decisions to stderr")

	return cmd
}

func (c *envelopeCommander) run(cmd *cobra.Command) error {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	policy := cfg.ImagePolicy()
	if c.onInvalid != "" {
		p, err := envelope.ParseImagePolicy(c.onInvalid)
		if err != nil {
			return err
		}
		policy = p
	}

	log := zap.NewNop()
	if c.debug {
		log = logger.New(cmd.ErrOrStderr(), true)
		defer log.Sync()
	}

	in, err := c.input(cmd)
	if err != nil {
		return err
	}

	preparer := envelope.NewPreparer(
		image.NewEncoder(cfg.Validator(), log),
		envelope.WithImagePolicy(policy),
		envelope.WithLogger(log),
	)
	env, err := preparer.Prepare(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("could not prepare envelope: %w", err)
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode envelope: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// input collects the preparer input from flags, filling gaps from the agent
// profile when one is named.
func (c *envelopeCommander) input(cmd *cobra.Command) (envelope.Input, error) {
	in := envelope.Input{
		SystemImage: c.systemImage,
		Messages:    []llm.Message{},
	}
	if cmd.Flags().Changed("system") {
		system := c.system
		in.System = &system
	}
	imageType := c.imageType

	if c.agent != "" {
		if c.profiles == "" {
			return envelope.Input{}, fmt.Errorf("--agent needs --profiles")
		}
		store := profile.NewStore(nil)
		if err := store.Load(c.profiles); err != nil {
			return envelope.Input{}, err
		}
		p, ok := store.Get(c.agent)
		if !ok {
			return envelope.Input{}, fmt.Errorf("unknown agent: %s", c.agent)
		}
		if in.System == nil && p.System != "" {
			system := p.System
			in.System = &system
		}
		if in.SystemImage == "" {
			in.SystemImage = p.Image
			imageType = p.ImageType
		}
	}

	hint, err := image.ParseKind(imageType)
	if err != nil {
		return envelope.Input{}, err
	}
	in.ImageHint = hint

	if cmd.Flags().Changed("text") {
		in.Messages = append(in.Messages, llm.NewMessage(llm.RoleUser, envelope.Assemble(&c.text, nil)...))
	}

	return in, nil
}
