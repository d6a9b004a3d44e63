package envelope

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/image"
	"github.com/papercomputeco/lens/pkg/llm"
)

// Relocator moves system images into the first user turn of a conversation.
type Relocator struct {
	synthesize bool
	logger     *zap.Logger
}

// RelocatorOption configures a Relocator.
type RelocatorOption func(*Relocator)

// WithoutSynthesis makes a missing user turn an error instead of creating
// one to carry the image.
func WithoutSynthesis() RelocatorOption {
	return func(r *Relocator) {
		r.synthesize = false
	}
}

// WithRelocatorLogger sets the logger used for debug output.
func WithRelocatorLogger(logger *zap.Logger) RelocatorOption {
	return func(r *Relocator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRelocator creates a Relocator that synthesizes a user turn when the
// conversation has none.
func NewRelocator(opts ...RelocatorOption) *Relocator {
	r := &Relocator{
		synthesize: true,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Relocate builds an envelope with the default Relocator.
func Relocate(systemText *string, systemImage *llm.ContentBlock, turns []llm.Message) (*llm.RequestEnvelope, error) {
	return NewRelocator().Relocate(systemText, systemImage, turns)
}

// Relocate builds the envelope for systemText and turns. A non-nil
// systemImage is prepended to the content of the first user turn, or to a
// user turn synthesized at the front of the conversation when none exists.
// The inputs are never modified.
func (r *Relocator) Relocate(systemText *string, systemImage *llm.ContentBlock, turns []llm.Message) (*llm.RequestEnvelope, error) {
	var images []llm.ContentBlock
	if systemImage != nil {
		images = []llm.ContentBlock{*systemImage}
	}
	return r.RelocateAll(systemText, images, turns)
}

// RelocateAll is Relocate for several system images. They land, in order,
// in the same destination turn, so a request is restructured at most once.
func (r *Relocator) RelocateAll(systemText *string, images []llm.ContentBlock, turns []llm.Message) (*llm.RequestEnvelope, error) {
	for i, img := range images {
		if !img.IsImage() {
			return nil, &MalformedRequestError{Reason: fmt.Sprintf("system image %d is not an image block", i)}
		}
		if err := image.CheckBlock(img); err != nil {
			return nil, &MalformedRequestError{Reason: fmt.Sprintf("system image %d: %v", i, err)}
		}
	}

	for i, m := range turns {
		switch m.Role {
		case llm.RoleUser, llm.RoleAssistant:
		case llm.RoleSystem:
			return nil, &MalformedRequestError{Reason: fmt.Sprintf("turn %d has role system", i)}
		default:
			return nil, &MalformedRequestError{Reason: fmt.Sprintf("turn %d has unknown role %q", i, m.Role)}
		}
		for j, b := range m.Content {
			if err := image.CheckBlock(b); err != nil {
				return nil, &MalformedRequestError{Reason: fmt.Sprintf("turn %d block %d: %v", i, j, err)}
			}
		}
	}

	env := &llm.RequestEnvelope{Messages: make([]llm.Message, 0, len(turns)+1)}
	if systemText != nil {
		text := *systemText
		env.System = &text
	}
	for _, m := range turns {
		env.Messages = append(env.Messages, m.Clone())
	}

	if len(images) == 0 {
		return env, nil
	}

	carried := make([]llm.ContentBlock, len(images))
	for i, img := range images {
		carried[i] = img.Clone()
	}

	for i := range env.Messages {
		if env.Messages[i].Role != llm.RoleUser {
			continue
		}
		env.Messages[i].Content = append(carried, env.Messages[i].Content...)
		r.logger.Debug("relocated system image",
			zap.Int("turn", i),
			zap.Int("images", len(images)),
		)
		return env, nil
	}

	if !r.synthesize {
		return nil, &MalformedRequestError{Reason: "no user turn to carry the system image"}
	}

	env.Messages = append([]llm.Message{llm.NewMessage(llm.RoleUser, carried...)}, env.Messages...)
	r.logger.Debug("synthesized user turn for system image",
		zap.Int("images", len(images)),
	)
	return env, nil
}
