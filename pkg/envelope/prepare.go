package envelope

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/image"
	"github.com/papercomputeco/lens/pkg/llm"
)

// ImagePolicy decides what happens when a system image cannot be encoded.
type ImagePolicy string

const (
	// ImagePolicyDrop logs the failure and sends the request text-only.
	ImagePolicyDrop ImagePolicy = "drop"

	// ImagePolicyFail aborts the request.
	ImagePolicyFail ImagePolicy = "fail"
)

// ParseImagePolicy parses "drop" or "fail". The empty string is drop.
func ParseImagePolicy(s string) (ImagePolicy, error) {
	switch ImagePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ImagePolicyDrop:
		return ImagePolicyDrop, nil
	case ImagePolicyFail:
		return ImagePolicyFail, nil
	}
	return "", fmt.Errorf("unknown image policy %q: want drop or fail", s)
}

// Input is what an agent supplies for one inference call.
type Input struct {
	System *string

	// SystemImage is an image reference (path, URL or base64 data)
	// attached to the system prompt. Empty means none.
	SystemImage string

	// ImageHint overrides classification of SystemImage when set.
	ImageHint image.Kind

	Messages []llm.Message
}

// Preparer runs the whole pipeline: system turns are folded, the system
// image is classified and encoded, and the result is relocated into the
// conversation.
type Preparer struct {
	encoder   *image.Encoder
	relocator *Relocator
	policy    ImagePolicy
	logger    *zap.Logger
}

// PreparerOption configures a Preparer.
type PreparerOption func(*Preparer)

// WithImagePolicy sets the policy for images that fail to encode.
func WithImagePolicy(policy ImagePolicy) PreparerOption {
	return func(p *Preparer) {
		p.policy = policy
	}
}

// WithRelocator replaces the default Relocator.
func WithRelocator(r *Relocator) PreparerOption {
	return func(p *Preparer) {
		if r != nil {
			p.relocator = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) PreparerOption {
	return func(p *Preparer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPreparer creates a Preparer using encoder, dropping images that fail to
// encode unless configured otherwise.
func NewPreparer(encoder *image.Encoder, opts ...PreparerOption) *Preparer {
	p := &Preparer{
		encoder: encoder,
		policy:  ImagePolicyDrop,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.encoder == nil {
		p.encoder = image.NewEncoder(nil, p.logger)
	}
	if p.relocator == nil {
		p.relocator = NewRelocator(WithRelocatorLogger(p.logger))
	}
	return p
}

// Policy returns the configured image policy.
func (p *Preparer) Policy() ImagePolicy {
	return p.policy
}

// Prepare builds the request envelope for in. Under ImagePolicyFail an
// image that cannot be encoded is returned as an error; under
// ImagePolicyDrop it is logged and left out. Structural problems are always
// returned.
func (p *Preparer) Prepare(ctx context.Context, in Input) (*llm.RequestEnvelope, error) {
	foldedText, foldedImages, turns := FoldSystemTurns(in.Messages)

	system := in.System
	if foldedText != nil {
		system = joinSystemText(in.System, *foldedText)
	}

	var images []llm.ContentBlock
	if strings.TrimSpace(in.SystemImage) != "" {
		block, err := p.encodeSystemImage(ctx, in.SystemImage, in.ImageHint)
		if err != nil {
			if p.policy == ImagePolicyFail {
				return nil, err
			}
			p.logger.Warn("dropping system image, continuing text-only",
				zap.Error(err),
			)
		} else {
			images = append(images, block)
		}
	}
	for i, img := range foldedImages {
		if err := image.CheckBlock(img); err != nil {
			if p.policy == ImagePolicyFail {
				return nil, &MalformedRequestError{Reason: fmt.Sprintf("system turn image %d: %v", i, err)}
			}
			p.logger.Warn("dropping system turn image, continuing without it",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		images = append(images, img)
	}

	return p.relocator.RelocateAll(system, images, turns)
}

func (p *Preparer) encodeSystemImage(ctx context.Context, raw string, hint image.Kind) (llm.ContentBlock, error) {
	src := image.ClassifyWithHint(raw, hint)
	p.logger.Debug("classified system image",
		zap.String("kind", src.Kind.String()),
		zap.Bool("hinted", hint != image.KindUnknown),
	)
	return p.encoder.Encode(ctx, src)
}
