package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/envelope"
	"github.com/papercomputeco/lens/pkg/image"
	"github.com/papercomputeco/lens/pkg/llm"
)

const mcpServerName = "lens"

// Version is reported to MCP clients.
var Version = "dev"

type classifyArgs struct {
	Source string `json:"source" jsonschema:"image reference: a local path, an http(s) URL or base64 data"`
	Hint   string `json:"hint,omitempty" jsonschema:"optional declared kind: file, url or base64"`
}

type classifyResult struct {
	Kind string `json:"kind"`
}

type validateArgs struct {
	Path string `json:"path" jsonschema:"path of a local image file"`
}

type prepareArgs struct {
	Agent       string `json:"agent,omitempty" jsonschema:"optional agent profile name"`
	System      string `json:"system,omitempty" jsonschema:"system prompt text"`
	SystemImage string `json:"system_image,omitempty" jsonschema:"image reference attached to the system prompt"`
	ImageType   string `json:"image_type,omitempty" jsonschema:"optional declared kind of system_image: file, url or base64"`
	Text        string `json:"text" jsonschema:"text of the first user turn"`
}

// NewMCPServer exposes classification, validation and envelope preparation
// as MCP tools.
func (p *Proxy) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: mcpServerName, Version: Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "classify_image_source",
		Description: "Classify an image reference as a file path, URL, base64 data or unknown from its spelling.",
	}, p.classifyTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_image_file",
		Description: "Check that an image file under the proxy's image root exists, has a supported format and is within the size limit.",
	}, p.validateTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "prepare_envelope",
		Description: "Build a Messages API request body, moving any system image into the first user turn.",
	}, p.prepareTool)

	return server
}

func (p *Proxy) mcpHandler() http.Handler {
	server := p.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{Stateless: true})
}

func (p *Proxy) classifyTool(_ context.Context, _ *mcp.CallToolRequest, args classifyArgs) (*mcp.CallToolResult, classifyResult, error) {
	hint, err := image.ParseKind(args.Hint)
	if err != nil {
		return nil, classifyResult{}, err
	}
	kind := hint
	if kind == image.KindUnknown {
		kind = image.ClassifyLexical(args.Source).Kind
	}
	return nil, classifyResult{Kind: kind.String()}, nil
}

func (p *Proxy) validateTool(_ context.Context, _ *mcp.CallToolRequest, args validateArgs) (*mcp.CallToolResult, image.ValidationResult, error) {
	if !withinRoot(p.imageRoot, args.Path) {
		return nil, image.ValidationResult{Reason: errFileImageDenied.Error()}, nil
	}
	return nil, p.validator.Validate(args.Path), nil
}

func (p *Proxy) prepareTool(ctx context.Context, _ *mcp.CallToolRequest, args prepareArgs) (*mcp.CallToolResult, any, error) {
	req := PrepareRequest{
		Agent:       args.Agent,
		SystemImage: args.SystemImage,
		ImageType:   args.ImageType,
		Messages:    []llm.Message{},
	}
	if args.System != "" {
		system := args.System
		req.System = &system
	}
	if args.Text != "" {
		req.Messages = append(req.Messages, llm.NewMessage(llm.RoleUser, envelope.Assemble(&args.Text, nil)...))
	}

	in, err := req.input(p.profiles, p.imageRoot)
	if err != nil {
		return nil, nil, err
	}
	env, err := p.preparer.Prepare(ctx, in)
	if err != nil {
		p.logger.Warn("mcp prepare_envelope failed", zap.Error(err))
		return nil, nil, err
	}

	body, err := json.Marshal(env)
	if err != nil {
		return nil, nil, fmt.Errorf("could not encode envelope: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
	}, nil, nil
}
