// Package mcptool exposes the conversion façade as a Model Context Protocol
// tool so agent runtimes can call it over stdio.
package mcptool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/reader"
)

// Args are the convert_url tool arguments; they mirror ConversionOptions.
type Args struct {
	URL            string `json:"url" jsonschema:"Absolute http(s) URL to convert"`
	Bypass         bool   `json:"bypass,omitempty" jsonschema:"Race paywall/anti-bot bypass strategies"`
	Strategy       string `json:"strategy,omitempty" jsonschema:"Force a single strategy instead of the tiered races"`
	PreserveImages *bool  `json:"preserve_images,omitempty" jsonschema:"Keep images in the Markdown output (default true)"`
	JSONFormat     bool   `json:"json_format,omitempty" jsonschema:"Wrap the output in a JSON envelope"`
	UseCache       *bool  `json:"use_cache,omitempty" jsonschema:"Consult and populate the URL cache (default true)"`
}

// NewServer builds an MCP server with the convert_url tool registered.
func NewServer(converter reader.Converter, version string, logger *zap.Logger) *mcp.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "readergate",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "convert_url",
		Description: "Convert a web URL into clean reader-mode Markdown, racing " +
			"paywall and anti-bot bypass strategies when asked to.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args Args) (*mcp.CallToolResult, any, error) {
		opts := reader.DefaultOptions()
		opts.Bypass = args.Bypass
		opts.JSONFormat = args.JSONFormat
		opts.Strategy = reader.StrategyID(args.Strategy)
		if args.PreserveImages != nil {
			opts.PreserveImages = *args.PreserveImages
		}
		if args.UseCache != nil {
			opts.UseCache = *args.UseCache
		}

		result, err := converter.Convert(ctx, args.URL, opts)
		if err != nil {
			logger.Warn("mcp conversion failed", zap.String("url", args.URL), zap.Error(err))
			return nil, nil, fmt.Errorf("convert %s: %w", args.URL, err)
		}
		logger.Info("mcp conversion served",
			zap.String("url", args.URL),
			zap.String("strategy", result.Strategy),
			zap.Bool("from_cache", result.FromCache),
		)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result.Content}},
		}, nil, nil
	})

	return server
}

// Serve runs the MCP server over the stdio transport until ctx finishes.
func Serve(ctx context.Context, converter reader.Converter, version string, logger *zap.Logger) error {
	return NewServer(converter, version, logger).Run(ctx, &mcp.StdioTransport{})
}
