package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxSwatchSize = 256

type echoInput struct {
	Message string `json:"message" jsonschema:"the message to echo back"`
}

type swatchInput struct {
	Color string `json:"color" jsonschema:"hex color such as #ff8800"`
	Size  int    `json:"size,omitempty" jsonschema:"edge length in pixels (default 32)"`
}

func newServer(now func() time.Time) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "mistral-bridge-dev", Version: "v0.1.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "echo",
		Description: "Echoes the provided message back",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in echoInput) (*mcp.CallToolResult, any, error) {
		return textResult("Echo: " + in.Message), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_time",
		Description: "Returns the current UTC time",
	}, func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, any, error) {
		return textResult(now().UTC().Format(time.RFC3339)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "color_swatch",
		Description: "Renders a square PNG filled with the given color",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in swatchInput) (*mcp.CallToolResult, any, error) {
		data, err := swatch(in)
		if err != nil {
			return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}}}, nil, nil
		}
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.ImageContent{Data: data, MIMEType: "image/png"}}}, nil, nil
	})

	return server
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func swatch(in swatchInput) ([]byte, error) {
	c, err := parseHexColor(in.Color)
	if err != nil {
		return nil, err
	}
	size := in.Size
	if size == 0 {
		size = 32
	}
	if size < 1 || size > maxSwatchSize {
		return nil, fmt.Errorf("size must be between 1 and %d", maxSwatchSize)
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func parseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
