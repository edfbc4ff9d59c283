package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/removestar/pkg/removestar"
	"github.com/Sumatoshi-tech/removestar/pkg/textdiff"
)

// ToolNameFix is the name of the star import fixing tool.
const ToolNameFix = "removestar_fix"

// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
const MaxCodeInputBytes = 1 << 20

const defaultFilename = "<stdin>.py"

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
	// ErrEmptyDirectory indicates the directory parameter is empty.
	ErrEmptyDirectory = errors.New("directory parameter is required and must not be empty")
	// ErrDirectoryNotAbsolute indicates the directory is not an absolute path.
	ErrDirectoryNotAbsolute = errors.New("directory must be an absolute path")
	// ErrDirectoryNotFound indicates the directory does not exist.
	ErrDirectoryNotFound = errors.New("directory does not exist")
	// ErrNegativeLineLength indicates a negative max_line_length.
	ErrNegativeLineLength = errors.New("max_line_length must not be negative")
)

// FixInput is the input schema for the removestar_fix tool.
type FixInput struct {
	Code          string `json:"code"                      jsonschema:"Python source code containing star imports"`
	Directory     string `json:"directory"                 jsonschema:"absolute directory relative imports are resolved from"`
	Filename      string `json:"filename,omitempty"        jsonschema:"file name used in the diff and warnings"`
	MaxLineLength *int   `json:"max_line_length,omitempty" jsonschema:"wrap replacement imports longer than this (default 100; 0 disables wrapping)"`
}

// FixOutput is the structured result of the removestar_fix tool.
type FixOutput struct {
	Code        string                  `json:"code"`
	Changed     bool                    `json:"changed"`
	Diff        string                  `json:"diff"`
	Attribution removestar.Attribution  `json:"attribution"`
	Diagnostics []removestar.Diagnostic `json:"diagnostics"`
}

func (s *Server) handleFix(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input FixInput,
) (*mcpsdk.CallToolResult, FixOutput, error) {
	err := validateFixInput(input)
	if err != nil {
		return errorResult(err)
	}

	opts := s.fix
	if input.MaxLineLength != nil {
		opts.MaxLineLength = *input.MaxLineLength
	}

	filename := input.Filename
	if filename == "" {
		filename = defaultFilename
	}

	result, err := removestar.FixCode(ctx, input.Code, input.Directory, filename, opts)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(FixOutput{
		Code:        result.Source,
		Changed:     result.Changed(),
		Diff:        textdiff.FileDiff(filename, result.Original, result.Source),
		Attribution: result.Attribution,
		Diagnostics: result.Diagnostics,
	})
}

func validateFixInput(input FixInput) error {
	if input.Code == "" {
		return ErrEmptyCode
	}

	if len(input.Code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(input.Code), MaxCodeInputBytes)
	}

	if input.Directory == "" {
		return ErrEmptyDirectory
	}

	if !filepath.IsAbs(input.Directory) {
		return fmt.Errorf("%w: %s", ErrDirectoryNotAbsolute, input.Directory)
	}

	info, err := os.Stat(input.Directory)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDirectoryNotFound, input.Directory)
	}

	if input.MaxLineLength != nil && *input.MaxLineLength < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeLineLength, *input.MaxLineLength)
	}

	return nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, FixOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, FixOutput{Attribution: removestar.Attribution{}, Diagnostics: []removestar.Diagnostic{}}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value FixOutput) (*mcpsdk.CallToolResult, FixOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, value, nil
}
