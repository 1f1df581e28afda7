// Package output serializes chunking results for the CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/dshills/codechunk/pkg/types"
)

// Format names an output encoding
type Format string

// Supported formats
const (
	FormatJSON    Format = "json"
	FormatJSONL   Format = "jsonl"
	FormatMsgpack Format = "msgpack"
	FormatText    Format = "text"
)

// ParseFormat validates a format name. Empty selects text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatJSONL, FormatMsgpack, FormatText:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q", types.ErrInvalidConfig, s)
	}
}

// Options tunes the text format
type Options struct {
	Color   bool // colorize flags and errors
	Content bool // print chunk content below each chunk line
}

// Write encodes results to w in the given format
func Write(w io.Writer, format Format, results []*types.FileResult, opts Options) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case FormatJSONL:
		return writeJSONL(w, results)
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(results)
	case FormatText, "":
		return newText(w, opts).write(results)
	default:
		return fmt.Errorf("%w: unknown output format %q", types.ErrInvalidConfig, format)
	}
}

// jsonlRecord is one chunk per line; failed files produce a record with
// only the path and the error
type jsonlRecord struct {
	*types.Chunk
	Language string `json:"language"`
	Error    string `json:"error,omitempty"`
}

func writeJSONL(w io.Writer, results []*types.FileResult) error {
	enc := json.NewEncoder(w)
	for _, res := range results {
		if !res.OK() {
			rec := jsonlRecord{Chunk: &types.Chunk{FilePath: res.Path}, Language: res.Language, Error: res.Err}
			if err := enc.Encode(rec); err != nil {
				return err
			}
			continue
		}
		for i := range res.Chunks {
			if err := enc.Encode(jsonlRecord{Chunk: &res.Chunks[i], Language: res.Language}); err != nil {
				return err
			}
		}
	}
	return nil
}

type text struct {
	w    io.Writer
	opts Options

	path      *color.Color
	kind      *color.Color
	failed    *color.Color
	truncated *color.Color
	oversized *color.Color
	dim       *color.Color
}

func newText(w io.Writer, opts Options) *text {
	t := &text{
		w:         w,
		opts:      opts,
		path:      color.New(color.Bold),
		kind:      color.New(color.FgCyan),
		failed:    color.New(color.FgRed, color.Bold),
		truncated: color.New(color.FgMagenta),
		oversized: color.New(color.FgYellow),
		dim:       color.New(color.Faint),
	}
	for _, c := range []*color.Color{t.path, t.kind, t.failed, t.truncated, t.oversized, t.dim} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

func (t *text) write(results []*types.FileResult) error {
	for _, res := range results {
		if err := t.file(res); err != nil {
			return err
		}
	}
	return nil
}

func (t *text) file(res *types.FileResult) error {
	if !res.OK() {
		_, err := fmt.Fprintf(t.w, "%s %s\n", t.path.Sprint(res.Path), t.failed.Sprint("error: "+res.Err))
		return err
	}

	header := fmt.Sprintf("%s (%s, %d chunks)", t.path.Sprint(res.Path), res.Language, len(res.Chunks))
	if res.Flags.Truncated {
		header += " " + t.truncated.Sprint("[truncated]")
	}
	if res.Flags.Oversized > 0 {
		header += " " + t.oversized.Sprintf("[%d oversized]", res.Flags.Oversized)
	}
	if res.Flags.Repaired {
		header += " " + t.dim.Sprint("[repaired]")
	}
	if _, err := fmt.Fprintln(t.w, header); err != nil {
		return err
	}

	for i := range res.Chunks {
		if err := t.chunk(&res.Chunks[i]); err != nil {
			return err
		}
	}
	return nil
}

func (t *text) chunk(c *types.Chunk) error {
	var b strings.Builder
	fmt.Fprintf(&b, "  %4d-%-4d %s", c.StartLine, c.EndLine, t.kind.Sprintf("%-9s", c.Kind))
	if scope := c.Scope(); scope != "" {
		b.WriteString(" " + scope)
	}
	if c.SequenceIndex != nil {
		fmt.Fprintf(&b, " #%d", *c.SequenceIndex)
	}
	fmt.Fprintf(&b, " %s", t.dim.Sprintf("size=%d", c.Size))
	if c.Merged > 0 {
		fmt.Fprintf(&b, " %s", t.dim.Sprintf("merged=%d", c.Merged))
	}
	if c.Flags.Truncated {
		b.WriteString(" " + t.truncated.Sprint("truncated"))
	}
	if c.Flags.Oversized {
		b.WriteString(" " + t.oversized.Sprint("oversized"))
	}
	if c.Signature != "" {
		b.WriteString("\n            " + t.dim.Sprint(c.Signature))
	}
	b.WriteByte('\n')
	if t.opts.Content {
		for _, line := range strings.Split(strings.TrimRight(c.Content, "\n"), "\n") {
			b.WriteString("            | " + line + "\n")
		}
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}
