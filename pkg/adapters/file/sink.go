// Package file writes placement commands as JSON Lines or plain text.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Format selects the line encoding of a sink.
type Format string

const (
	// FormatJSONL writes one JSON object per command.
	FormatJSONL Format = "jsonl"
	// FormatText writes one "name @ (x, y, z)" line per command.
	FormatText Format = "text"
)

// ParseFormat accepts "jsonl", "json" and "text" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jsonl", "json", "":
		return FormatJSONL, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown output format %q (want jsonl or text)", s)
}

// Sink implements ports.Instantiator and ports.Flusher over an io.Writer.
type Sink struct {
	w      *bufio.Writer
	enc    *json.Encoder
	format Format
	count  int
}

// NewSink wraps w. Output is buffered until Flush.
func NewSink(w io.Writer, format Format) *Sink {
	bw := bufio.NewWriter(w)
	return &Sink{w: bw, enc: json.NewEncoder(bw), format: format}
}

// Instantiate writes one command.
func (s *Sink) Instantiate(ctx context.Context, cmd domain.PlacementCommand) error {
	var err error
	if s.format == FormatText {
		_, err = fmt.Fprintln(s.w, cmd.String())
	} else {
		err = s.enc.Encode(cmd)
	}
	if err != nil {
		return fmt.Errorf("failed to write placement: %w", err)
	}
	s.count++
	return nil
}

// Flush writes buffered output to the underlying writer.
func (s *Sink) Flush(ctx context.Context) error {
	return s.w.Flush()
}

// Count is the number of commands written so far.
func (s *Sink) Count() int {
	return s.count
}

// ReadJSONL decodes commands written by a JSONL sink.
func ReadJSONL(r io.Reader) ([]domain.PlacementCommand, error) {
	dec := json.NewDecoder(r)
	var out []domain.PlacementCommand
	for {
		var cmd domain.PlacementCommand
		if err := dec.Decode(&cmd); err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, fmt.Errorf("failed to decode placement %d: %w", len(out), err)
		}
		out = append(out, cmd)
	}
}
