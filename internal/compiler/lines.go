package compiler

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// lineReader hands out input lines one at a time and tracks their number.
type lineReader struct {
	r    *bufio.Reader
	line int
	eof  bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// next returns the next line without its newline. ok is false once the
// input is exhausted; a final line without newline is still returned.
func (lr *lineReader) next() (string, bool, error) {
	if lr.eof {
		return "", false, nil
	}
	s, err := lr.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", false, err
		}
		lr.eof = true
		if s == "" {
			return "", false, nil
		}
	}
	lr.line++
	return strings.TrimSuffix(s, "\n"), true, nil
}
