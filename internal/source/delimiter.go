// Package source reads delimited trip and zone files into domain records.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

const sniffBytes = 4096

// peekDelimiter inspects the buffered head of br without consuming it and
// returns '\t' when tabs outnumber commas, ',' otherwise.
func peekDelimiter(br *bufio.Reader) (rune, error) {
	sample, err := br.Peek(sniffBytes)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, err
	}
	return sniffDelimiter(sample), nil
}

func sniffDelimiter(sample []byte) rune {
	tabs := bytes.Count(sample, []byte{'\t'})
	if tabs > 0 && tabs > bytes.Count(sample, []byte{','}) {
		return '\t'
	}
	return ','
}
