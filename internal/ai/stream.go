package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"
	"unicode"
)

const doneSentinel = "[DONE]"

// sseDecoder splits a byte stream into lines and hands the payload of every
// complete "data:" line to onData. Partial lines are buffered until the next
// Write. onData returns false to stop decoding.
type sseDecoder struct {
	buf    []byte
	onData func(data string) bool
	done   bool
}

func newSSEDecoder(onData func(string) bool) *sseDecoder {
	return &sseDecoder{onData: onData}
}

// Write feeds p to the decoder. It reports false once decoding has stopped.
func (d *sseDecoder) Write(p []byte) bool {
	if d.done {
		return false
	}
	d.buf = append(d.buf, p...)
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return true
		}
		line := d.buf[:i]
		d.buf = d.buf[i+1:]
		if !d.dispatch(line) {
			d.done = true
			return false
		}
	}
}

// Flush dispatches a trailing line that never got its newline.
func (d *sseDecoder) Flush() {
	if d.done || len(d.buf) == 0 {
		return
	}
	line := d.buf
	d.buf = nil
	if !d.dispatch(line) {
		d.done = true
	}
}

func (d *sseDecoder) dispatch(line []byte) bool {
	line = bytes.TrimSuffix(line, []byte("\r"))
	data, ok := bytes.CutPrefix(line, []byte("data:"))
	if !ok {
		return true
	}
	return d.onData(string(bytes.TrimSpace(data)))
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// settled returns text without its last whitespace-delimited token, which
// may still be growing.
func settled(text string) string {
	i := strings.LastIndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return ""
	}
	return strings.TrimRightFunc(text[:i], unicode.IsSpace)
}

// progress accumulates deltas and reports each new settled prefix once.
type progress struct {
	text     strings.Builder
	reported string
	notify   func(string)
}

func (p *progress) add(delta string) {
	p.text.WriteString(delta)
	s := settled(p.text.String())
	if s == "" || s == p.reported {
		return
	}
	p.reported = s
	if p.notify != nil {
		p.notify(s)
	}
}

type readResult struct {
	data []byte
	err  error
}

func (c *Client) stream(ctx context.Context, url string, body chatRequest, headers map[string]string, onProgress func(string)) (string, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := post(reqCtx, c.http, url, body, headers)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	acc := &progress{notify: onProgress}
	dec := newSSEDecoder(func(data string) bool {
		if data == doneSentinel {
			return false
		}
		var chunk streamChunk
		if json.Unmarshal([]byte(data), &chunk) != nil {
			return true
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			acc.add(chunk.Choices[0].Delta.Content)
		}
		return true
	})

	// The reader goroutine lets the select below observe the idle timer
	// and cancellation while a Read is blocked.
	reads := make(chan readResult)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := resp.Body.Read(buf)
			r := readResult{data: append([]byte(nil), buf[:n]...), err: err}
			select {
			case reads <- r:
			case <-reqCtx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	idle := time.NewTimer(c.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case <-idle.C:
			c.logger.Debug().
				Dur("idle_timeout", c.idleTimeout).
				Int("bytes", acc.text.Len()).
				Msg("stream idle, finishing with partial output")
			return acc.text.String(), nil

		case r := <-reads:
			if err := ctx.Err(); err != nil {
				return "", err
			}
			if len(r.data) > 0 {
				idle.Reset(c.idleTimeout)
				if !dec.Write(r.data) {
					return acc.text.String(), nil
				}
			}
			if errors.Is(r.err, io.EOF) {
				dec.Flush()
				return acc.text.String(), nil
			}
			if r.err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				return "", &TransportError{Err: r.err}
			}
		}
	}
}
