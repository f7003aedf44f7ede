package capture

import (
	"bytes"
	"io"
	"net/http"
)

// MaxBodyBytes is the hard ceiling on captured request bodies.
const MaxBodyBytes int64 = 1 << 20 // 1,048,576

// ReadKind classifies the outcome of a bounded body read.
type ReadKind int

const (
	ReadOK ReadKind = iota
	// ReadTooLarge: the body exceeded the ceiling, either by declared
	// Content-Length or mid-stream.
	ReadTooLarge
	// ReadStreamError: the transfer broke before completion. Partial data
	// is discarded; callers must fail the request rather than persist it.
	ReadStreamError
)

// LimitedRead reads the request body under max bytes. The Content-Length
// header, when declared, rejects oversized bodies before a single byte is
// consumed. Otherwise the body is streamed and counted in bytes (not runes)
// and the underlying stream is closed the moment the ceiling is crossed.
func LimitedRead(r *http.Request, max int64) (body []byte, size int64, kind ReadKind) {
	if max <= 0 {
		max = MaxBodyBytes
	}

	// fast reject on declared length, before any read
	if r.ContentLength > max {
		return nil, r.ContentLength, ReadTooLarge
	}

	if r.Body == nil {
		return nil, 0, ReadOK
	}

	var buf bytes.Buffer
	chunk := make([]byte, 32*1024)
	for {
		n, err := r.Body.Read(chunk)
		if n > 0 {
			size += int64(n)
			if size > max {
				// stop buffering attacker-controlled data past the limit
				_ = r.Body.Close()
				return nil, size, ReadTooLarge
			}
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			// discard the partial buffer; a truncated body must never be
			// persisted as if it were complete
			return nil, size, ReadStreamError
		}
	}

	return buf.Bytes(), size, ReadOK
}
