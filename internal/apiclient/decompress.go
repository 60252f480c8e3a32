// File: internal/apiclient/decompress.go
package apiclient

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// decompressionTransport advertises compression support on outgoing requests
// and transparently unwraps gzip, deflate and brotli response bodies, so that
// Response.BodyText always holds plain text.
type decompressionTransport struct {
	base http.RoundTripper
}

func newDecompressionTransport(base http.RoundTripper) *decompressionTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &decompressionTransport{base: base}
}

func (t *decompressionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "br, gzip, deflate")
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := decompressBody(resp); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to decompress response: %w", err)
	}
	return resp, nil
}

// decompressBody rewraps resp.Body according to Content-Encoding. Encodings
// are listed in application order, so decoders stack in reverse.
func decompressBody(resp *http.Response) error {
	if resp == nil || resp.Body == nil {
		return nil
	}
	encodings := resp.Header.Values("Content-Encoding")
	if len(encodings) == 0 {
		return nil
	}

	for i := len(encodings) - 1; i >= 0; i-- {
		encoding := strings.ToLower(strings.TrimSpace(encodings[i]))

		var reader io.ReadCloser
		switch encoding {
		case "gzip":
			zr, err := gzip.NewReader(resp.Body)
			if err != nil {
				return fmt.Errorf("gzip: %w", err)
			}
			reader = zr
		case "deflate":
			// Servers disagree on whether deflate means zlib-wrapped or raw.
			// Sniff the two-byte zlib header instead of consuming the stream
			// on a failed decode attempt.
			buffered := bufio.NewReader(resp.Body)
			if head, err := buffered.Peek(2); err == nil && isZlibHeader(head) {
				zr, err := zlib.NewReader(buffered)
				if err != nil {
					return fmt.Errorf("deflate: %w", err)
				}
				reader = zr
			} else {
				reader = flate.NewReader(buffered)
			}
		case "br":
			reader = io.NopCloser(brotli.NewReader(resp.Body))
		case "identity", "":
			continue
		default:
			return fmt.Errorf("unsupported Content-Encoding layer: %s", encoding)
		}

		resp.Body = &layeredBody{ReadCloser: reader, underlying: resp.Body}
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

// isZlibHeader reports whether the two bytes form a valid RFC 1950 header:
// compression method 8 and a header checksum divisible by 31.
func isZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	return b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}

// layeredBody closes both the decoder and the body it wraps.
type layeredBody struct {
	io.ReadCloser
	underlying io.ReadCloser
}

func (b *layeredBody) Close() error {
	err1 := b.ReadCloser.Close()
	err2 := b.underlying.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// readAll drains the body, honouring the call deadline. http.Client's Timeout
// already bounds the read, but a cancelled step context must also stop it.
func readAll(ctx context.Context, r io.Reader) (string, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(r)
		ch <- result{data, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return string(res.data), res.err
	}
}
