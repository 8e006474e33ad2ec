package utils

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// Encoding names follow HTTP Content-Encoding tokens
type Encoding string

const (
	EncodingIdentity Encoding = "identity"
	EncodingGzip     Encoding = "gzip"
	EncodingBrotli   Encoding = "br"
)

// Compress encodes data. Empty input is returned unchanged.
func Compress(data []byte, enc Encoding) ([]byte, error) {
	if len(data) == 0 || enc == EncodingIdentity || enc == "" {
		return data, nil
	}

	var buf bytes.Buffer
	var w io.WriteCloser
	switch enc {
	case EncodingGzip:
		w = gzip.NewWriter(&buf)
	case EncodingBrotli:
		w = brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", enc)
	}

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%s encode: %w", enc, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s encode: %w", enc, err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress
func Decompress(data []byte, enc Encoding) ([]byte, error) {
	if len(data) == 0 || enc == EncodingIdentity || enc == "" {
		return data, nil
	}

	var r io.Reader
	switch enc {
	case EncodingGzip:
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		r = gz
	case EncodingBrotli:
		r = brotli.NewReader(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", enc)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s decode: %w", enc, err)
	}
	return out, nil
}

// DecodeContent undoes a Content-Encoding header the HTTP transport left in
// place. Go's transport only handles gzip transparently, so brotli bodies
// arrive still encoded. Unknown encodings pass through untouched.
func DecodeContent(body []byte, contentEncoding string) ([]byte, error) {
	switch enc := Encoding(strings.ToLower(strings.TrimSpace(contentEncoding))); enc {
	case EncodingBrotli, EncodingGzip:
		return Decompress(body, enc)
	default:
		return body, nil
	}
}
