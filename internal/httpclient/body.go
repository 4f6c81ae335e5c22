package httpclient

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// AcceptEncoding is the value sent on upstream requests. Setting the header
// explicitly disables the transport's transparent gzip, so responses must
// be decoded with Body.
const AcceptEncoding = "gzip, br"

// Body returns resp's body decoded according to Content-Encoding.
// Closing the returned reader closes the underlying body.
func Body(resp *http.Response) (io.ReadCloser, error) {
	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch enc {
	case "", "identity":
		return resp.Body, nil
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		return &decodedBody{Reader: gz, close: func() error {
			gz.Close()
			return resp.Body.Close()
		}}, nil
	case "br":
		return &decodedBody{Reader: brotli.NewReader(resp.Body), close: resp.Body.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported content-encoding %q", enc)
	}
}

type decodedBody struct {
	io.Reader
	close func() error
}

func (b *decodedBody) Close() error { return b.close() }
