package webcontent

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxDocumentSize bounds how much of a resource is read.
const maxDocumentSize = 8 << 20

// ErrUnsupportedScheme is returned for URLs no loader handles.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// ErrNetworkDisabled is returned for network loads in layout test mode.
var ErrNetworkDisabled = errors.New("network access is disabled in test mode")

// decodeDocument parses body according to its media type.
func decodeDocument(body []byte, mediaType, rawURL string) (Document, error) {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		mt = ""
	}
	switch {
	case mt == "text/html", mt == "application/xhtml+xml":
		return ParseHTML(bytes.NewReader(body), rawURL)
	case mt == "" && looksLikeHTML(body):
		return ParseHTML(bytes.NewReader(body), rawURL)
	default:
		return PlainText(string(body), rawURL), nil
	}
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 512)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// mediaTypeForPath guesses a media type from a file name.
func mediaTypeForPath(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".html", ".htm", ".xhtml":
		return "text/html"
	case ".txt", ".text", ".md":
		return "text/plain"
	default:
		return ""
	}
}

// aboutDocument serves about: URLs.
func aboutDocument(u *url.URL, rawURL string) (Document, error) {
	switch u.Opaque {
	case "blank":
		return Document{URL: rawURL}, nil
	case "version":
		return Document{
			URL:   rawURL,
			Title: "Version",
			Blocks: []Block{
				{Kind: BlockHeading, Text: "WebContent"},
				{Kind: BlockText, Text: "Built with " + runtime.Version() + " for " + runtime.GOOS + "/" + runtime.GOARCH + "."},
			},
		}, nil
	default:
		return Document{}, fmt.Errorf("about:%s: %w", u.Opaque, ErrUnsupportedScheme)
	}
}

// dataDocument decodes a data: URL.
func dataDocument(rawURL string) (Document, error) {
	spec, payload, ok := strings.Cut(strings.TrimPrefix(rawURL, "data:"), ",")
	if !ok {
		return Document{}, fmt.Errorf("data URL without payload")
	}
	mediaType := spec
	isBase64 := strings.HasSuffix(spec, ";base64")
	if isBase64 {
		mediaType = strings.TrimSuffix(spec, ";base64")
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}

	var body []byte
	if isBase64 {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return Document{}, fmt.Errorf("data URL: %w", err)
		}
		body = b
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return Document{}, fmt.Errorf("data URL: %w", err)
		}
		body = []byte(s)
	}
	return decodeDocument(body, mediaType, rawURL)
}

// fetcher loads http and https URLs.
type fetcher struct {
	client     *http.Client
	maxRetries uint64
	initial    time.Duration
}

// permanentStatus reports HTTP statuses that retrying cannot fix.
func permanentStatus(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

// fetch GETs rawURL, retrying transport errors and server errors with
// exponential backoff.
func (f *fetcher) fetch(ctx context.Context, rawURL string) (Document, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.initial
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, f.maxRetries), ctx)

	var doc Document
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("GET %s: %s", rawURL, resp.Status)
			if permanentStatus(resp.StatusCode) {
				return backoff.Permanent(err)
			}
			return err
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
		if err != nil {
			return err
		}
		doc, err = decodeDocument(body, resp.Header.Get("Content-Type"), rawURL)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	if err := backoff.Retry(op, policy); err != nil {
		return Document{}, err
	}
	return doc, nil
}
