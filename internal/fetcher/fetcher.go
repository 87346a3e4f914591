// Package fetcher downloads feed bodies over HTTP or reads them from disk.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// DefaultMaxBodyBytes caps a single feed body.
const DefaultMaxBodyBytes = 64 << 20

// Response is a fetched feed body.
type Response struct {
	Location string
	// ContentType is the HTTP Content-Type; empty for local files.
	ContentType string
	Body        []byte
}

// Fetcher obtains the body of a feed. Failures are returned as
// *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (*Response, error)
}

// HTTPFetcher implements Fetcher using net/http.
type HTTPFetcher struct {
	client       *http.Client
	maxBodyBytes int64
}

// NewHTTPFetcher creates an HTTPFetcher backed by the given client. A
// non-positive maxBodyBytes uses DefaultMaxBodyBytes.
func NewHTTPFetcher(client *http.Client, maxBodyBytes int64) *HTTPFetcher {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &HTTPFetcher{client: client, maxBodyBytes: maxBodyBytes}
}

// Fetch performs an HTTP GET and returns the body of a 2xx response.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &FetchError{Type: ErrTypeUnexpected, Level: LevelError, Location: url, Cause: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(err, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBodyBytes))
		return nil, ClassifyHTTPStatus(resp.StatusCode, url)
	}

	body, err := readLimited(resp.Body, f.maxBodyBytes)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			fe.Location = url
			return nil, fe
		}
		return nil, ClassifyNetworkError(fmt.Errorf("read body: %w", err), url)
	}

	return &Response{
		Location:    url,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// FileFetcher reads feeds from the local filesystem.
type FileFetcher struct {
	maxBodyBytes int64
}

// NewFileFetcher creates a FileFetcher. A non-positive maxBodyBytes uses
// DefaultMaxBodyBytes.
func NewFileFetcher(maxBodyBytes int64) *FileFetcher {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &FileFetcher{maxBodyBytes: maxBodyBytes}
}

// Fetch reads the file at path.
func (f *FileFetcher) Fetch(ctx context.Context, path string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, ClassifyNetworkError(err, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, ClassifyFileError(err, path)
	}
	defer file.Close()

	body, err := readLimited(file, f.maxBodyBytes)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			fe.Location = path
			return nil, fe
		}
		return nil, ClassifyFileError(err, path)
	}

	return &Response{Location: path, Body: body}, nil
}

// Router sends http(s) locations to HTTP and everything else to File.
type Router struct {
	HTTP Fetcher
	File Fetcher
}

// Fetch implements Fetcher.
func (r Router) Fetch(ctx context.Context, location string) (*Response, error) {
	if IsRemote(location) {
		return r.HTTP.Fetch(ctx, location)
	}
	return r.File.Fetch(ctx, location)
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, &FetchError{
			Type:  ErrTypeTooLarge,
			Level: LevelWarn,
			Cause: fmt.Errorf("body exceeds %d bytes", limit),
		}
	}
	return body, nil
}
