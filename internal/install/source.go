package install

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hashicorp/go-retryablehttp"

	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
)

// BundleSource supplies the compressed server bundle. The two
// implementations mirror the two distribution modes: bytes embedded in the
// pgbox binary at release time, or a per-platform archive fetched from a
// release page on first use.
type BundleSource interface {
	// Open returns a reader over the gzip-compressed tar bundle.
	Open() (io.ReadCloser, error)

	// Description names the source for log and error messages.
	Description() string
}

// EmbeddedSource serves a bundle compiled into the binary.
type EmbeddedSource struct {
	Data []byte
}

// Open returns a reader over the embedded bytes.
// An empty bundle means this build was produced without one.
func (s *EmbeddedSource) Open() (io.ReadCloser, error) {
	if len(s.Data) == 0 {
		return nil, pgberrors.ErrBundleEmpty
	}
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

// Description names the source.
func (s *EmbeddedSource) Description() string {
	return "embedded bundle"
}

// RemoteSource streams a bundle from a release URL with retries.
type RemoteSource struct {
	URL    string
	Client *retryablehttp.Client
}

// NewRemoteSource creates a RemoteSource with a quiet retrying client.
func NewRemoteSource(url string) *RemoteSource {
	client := retryablehttp.NewClient()
	client.Logger = nil
	return &RemoteSource{URL: url, Client: client}
}

// Open issues the download request. The caller owns the returned body and
// streams it straight into extraction.
func (s *RemoteSource) Open() (io.ReadCloser, error) {
	resp, err := s.Client.Get(s.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", s.URL, err)
	}
	if resp.StatusCode != 200 {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download %s: status %d", s.URL, resp.StatusCode)
	}
	return resp.Body, nil
}

// Description names the source.
func (s *RemoteSource) Description() string {
	return s.URL
}

// ServerBundleURL builds the release URL for a server bundle, following the
// postgresql-binaries release naming convention.
func ServerBundleURL(repo, version, platformTag string) string {
	return fmt.Sprintf("https://github.com/%s/releases/download/%s/postgresql-%s-%s.tar.gz",
		repo, version, version, platformTag)
}
