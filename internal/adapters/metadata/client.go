package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	defaultChannelBase = "https://channels.kiln.dev"
	httpClientTimeout  = 60 * time.Second
	indexFileName      = "index.json"
)

var _ ports.MetadataSource = (*HTTPSource)(nil)

// HTTPSource fetches package indexes from channel servers over HTTP.
// Channels publish an xz-compressed index per platform; servers that only
// carry the uncompressed form are handled by a fallback request.
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSource creates a metadata source resolving bare channel names
// against the default channel server.
func NewHTTPSource() *HTTPSource {
	return newHTTPSourceWithBase(defaultChannelBase)
}

// newHTTPSourceWithBase creates an HTTPSource with a custom base URL
// (used for testing).
func newHTTPSourceWithBase(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: httpClientTimeout,
		},
	}
}

// Fetch downloads and parses the index for (source, platform). Sources
// that are full URLs are used as-is; bare names are resolved against the
// base URL.
func (h *HTTPSource) Fetch(ctx context.Context, source string, platform domain.Platform) (*domain.PackageIndex, error) {
	base := source
	if !strings.Contains(source, "://") {
		base = h.baseURL + "/" + source
	}
	indexURL := fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(base, "/"), platform, indexFileName)

	data, status, err := h.download(ctx, indexURL+".xz")
	switch {
	case err == nil:
		data, err = decompressIndex(data)
		if err != nil {
			return nil, h.unavailable(err, source, platform)
		}
	case status == http.StatusNotFound:
		data, _, err = h.download(ctx, indexURL)
		if err != nil {
			return nil, h.unavailable(err, source, platform)
		}
	default:
		return nil, h.unavailable(err, source, platform)
	}

	var payload indexPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, h.unavailable(zerr.Wrap(err, "malformed index document"), source, platform)
	}

	return &domain.PackageIndex{
		Source:    source,
		Platform:  platform,
		FetchedAt: time.Now().UTC(),
		Entries:   payload.Entries,
	}, nil
}

func (h *HTTPSource) download(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, zerr.Wrap(err, "failed to build index request")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, 0, zerr.Wrap(err, "index request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		reqErr := zerr.New("index request returned non-OK status")
		reqErr = zerr.With(reqErr, "status_code", resp.StatusCode)
		return nil, resp.StatusCode, zerr.With(reqErr, "url", url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, zerr.Wrap(err, "failed to read index response")
	}
	return body, resp.StatusCode, nil
}

func (h *HTTPSource) unavailable(err error, source string, platform domain.Platform) error {
	wrapped := zerr.Wrap(err, domain.ErrMetadataUnavailable.Error())
	wrapped = zerr.With(wrapped, "source", source)
	return zerr.With(wrapped, "platform", string(platform))
}

// indexPayload is the wire form of a channel index document.
type indexPayload struct {
	Entries []domain.IndexEntry `json:"entries"`
}

func decompressIndex(data []byte) ([]byte, error) {
	reader, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, zerr.Wrap(err, "corrupt xz index")
	}
	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to decompress index")
	}
	return decompressed, nil
}
