package interfaces

import (
	"context"
	"net/url"
)

// Gateway is the HTTP contract every TSETMC service talks through.
// Implementations handle headers, rate limiting and retries so services
// only deal with endpoint URLs and payloads.
type Gateway interface {
	// GetText performs a GET request and returns the body as text.
	GetText(ctx context.Context, rawURL string, params url.Values) (string, error)

	// GetJSON performs a GET request and decodes the JSON body into result.
	GetJSON(ctx context.Context, rawURL string, params url.Values, result interface{}) error

	// PostForm performs a form-encoded POST request and returns the body as text.
	PostForm(ctx context.Context, rawURL string, form url.Values) (string, error)

	// PostJSON performs a JSON POST request and returns the raw body as text.
	PostJSON(ctx context.Context, rawURL string, body interface{}) (string, error)
}
