package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// ProviderTransport instruments the HTTP clients of external providers. The
// client names the logical call in the request's alias header; the transport
// records the call duration and, when the provider reports one, the
// remaining rate limit budget.
type ProviderTransport struct {
	provider string
	base     http.RoundTripper
}

func NewProviderTransport(provider string) *ProviderTransport {
	return &ProviderTransport{
		provider: provider,
		base:     http.DefaultTransport,
	}
}

func (t *ProviderTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	var err error
	defer func(start time.Time) {
		CollectRequestsMetric(t.provider, r.Header.Get("alias"), err, start)
	}(time.Now())

	resp, err := t.base.RoundTrip(r)
	if err != nil {
		return nil, err
	}

	if data, ok := resp.Header["Ratelimit-Remaining"]; ok && len(data) > 0 {
		if val, err := strconv.ParseFloat(data[0], 64); err == nil {
			CollectKeyState(t.provider, "remaining_value", val)
		}
	}

	return resp, nil
}
