package endpoints

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// historyQuery holds the filters shared by the metrics and llmcalls
// listings.
type historyQuery struct {
	Label    string
	Provider string
	Model    string
	Success  *bool
	After    *time.Time
	Before   *time.Time
	Limit    int
	Offset   int
}

func parseHistoryQuery(q url.Values) (historyQuery, error) {
	hq := historyQuery{
		Label:    q.Get("label"),
		Provider: q.Get("provider"),
		Model:    q.Get("model"),
		Limit:    100,
	}

	if v := q.Get("success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return hq, fmt.Errorf("invalid success filter: %q must be true or false", v)
		}
		hq.Success = &b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return hq, fmt.Errorf("invalid limit: %q must be an integer", v)
		}
		if n > 0 {
			hq.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return hq, fmt.Errorf("invalid offset: %q must be a non-negative integer", v)
		}
		hq.Offset = n
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"after", &hq.After}, {"before", &hq.Before}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return hq, fmt.Errorf("invalid %s time: %q must be RFC3339 format (e.g., 2024-01-15T00:00:00Z)", p.name, v)
		}
		*p.dst = &t
	}
	return hq, nil
}

// queryParams builds the query string for the CLI side of a listing.
func queryParams(label, provider, model string, successOnly, failedOnly bool, limit int) url.Values {
	params := url.Values{}
	for k, v := range map[string]string{"label": label, "provider": provider, "model": model} {
		if v != "" {
			params.Set(k, v)
		}
	}
	if successOnly {
		params.Set("success", "true")
	}
	if failedOnly {
		params.Set("success", "false")
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return params
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
