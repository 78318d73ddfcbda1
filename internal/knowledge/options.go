package knowledge

import "time"

// searchConfig carries resolved search options.
type searchConfig struct {
	topK    int32
	filter  map[string]string
	timeout time.Duration
}

// SearchOption customizes a search.
type SearchOption func(*searchConfig)

// WithTopK sets the maximum number of results. Values outside [1, 100]
// fall back to the default of 5.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k >= 1 && k <= 100 {
			c.topK = int32(k)
		}
	}
}

// WithFilter restricts results to chunks whose metadata contains the given
// key-value pair. Multiple filters combine with AND.
func WithFilter(key, value string) SearchOption {
	return func(c *searchConfig) {
		if c.filter == nil {
			c.filter = make(map[string]string)
		}
		c.filter[key] = value
	}
}

// WithTimeout bounds the search, embedding included.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func buildSearchConfig(opts []SearchOption) searchConfig {
	cfg := searchConfig{
		topK:    5,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
