package drafting

import "github.com/okian/formfill/pkg/logger"

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithModel sets the preferred model. The default model stays as fallback.
func WithModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.model = name
		}
	}
}

// WithLogger sets a custom logger for the Client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
