// Package contentclient provides the main entry point for creating content API
// clients and the catalog of endpoints built on the content engine.
package contentclient

import (
	"fmt"
	"time"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
	contenthttp "github.com/fivetwenty-io/content-sdk/internal/http"
	"github.com/fivetwenty-io/content-sdk/pkg/content"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
)

// Config extends the engine configuration with settings for the default
// transport. The transport settings are ignored when Transport is set.
type Config struct {
	content.Config

	// Debug logs every request and response at debug level.
	Debug bool

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// RetryMax is the number of retries for 5xx and 429 responses.
	RetryMax int `validate:"min=0,max=10"`

	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// HTTPTimeout bounds a single attempt.
	HTTPTimeout time.Duration

	// MetricsRegisterer receives the transport's request metrics.
	MetricsRegisterer prometheus.Registerer
}

// Client exposes the endpoint catalog.
type Client struct {
	engine         *content.Engine
	deliveryPath   string
	managementPath string
}

// New creates a new content API client.
func New(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is required", content.ErrCouldNotCreateService)
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, &content.Error{
			Kind:    content.KindCouldNotCreateService,
			Message: "invalid client config",
			Err:     err,
		}
	}

	engineConfig := config.Config
	if engineConfig.Transport == nil {
		engineConfig.Transport = NewTransport(config)
	}

	engine, err := content.NewEngine(&engineConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return &Client{
		engine:         engine,
		deliveryPath:   content.BasePath(constants.DeliveryAPIPath, engine.APIVersion()),
		managementPath: content.BasePath(constants.ManagementAPIPath, engine.APIVersion()),
	}, nil
}

// NewTransport builds the default retrying transport from config.
func NewTransport(config *Config) *contenthttp.Client {
	opts := []contenthttp.Option{
		contenthttp.WithDebug(config.Debug),
		contenthttp.WithUserAgent(config.UserAgent),
		contenthttp.WithTimeout(config.HTTPTimeout),
		contenthttp.WithMetrics(config.MetricsRegisterer),
	}

	if config.Logger != nil {
		opts = append(opts, contenthttp.WithLogger(config.Logger))
	}

	if config.RetryMax > 0 {
		waitMin, waitMax := config.RetryWaitMin, config.RetryWaitMax
		if waitMin <= 0 {
			waitMin = constants.DefaultRetryWaitMin
		}

		if waitMax <= 0 {
			waitMax = constants.DefaultRetryWaitMax
		}

		opts = append(opts, contenthttp.WithRetryConfig(config.RetryMax, waitMin, waitMax))
	}

	return contenthttp.NewClient(opts...)
}

// Engine returns the engine the catalog is built on, for custom endpoints.
func (c *Client) Engine() *content.Engine { return c.engine }

func (c *Client) delivery(suffix string) *content.RequestParameters {
	return content.NewRequestParameters(c.deliveryPath, suffix).UseDefaultChannelToken()
}

func (c *Client) management(suffix string) *content.RequestParameters {
	return content.NewRequestParameters(c.managementPath, suffix)
}
