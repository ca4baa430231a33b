package content

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}

// safeLogger shields the engine from a logger that panics.
type safeLogger struct {
	next Logger
}

func (l safeLogger) log(fn func(string, map[string]interface{}), msg string, fields map[string]interface{}) {
	defer func() { _ = recover() }()

	fn(msg, fields)
}

func (l safeLogger) Debug(msg string, fields map[string]interface{}) { l.log(l.next.Debug, msg, fields) }
func (l safeLogger) Info(msg string, fields map[string]interface{})  { l.log(l.next.Info, msg, fields) }
func (l safeLogger) Warn(msg string, fields map[string]interface{})  { l.log(l.next.Warn, msg, fields) }
func (l safeLogger) Error(msg string, fields map[string]interface{}) { l.log(l.next.Error, msg, fields) }

// CredentialProvider supplies the server location, authorization headers and
// default channel token. It is queried on every request, so implementations
// may rotate values between calls.
type CredentialProvider interface {
	BaseURL(ctx context.Context) (string, error)
	Headers(ctx context.Context) (http.Header, error)
	ChannelToken(ctx context.Context) string
}

// StaticCredentials is a CredentialProvider with fixed values.
type StaticCredentials struct {
	URL     string
	Token   string
	Channel string
	// Extra headers added to every authorized request.
	Extra http.Header
}

// BaseURL implements CredentialProvider.
func (c *StaticCredentials) BaseURL(context.Context) (string, error) {
	if c.URL == "" {
		return "", newError(KindInvalidURL, "no base URL configured")
	}

	return c.URL, nil
}

// Headers implements CredentialProvider.
func (c *StaticCredentials) Headers(context.Context) (http.Header, error) {
	h := c.Extra.Clone()
	if h == nil {
		h = http.Header{}
	}

	if c.Token != "" {
		h.Set("Authorization", "Bearer "+c.Token)
	}

	return h, nil
}

// ChannelToken implements CredentialProvider.
func (c *StaticCredentials) ChannelToken(context.Context) string {
	return c.Channel
}

// TransportRequest is a fully built request handed to a Transport.
type TransportRequest struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// TransportResponse is what a Transport hands back. FilePath is set by
// Download when the body was streamed to a temporary file.
type TransportResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FilePath   string
}

// Transport performs HTTP exchanges. It returns an error only when no response
// was obtained; status codes are classified by the engine.
type Transport interface {
	Do(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
	// Download streams a 2xx body to a temporary file and reports its path.
	// Non-2xx bodies are returned in Body.
	Download(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// Config represents the engine configuration.
//
// # Collaborators
//
// Credentials and Transport are queried per call. A nil Transport is allowed
// at construction time; calls then fail with KindInvalidTransportSession unless
// they override the transport themselves. pkg/contentclient.New fills in the
// default retrying transport.
//
// # Completion context
//
// Dispatcher decides where callback-style completions run. The default runs
// them on the worker goroutine that performed the call.
type Config struct {
	// Credentials supplies the base URL, authorization headers and channel token.
	Credentials CredentialProvider `validate:"required"`

	// Transport executes requests.
	Transport Transport

	// APIVersion is inserted into every base path, e.g. "v1.1".
	APIVersion string `validate:"omitempty,max=16"`

	// DownloadDir receives downloaded binaries. Defaults to the OS temp dir.
	DownloadDir string

	// PageSize is the default list limit.
	PageSize uint `validate:"omitempty,min=1,max=500"`

	// PollInterval is the default interval for polling jobs.
	PollInterval time.Duration

	// Logger receives request/response diagnostics.
	Logger Logger

	// Dispatcher runs completion callbacks.
	Dispatcher Dispatcher
}

var versionPattern = regexp.MustCompile(`^v\d+(\.\d+)*$`)

// ValidateVersion checks an API version string such as "v1.1".
func ValidateVersion(version string) error {
	if !versionPattern.MatchString(version) {
		return newError(KindInvalidVersion, "%q is not a valid API version", version)
	}

	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return newError(KindCouldNotCreateService, "config is required")
	}

	if err := validator.New().Struct(c); err != nil {
		return wrapError(KindCouldNotCreateService, err, "invalid config")
	}

	if c.APIVersion != "" {
		if err := ValidateVersion(c.APIVersion); err != nil {
			return err
		}
	}

	return nil
}

// BasePath joins an API root such as "/content/published/api/" with a version.
func BasePath(root, version string) string {
	return fmt.Sprintf("/%s/%s/", strings.Trim(root, "/"), strings.Trim(version, "/"))
}
