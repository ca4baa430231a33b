package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fivetwenty-io/content-sdk/internal/constants"
	"github.com/fivetwenty-io/content-sdk/pkg/cache"
	"github.com/fivetwenty-io/content-sdk/pkg/content"
	"github.com/fivetwenty-io/content-sdk/pkg/contentclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	// Output formats.
	OutputFormatJSON  = constants.FormatJSON
	OutputFormatYAML  = constants.FormatYAML
	OutputFormatTable = constants.FormatTable

	defaultJSONIndent = 2
)

// Common static errors used throughout the commands package.
var (
	ErrURLRequired          = errors.New("content URL is required (use --url or CONTENTCTL_URL)")
	ErrUnknownOutputFormat  = errors.New("unknown output format")
	ErrUnknownConfigKey     = errors.New("unknown configuration key")
	ErrConflictingRendition = errors.New("--rendition and --thumbnail cannot be combined")
	ErrChannelRequired      = errors.New("at least one --channel is required")
)

// newClient builds a content client from the merged flag, env and file
// configuration.
func newClient() (*contentclient.Client, error) {
	url := viper.GetString("url")
	if url == "" {
		return nil, ErrURLRequired
	}

	config := &contentclient.Config{
		Config: content.Config{
			Credentials: &content.StaticCredentials{
				URL:     url,
				Token:   viper.GetString("token"),
				Channel: viper.GetString("channel_token"),
			},
			DownloadDir:  viper.GetString("download_dir"),
			PollInterval: viper.GetDuration("poll_interval"),
		},
		Debug:     viper.GetBool("debug"),
		UserAgent: constants.DefaultUserAgent + "/contentctl",
		RetryMax:  viper.GetInt("retries"),
	}

	if viper.GetBool("debug") {
		config.Logger = &stderrLogger{w: os.Stderr}
	}

	client, err := contentclient.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// newCacheProvider returns a URL cache below the configured cache directory,
// or nil when caching is disabled. cache_store selects disk or sqlite entries.
func newCacheProvider() (*cache.URLCache, error) {
	dir := viper.GetString("cache_dir")
	if dir == "" {
		return nil, nil //nolint:nilnil // no cache configured
	}

	if err := os.MkdirAll(dir, constants.ConfigDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	storeType := cache.StoreType(viper.GetString("cache_store"))
	if storeType == "" {
		storeType = cache.StoreTypeDisk
	}

	store, err := cache.NewStoreFromConfig(context.Background(), &cache.Config{
		Type: storeType,
		Dir:  filepath.Join(dir, "entries"),
		Path: filepath.Join(dir, "entries.db"),
	})
	if err != nil {
		return nil, err
	}

	return cache.NewURLCache(store, filepath.Join(dir, "files"))
}

// outputFormat returns the requested format, defaulting to a table on a
// terminal and JSON otherwise.
func outputFormat(w io.Writer) string {
	if format := viper.GetString("output"); format != "" {
		return strings.ToLower(format)
	}

	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return OutputFormatTable
	}

	return OutputFormatJSON
}

// render writes v in the configured format. table renders the table form.
func render(cmd *cobra.Command, v interface{}, table func(w io.Writer) error) error {
	w := cmd.OutOrStdout()

	switch format := outputFormat(w); format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

		return encoder.Encode(v)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(v)
	case OutputFormatTable:
		return table(w)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutputFormat, format)
	}
}

// renderTable renders rows under title-cased column headers.
func renderTable(w io.Writer, columns []string, rows [][]string) error {
	caser := cases.Title(language.English)

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = caser.String(c)
	}

	table := tablewriter.NewWriter(w)
	table.Header(headers)

	for _, row := range rows {
		_ = table.Append(row)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}

	return s
}

func formatSize(size int64) string {
	if size <= 0 {
		return NotAvailable
	}

	return humanize.Bytes(uint64(size))
}

func formatAge(d content.Date) string {
	if d.IsZero() {
		return NotAvailable
	}

	return humanize.Time(d.Time)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

const maxValueWidth = 60

// describeValue renders a field value on one line, truncating long values.
func describeValue(v content.Value) string {
	s, ok := v.AsString()
	if !ok {
		s = v.String()
	}

	if len(s) > maxValueWidth {
		return s[:maxValueWidth-3] + "..."
	}

	return s
}

// stderrLogger prints engine and transport diagnostics in debug mode.
type stderrLogger struct {
	w io.Writer
}

func (l *stderrLogger) Debug(msg string, fields map[string]interface{}) { l.log("DEBUG", msg, fields) }
func (l *stderrLogger) Info(msg string, fields map[string]interface{})  { l.log("INFO", msg, fields) }
func (l *stderrLogger) Warn(msg string, fields map[string]interface{})  { l.log("WARN", msg, fields) }
func (l *stderrLogger) Error(msg string, fields map[string]interface{}) { l.log("ERROR", msg, fields) }

func (l *stderrLogger) log(level, msg string, fields map[string]interface{}) {
	keys := sortedKeys(fields)

	var b strings.Builder

	fmt.Fprintf(&b, "%s [%s] %s", time.Now().Format(time.TimeOnly), level, msg)

	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}

	fmt.Fprintln(l.w, b.String())
}
