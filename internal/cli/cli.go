package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
	"github.com/whatsmynameidontknow/crm-admin/internal/entity"
	"github.com/whatsmynameidontknow/crm-admin/internal/logging"
	"github.com/whatsmynameidontknow/crm-admin/internal/session"
	"github.com/whatsmynameidontknow/crm-admin/internal/table"
	"github.com/whatsmynameidontknow/crm-admin/internal/validation"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the merged environment and command-line configuration.
// Flags override the environment.
type Config struct {
	BaseURL     string        `env:"CRM_ADMIN_BASE_URL"`
	User        string        `env:"CRM_ADMIN_USER"`
	SessionFile string        `env:"CRM_ADMIN_SESSION_FILE"`
	LogFile     string        `env:"CRM_ADMIN_LOG_FILE"`
	LogLevel    string        `env:"CRM_ADMIN_LOG_LEVEL" envDefault:"info"`
	Timeout     time.Duration `env:"CRM_ADMIN_TIMEOUT" envDefault:"15s"`

	RowsPerPage int
	Limit       int

	// Entity is the screen to open (or print), empty for the menu.
	Entity string
	Print  bool
	TUI    bool
	Page   int
	Filter string
	Sort   string
	Dir    string // "asc" or "desc"
	Desc   bool
}

func Parse(args []string) (*Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if config.SessionFile == "" {
		config.SessionFile = session.DefaultPath()
	}
	if config.LogFile == "" {
		config.LogFile = logging.DefaultPath()
	}

	pflag.StringVarP(&config.BaseURL, "base-url", "u", config.BaseURL, "Backend API base URL")
	pflag.StringVar(&config.User, "user", config.User, "Username to pre-fill on sign-in")
	pflag.StringVar(&config.SessionFile, "session-file", config.SessionFile, "Where the session is stored")
	pflag.StringVar(&config.LogFile, "log-file", config.LogFile, "Log file")
	pflag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level (debug, info, warn, error)")
	pflag.DurationVar(&config.Timeout, "timeout", config.Timeout, "Request timeout")
	pflag.IntVarP(&config.RowsPerPage, "rows-per-page", "r", table.DefaultRowsPerPage, "Rows per local page")
	pflag.IntVarP(&config.Limit, "limit", "l", 5, "Rows per backend page")
	pflag.BoolVarP(&config.Print, "print", "p", false, "Print one page as a table and exit")
	pflag.BoolVar(&config.TUI, "tui", false, "Force the interactive UI even when stdout is not a terminal")
	pflag.IntVar(&config.Page, "page", 1, "Backend page to print")
	pflag.StringVarP(&config.Filter, "filter", "f", "", "Name filter")
	pflag.StringVarP(&config.Sort, "sort", "s", "", "Sort column")
	pflag.StringVar(&config.Dir, "order", "asc", "Sort direction (asc, desc)")
	pflag.BoolVarP(&config.Desc, "desc", "d", false, "Sort descending (same as --order desc)")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: crm-admin [options] [clients|customers]

Manage clients and customers through the dashboard API.

Arguments:
  clients|customers    Screen to open (or to print with --print)

Options:
  -u, --base-url string       Backend API base URL (env CRM_ADMIN_BASE_URL, required)
      --user string           Username to pre-fill on sign-in (env CRM_ADMIN_USER)
      --session-file string   Where the session is stored (env CRM_ADMIN_SESSION_FILE)
      --log-file string       Log file (env CRM_ADMIN_LOG_FILE)
      --log-level string      Log level (env CRM_ADMIN_LOG_LEVEL, default info)
      --timeout duration      Request timeout (env CRM_ADMIN_TIMEOUT, default 15s)
  -r, --rows-per-page int     Rows per local page (default 5)
  -l, --limit int             Rows per backend page (default 5)
  -p, --print                 Print one page as a table and exit
      --tui                   Force the interactive UI
      --page int              Backend page to print (default 1)
  -f, --filter string         Name filter
  -s, --sort string           Sort column
      --order string          Sort direction: asc or desc (default asc)
  -d, --desc                  Sort descending (same as --order desc)
  -h, --help                  Show this help message

Examples:
  crm-admin -u https://api.example.com
  crm-admin -u https://api.example.com --print customers --page 2 -f acme -s user_name -d
`)
	}

	if err := pflag.CommandLine.Parse(args); err != nil {
		return nil, err
	}

	if positional := pflag.Args(); len(positional) > 0 {
		config.Entity = positional[0]
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		pflag.Usage()
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base url must be an absolute http(s) URL: %q", ErrInvalidConfig, c.BaseURL)
	}
	if c.RowsPerPage <= 0 {
		return fmt.Errorf("%w: rows per page must be positive", ErrInvalidConfig)
	}
	if c.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidConfig)
	}
	if c.Page < 1 {
		return fmt.Errorf("%w: page starts at 1", ErrInvalidConfig)
	}
	if c.Dir != "" && c.Dir != "asc" && c.Dir != "desc" {
		return fmt.Errorf("%w: order must be asc or desc: %q", ErrInvalidConfig, c.Dir)
	}
	if err := validation.ValidatePath(c.SessionFile); err != nil {
		return fmt.Errorf("%w: session file: %w", ErrInvalidConfig, err)
	}
	if err := validation.ValidatePath(c.LogFile); err != nil {
		return fmt.Errorf("%w: log file: %w", ErrInvalidConfig, err)
	}

	if c.Entity == "" {
		if c.Print {
			return fmt.Errorf("%w: --print needs an entity (clients or customers)", ErrInvalidConfig)
		}
		return nil
	}
	d, ok := entity.Lookup(c.Entity)
	if !ok {
		return fmt.Errorf("%w: unknown entity %q", ErrInvalidConfig, c.Entity)
	}
	c.Entity = d.Path
	if c.Sort != "" && !d.HasColumn(c.Sort) {
		return fmt.Errorf("%w: %s has no column %q", ErrInvalidConfig, d.Path, c.Sort)
	}
	return nil
}

// Descriptor returns the descriptor of the requested entity, if any.
func (c *Config) Descriptor() (entity.Descriptor, bool) {
	if c.Entity == "" {
		return entity.Descriptor{}, false
	}
	return entity.Lookup(c.Entity)
}

// Order is the sort direction asked for on the command line.
func (c *Config) Order() table.Order {
	if c.Desc {
		return table.Descending
	}
	return table.ParseOrder(c.Dir)
}
