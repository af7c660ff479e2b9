package fbsql

import (
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Config holds the settings of a connection.
type Config struct {
	// Database names the database to attach to. Connections with the same
	// name share one in-memory database.
	Database string
	// Charset is the connection character set text is transcoded with.
	Charset string
	// Dialect is the SQL dialect. Only dialect 3 is supported.
	Dialect int
	// Location is the zone TIMESTAMP values are read and written in.
	Location *time.Location
	// DowncaseNames lowercases all-uppercase column names in Fields and
	// Columns.
	DowncaseNames bool
	// StrictTypes makes decoding a column of unrecognized type an error
	// instead of NULL.
	StrictTypes bool
	Logger      *slog.Logger
}

// DefaultConfig returns the settings used for any option a DSN leaves out.
func DefaultConfig() *Config {
	return &Config{
		Database: "default",
		Charset:  "UTF8",
		Dialect:  3,
		Location: time.Local,
		Logger:   discardLogger,
	}
}

// ParseDSN parses a data source name of the form
//
//	mem://name?charset=UTF8&dialect=3&timezone=Local&downcase=true&strict=false
//
// A bare name without scheme is accepted too.
func ParseDSN(dsn string) (*Config, error) {
	c := DefaultConfig()
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return c, nil
	}

	if !strings.Contains(dsn, "://") {
		dsn = "mem://" + dsn
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "invalid data source name")
	}
	if u.Scheme != "mem" {
		return nil, errors.Errorf("unsupported data source scheme %q", u.Scheme)
	}

	if name := u.Host + strings.TrimPrefix(u.Path, "/"); name != "" {
		c.Database = name
	}

	q := u.Query()
	for key := range q {
		value := q.Get(key)
		switch strings.ToLower(key) {
		case "charset", "encoding":
			c.Charset = value
		case "dialect":
			d, err := strconv.Atoi(value)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid dialect %q", value)
			}
			c.Dialect = d
		case "timezone", "tz":
			loc, err := time.LoadLocation(value)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid timezone %q", value)
			}
			c.Location = loc
		case "downcase":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid downcase %q", value)
			}
			c.DowncaseNames = b
		case "strict":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid strict %q", value)
			}
			c.StrictTypes = b
		default:
			return nil, errors.Errorf("unknown data source option %q", key)
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Dialect != 3 {
		return errors.Errorf("unsupported SQL dialect %d", c.Dialect)
	}
	if _, err := LookupCharset(c.Charset); err != nil {
		return err
	}
	return nil
}

func (c *Config) codec() (codec, error) {
	if err := c.validate(); err != nil {
		return codec{}, err
	}

	cs, err := LookupCharset(c.Charset)
	if err != nil {
		return codec{}, err
	}

	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	logger := c.Logger
	if logger == nil {
		logger = discardLogger
	}

	return codec{
		decode: DecodeOptions{
			Charset:  cs,
			Location: loc,
			Strict:   c.StrictTypes,
			Logger:   logger,
		},
		encode: EncodeOptions{
			Charset:  cs,
			Location: loc,
		},
		downcase: c.DowncaseNames,
		logger:   logger,
	}, nil
}
