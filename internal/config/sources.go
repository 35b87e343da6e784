package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

const (
	DriverPGX      = "pgx"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Named data source variants.
const (
	SourceProperties = "properties"
	SourceEnv        = "env"
	SourceAlt        = "alt"
)

var (
	ErrUnknownSource = errors.New("unknown data source")
	ErrMissingURL    = errors.New("database url is empty")
)

// DataSource tells a connection factory which driver and DSN to use.
// It is passed on every acquisition; nothing about it is cached globally.
type DataSource struct {
	Name   string
	Driver string
	URL    string
}

func SourceNames() []string { return []string{SourceProperties, SourceEnv, SourceAlt} }

// Source resolves a named variant. An empty name selects DefaultSource.
func (c Config) Source(name string) (DataSource, error) {
	if name == "" {
		name = c.DefaultSource
	}
	switch name {
	case SourceEnv:
		if c.DatabaseURL == "" {
			return DataSource{}, fmt.Errorf("%s: DATABASE_URL: %w", name, ErrMissingURL)
		}
		return DataSource{Name: name, Driver: c.DBDriver, URL: c.DatabaseURL}, nil
	case SourceAlt:
		if c.DatabaseURL == "" {
			return DataSource{}, fmt.Errorf("%s: DATABASE_URL: %w", name, ErrMissingURL)
		}
		if c.AltUser == "" {
			return DataSource{}, fmt.Errorf("%s: ALT_DB_USER is required", name)
		}
		dsn, err := withCredentials(c.DBDriver, c.DatabaseURL, c.AltUser, c.AltPassword)
		if err != nil {
			return DataSource{}, fmt.Errorf("%s: %w", name, err)
		}
		return DataSource{Name: name, Driver: c.DBDriver, URL: dsn}, nil
	case SourceProperties:
		return LoadProperties(c.PropertiesPath)
	default:
		return DataSource{}, fmt.Errorf("%q: %w", name, ErrUnknownSource)
	}
}

func withCredentials(driver, dsn, user, password string) (string, error) {
	if driver == DriverMySQL {
		mc, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		mc.User, mc.Passwd = user, password
		return mc.FormatDSN(), nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("parse url: missing scheme in %q", u.Redacted())
	}
	u.User = url.UserPassword(user, password)
	return u.String(), nil
}

// LoadProperties reads a JDBC style properties file:
//
//	dburl=jdbc:mysql://localhost:3306/levels
//	user=app
//	password=secret
//	useSSL=false
//	driver=postgres   (optional, postgres URLs only)
func LoadProperties(path string) (DataSource, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("properties")
	if err := v.ReadInConfig(); err != nil {
		return DataSource{}, fmt.Errorf("read %s: %w", path, err)
	}

	raw := strings.TrimPrefix(v.GetString("dburl"), "jdbc:")
	if raw == "" {
		return DataSource{}, fmt.Errorf("%s: dburl: %w", path, ErrMissingURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return DataSource{}, fmt.Errorf("%s: dburl: %w", path, err)
	}
	user, password := v.GetString("user"), v.GetString("password")

	switch u.Scheme {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User, mc.Passwd = user, password
		mc.Net, mc.Addr = "tcp", u.Host
		mc.DBName = strings.TrimPrefix(u.Path, "/")
		mc.ParseTime = true
		if v.IsSet("usessl") {
			mc.TLSConfig = fmt.Sprint(v.GetBool("usessl"))
		}
		return DataSource{Name: SourceProperties, Driver: DriverMySQL, URL: mc.FormatDSN()}, nil
	case "postgres", "postgresql":
		u.Scheme = "postgres"
		if user != "" {
			u.User = url.UserPassword(user, password)
		}
		if v.IsSet("usessl") && !v.GetBool("usessl") {
			q := u.Query()
			q.Set("sslmode", "disable")
			u.RawQuery = q.Encode()
		}
		driver := v.GetString("driver")
		if driver == "" {
			driver = DriverPGX
		}
		return DataSource{Name: SourceProperties, Driver: driver, URL: u.String()}, nil
	default:
		return DataSource{}, fmt.Errorf("%s: unsupported dburl scheme %q", path, u.Scheme)
	}
}
