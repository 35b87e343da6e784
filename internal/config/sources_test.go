package config

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func writeProps(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.properties")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSource_Env(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://app:pw@localhost:5432/levels", DBDriver: DriverPGX}
	src, err := cfg.Source(SourceEnv)
	require.NoError(t, err)
	require.Equal(t, DataSource{Name: SourceEnv, Driver: DriverPGX, URL: cfg.DatabaseURL}, src)
}

func TestSource_DefaultName(t *testing.T) {
	cfg := Config{DefaultSource: SourceEnv, DatabaseURL: "postgres://localhost/levels", DBDriver: DriverPostgres}
	src, err := cfg.Source("")
	require.NoError(t, err)
	require.Equal(t, SourceEnv, src.Name)
	require.Equal(t, DriverPostgres, src.Driver)
}

func TestSource_EnvMissingURL(t *testing.T) {
	_, err := Config{}.Source(SourceEnv)
	require.ErrorIs(t, err, ErrMissingURL)
}

func TestSource_Unknown(t *testing.T) {
	_, err := Config{}.Source("oracle")
	require.ErrorIs(t, err, ErrUnknownSource)
}

func TestSource_AltPostgres(t *testing.T) {
	cfg := Config{
		DatabaseURL: "postgres://app:pw@db:5432/levels?sslmode=disable",
		DBDriver:    DriverPGX,
		AltUser:     "auditor",
		AltPassword: "s3cret",
	}
	src, err := cfg.Source(SourceAlt)
	require.NoError(t, err)
	u, err := url.Parse(src.URL)
	require.NoError(t, err)
	require.Equal(t, "auditor", u.User.Username())
	pw, _ := u.User.Password()
	require.Equal(t, "s3cret", pw)
	require.Equal(t, "db:5432", u.Host)
	require.Equal(t, "disable", u.Query().Get("sslmode"))
}

func TestSource_AltMySQL(t *testing.T) {
	cfg := Config{
		DatabaseURL: "app:pw@tcp(db:3306)/levels",
		DBDriver:    DriverMySQL,
		AltUser:     "auditor",
		AltPassword: "s3cret",
	}
	src, err := cfg.Source(SourceAlt)
	require.NoError(t, err)
	mc, err := mysql.ParseDSN(src.URL)
	require.NoError(t, err)
	require.Equal(t, "auditor", mc.User)
	require.Equal(t, "s3cret", mc.Passwd)
	require.Equal(t, "db:3306", mc.Addr)
	require.Equal(t, "levels", mc.DBName)
}

func TestSource_AltRequiresUser(t *testing.T) {
	_, err := Config{DatabaseURL: "postgres://db/levels"}.Source(SourceAlt)
	require.Error(t, err)
}

func TestLoadProperties_MySQL(t *testing.T) {
	path := writeProps(t, "user=developer\npassword=1234567\ndburl=jdbc:mysql://localhost:3306/coursejdbc\nuseSSL=false\n")
	src, err := LoadProperties(path)
	require.NoError(t, err)
	require.Equal(t, SourceProperties, src.Name)
	require.Equal(t, DriverMySQL, src.Driver)

	mc, err := mysql.ParseDSN(src.URL)
	require.NoError(t, err)
	require.Equal(t, "developer", mc.User)
	require.Equal(t, "1234567", mc.Passwd)
	require.Equal(t, "localhost:3306", mc.Addr)
	require.Equal(t, "coursejdbc", mc.DBName)
	require.True(t, mc.ParseTime)
}

func TestLoadProperties_Postgres(t *testing.T) {
	path := writeProps(t, "user=app\npassword=pw\ndburl=jdbc:postgresql://localhost:5432/levels\nuseSSL=false\ndriver=postgres\n")
	src, err := LoadProperties(path)
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, src.Driver)

	u, err := url.Parse(src.URL)
	require.NoError(t, err)
	require.Equal(t, "postgres", u.Scheme)
	require.Equal(t, "app", u.User.Username())
	require.Equal(t, "/levels", u.Path)
	require.Equal(t, "disable", u.Query().Get("sslmode"))
}

func TestLoadProperties_Errors(t *testing.T) {
	_, err := LoadProperties(filepath.Join(t.TempDir(), "missing.properties"))
	require.Error(t, err)

	_, err = LoadProperties(writeProps(t, "user=app\n"))
	require.ErrorIs(t, err, ErrMissingURL)

	_, err = LoadProperties(writeProps(t, "dburl=jdbc:oracle://localhost/x\n"))
	require.Error(t, err)
}

func TestSource_Properties(t *testing.T) {
	path := writeProps(t, "dburl=jdbc:postgresql://localhost:5432/levels\n")
	src, err := Config{PropertiesPath: path}.Source(SourceProperties)
	require.NoError(t, err)
	require.Equal(t, DriverPGX, src.Driver)
}
