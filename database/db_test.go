package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnNames(t *testing.T) {
	got := ColumnNames([]string{
		"Period",
		"Country of Origin",
		"Value ($NZD)",
		"",
		"Period",
		"2024 Q1",
		"Period",
	})
	assert.Equal(t, []string{
		"period",
		"country_of_origin",
		"value_nzd",
		"col_4",
		"period_2",
		"c_2024_q1",
		"period_3",
	}, got)
}

func TestColumnNamesSkipsTakenSuffixes(t *testing.T) {
	got := ColumnNames([]string{"a_2", "a", "a", "a"})
	assert.Equal(t, []string{"a_2", "a", "a_3", "a_4"}, got)
}

func TestColumnNamesTruncatesLongLabels(t *testing.T) {
	got := ColumnNames([]string{strings.Repeat("a", 100)})
	assert.Len(t, got[0], 63)
}

func TestMySQLDSN(t *testing.T) {
	dsn := mysqlDSN(Config{Host: "db", Port: 3306, User: "stats", Password: "p@ss:word", Database: "infoshare"})
	assert.True(t, strings.HasPrefix(dsn, "stats:p@ss:word@tcp(db:3306)/infoshare?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestPostgresDSNDefaultsSSLMode(t *testing.T) {
	dsn := postgresDSN(Config{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d"})
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "port=5432")

	dsn = postgresDSN(Config{Host: "db", Port: 5432, SSLMode: "require"})
	assert.Contains(t, dsn, "sslmode=require")
}

func TestPortDefaultsByType(t *testing.T) {
	assert.Contains(t, postgresDSN(Config{Type: "postgres", Host: "db"}), "port=5432")
	assert.Contains(t, mysqlDSN(Config{Type: "mysql", Host: "db"}), "tcp(db:3306)")
	assert.Contains(t, postgresDSN(Config{Type: "postgres", Host: "db", Port: 6543}), "port=6543")
	assert.Equal(t, 0, DefaultPort(""))
}

func TestDialectorRejectsUnknownType(t *testing.T) {
	_, err := dialector(Config{Type: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type: oracle")

	d, err := dialector(Config{Type: "postgres", Host: "x", Port: 1})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}

func TestEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Type: "mysql"}.Enabled())
}
