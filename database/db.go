// Package database publishes the normalized table to MySQL or PostgreSQL.
package database

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"portalfetch/models"
)

// Config holds database configuration
type Config struct {
	Type     string `koanf:"type"` // "mysql" or "postgres"; empty disables publishing
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"` // For PostgreSQL
	Table    string `koanf:"table"`
}

// Enabled reports whether a database sink is configured
func (c Config) Enabled() bool {
	return c.Type != ""
}

// DefaultPort returns the server's standard port for a database type
func DefaultPort(dbType string) int {
	switch dbType {
	case "postgres":
		return 5432
	case "mysql":
		return 3306
	default:
		return 0
	}
}

// port falls back to DefaultPort when no port is configured
func (c Config) port() int {
	if c.Port == 0 {
		return DefaultPort(c.Type)
	}
	return c.Port
}

const insertBatchSize = 500

// mysqlDSN builds the DSN with the driver's own formatter so passwords with
// special characters survive
func mysqlDSN(config Config) string {
	dsn := mysqldriver.NewConfig()
	dsn.User = config.User
	dsn.Passwd = config.Password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", config.Host, config.port())
	dsn.DBName = config.Database
	dsn.ParseTime = true
	dsn.Loc = time.Local
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

func postgresDSN(config Config) string {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable" // Default SSL mode
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		config.Host, config.User, config.Password, config.Database, config.port(), sslMode)
}

// dialector picks the gorm driver for config.Type
func dialector(config Config) (gorm.Dialector, error) {
	switch config.Type {
	case "mysql":
		return mysql.Open(mysqlDSN(config)), nil
	case "postgres":
		return postgres.Open(postgresDSN(config)), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s (supported types: mysql, postgres)", config.Type)
	}
}

// Connect establishes a connection to the database using GORM
func Connect(config Config) (*gorm.DB, error) {
	dialect, err := dialector(config)
	if err != nil {
		return nil, err
	}

	// Configure GORM logger
	gormLog := gormlogger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialect, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error accessing underlying SQL DB: %w", err)
	}

	// A single run only ever needs one connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Minute * 3)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return db, nil
}

// ColumnNames turns header labels into unique SQL identifiers
func ColumnNames(headers []string) []string {
	names := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))
	for i, header := range headers {
		name := identifier(header)
		if name == "" {
			name = "col_" + strconv.Itoa(i+1)
		}
		if seen[name] {
			base := name
			for n := 2; seen[name]; n++ {
				name = base + "_" + strconv.Itoa(n)
			}
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

func identifier(label string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	if name != "" && unicode.IsDigit(rune(name[0])) {
		name = "c_" + name
	}
	const maxIdentifier = 63 // PostgreSQL's limit, below MySQL's
	if len(name) > maxIdentifier {
		name = name[:maxIdentifier]
	}
	return name
}

// LoadTable replaces tableName with the contents of table. Every column is
// stored as text; typing is left to whoever queries it.
func LoadTable(db *gorm.DB, tableName string, table *models.Table) (int, error) {
	columns := ColumnNames(table.Columns)
	records := make([]map[string]interface{}, 0, len(table.Rows))
	for _, row := range table.Rows {
		record := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			record[column] = value
		}
		records = append(records, record)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Migrator().DropTable(tableName); err != nil {
			return fmt.Errorf("error dropping table %s: %w", tableName, err)
		}

		defs := make([]string, len(columns))
		for i, column := range columns {
			defs[i] = tx.Statement.Quote(column) + " TEXT"
		}
		create := fmt.Sprintf("CREATE TABLE %s (%s)", tx.Statement.Quote(tableName), strings.Join(defs, ", "))
		if err := tx.Exec(create).Error; err != nil {
			return fmt.Errorf("error creating table %s: %w", tableName, err)
		}

		if len(records) == 0 {
			return nil
		}
		if err := tx.Table(tableName).CreateInBatches(records, insertBatchSize).Error; err != nil {
			return fmt.Errorf("error inserting rows into %s: %w", tableName, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Close safely closes the database connection
func Close(db *gorm.DB) error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("error accessing SQL DB: %w", err)
		}
		return sqlDB.Close()
	}
	return nil
}
