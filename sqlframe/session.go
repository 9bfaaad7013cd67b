package sqlframe

import (
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================================
// Configuration
// ============================================================================

// Config configures a SessionContext.
type Config struct {
	// DSN is the SQLite data source name (default ":memory:").
	DSN string `yaml:"dsn"`

	// InsertBatchSize is the number of rows inserted per transaction when
	// registering tables (default 1000).
	InsertBatchSize int `yaml:"insert_batch_size"`

	// ExportBatchSize is the number of rows per Arrow record when exporting
	// (default 4096).
	ExportBatchSize int `yaml:"export_batch_size"`

	// Logger receives debug logs for every statement. Defaults to a no-op
	// logger.
	Logger log.Logger `yaml:"-"`

	// Registerer receives the engine metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer `yaml:"-"`

	// Allocator is used for Arrow exports (default memory.DefaultAllocator).
	Allocator memory.Allocator `yaml:"-"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		DSN:             ":memory:",
		InsertBatchSize: 1000,
		ExportBatchSize: 4096,
	}
}

func (cfg *Config) applyDefaults() {
	def := DefaultConfig()
	if cfg.DSN == "" {
		cfg.DSN = def.DSN
	}
	if cfg.InsertBatchSize <= 0 {
		cfg.InsertBatchSize = def.InsertBatchSize
	}
	if cfg.ExportBatchSize <= 0 {
		cfg.ExportBatchSize = def.ExportBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}
	if cfg.Allocator == nil {
		cfg.Allocator = memory.DefaultAllocator
	}
}

// ============================================================================
// Driver
// ============================================================================

const driverName = "sqlite3_galleon"

// Scalar functions registered on every connection. SQLite builds without
// the math extension lack floor and pow, and its % truncates towards zero.
const (
	fnFloor = "galleon_floor"
	fnPow   = "galleon_pow"
	fnMod   = "galleon_mod"
)

var registerDriver sync.Once

func ensureDriver() {
	registerDriver.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if err := conn.RegisterFunc(fnFloor, sqlFloor, true); err != nil {
					return fmt.Errorf("register %s: %w", fnFloor, err)
				}
				if err := conn.RegisterFunc(fnPow, sqlPow, true); err != nil {
					return fmt.Errorf("register %s: %w", fnPow, err)
				}
				if err := conn.RegisterFunc(fnMod, sqlMod, true); err != nil {
					return fmt.Errorf("register %s: %w", fnMod, err)
				}
				return nil
			},
		})
	})
}

func sqlFloor(x any) any {
	f, ok := numericArg(x)
	if !ok {
		return nil
	}
	return math.Floor(f)
}

func sqlPow(base, exp any) any {
	b, ok1 := numericArg(base)
	e, ok2 := numericArg(exp)
	if !ok1 || !ok2 {
		return nil
	}
	return math.Pow(b, e)
}

// sqlMod takes the sign of the divisor, matching floor division.
func sqlMod(a, b any) any {
	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	if aInt && bInt {
		if bi == 0 {
			return nil
		}
		r := ai % bi
		if r != 0 && (r < 0) != (bi < 0) {
			r += bi
		}
		return r
	}

	af, ok1 := numericArg(a)
	bf, ok2 := numericArg(b)
	if !ok1 || !ok2 || bf == 0 {
		return nil
	}
	r := math.Mod(af, bf)
	if r != 0 && (r < 0) != (bf < 0) {
		r += bf
	}
	return r
}

func numericArg(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// EngineVersion returns the version of the linked SQLite library.
func EngineVersion() string {
	v, _, _ := sqlite3.Version()
	return v
}

// ============================================================================
// Session
// ============================================================================

// SessionContext owns a SQLite database and the tables registered on it.
// All frames created from a session share its single connection.
type SessionContext struct {
	db      *sql.DB
	cfg     Config
	logger  log.Logger
	metrics *metrics

	mu     sync.Mutex
	tables map[string]*arrow.Schema
}

// NewSessionContext opens a new session.
func NewSessionContext(cfg Config) (*SessionContext, error) {
	cfg.applyDefaults()
	ensureDriver()

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// An in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return &SessionContext{
		db:      db,
		cfg:     cfg,
		logger:  log.With(cfg.Logger, "component", "sqlframe"),
		metrics: newMetrics(cfg.Registerer),
		tables:  make(map[string]*arrow.Schema),
	}, nil
}

// Close closes the database connection.
func (c *SessionContext) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Table returns a frame over a registered table.
func (c *SessionContext) Table(name string) (*DataFrame, error) {
	c.mu.Lock()
	schema, ok := c.tables[name]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("table %q is not registered", name)
	}
	return c.scan(name, schema), nil
}

// Tables returns the names of all registered tables.
func (c *SessionContext) Tables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.tables))
	for n := range c.tables {
		names = append(names, n)
	}
	return names
}

func (c *SessionContext) scan(table string, schema *arrow.Schema) *DataFrame {
	cols := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		cols[i] = quoteIdent(f.Name)
	}
	return &DataFrame{
		ctx:    c,
		query:  fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", joinComma(cols), quoteIdent(table)),
		schema: schema,
	}
}

// generatedTableName returns a unique table name for anonymous registrations.
func generatedTableName() string {
	return "t_" + uuid.NewString()
}

func (c *SessionContext) query(stmt string, args []any) (*sql.Rows, error) {
	level.Debug(c.logger).Log("msg", "executing query", "sql", stmt, "args", len(args))
	start := time.Now()
	rows, err := c.db.Query(stmt, args...)
	c.metrics.observe("query", start, err)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

func (c *SessionContext) queryRow(stmt string, args []any, dest ...any) error {
	level.Debug(c.logger).Log("msg", "executing query", "sql", stmt, "args", len(args))
	start := time.Now()
	err := c.db.QueryRow(stmt, args...).Scan(dest...)
	c.metrics.observe("query", start, err)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return nil
}

func (c *SessionContext) exec(stmt string, args ...any) error {
	level.Debug(c.logger).Log("msg", "executing statement", "sql", stmt)
	start := time.Now()
	_, err := c.db.Exec(stmt, args...)
	c.metrics.observe("exec", start, err)
	if err != nil {
		return fmt.Errorf("statement failed: %w", err)
	}
	return nil
}

// ============================================================================
// Metrics
// ============================================================================

type metrics struct {
	statements *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		statements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "galleon_sql",
			Name:      "queries_total",
			Help:      "Total number of SQL statements executed by the session.",
		}, []string{"kind", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "galleon_sql",
			Name:      "query_duration_seconds",
			Help:      "Time spent executing SQL statements.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
}

func (m *metrics) observe(kind string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.statements.WithLabelValues(kind, status).Inc()
	m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
