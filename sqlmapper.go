package sqlmapper

import (
	"database/sql"
	"io"

	"go.uber.org/zap"

	"github.com/canonical/sqlmapper/internal/executor"
	"github.com/canonical/sqlmapper/internal/proxy"
	"github.com/canonical/sqlmapper/internal/registry"
	"github.com/canonical/sqlmapper/session"
)

// SqlMapper wires a statement registry, a session facade, and a mapper
// proxy cache around one open database connection.
type SqlMapper struct {
	sqldb    *sql.DB
	registry *registry.Registry
	session  *session.DB
	cache    *proxy.Cache
	log      *zap.SugaredLogger
}

// Open opens driverName/dataSourceName via database/sql, loads every
// mapper document named in cfg, and returns a ready SqlMapper. The
// Interceptors in cfg run, outermost first, around every mapper-method
// call.
func Open(driverName, dataSourceName string, cfg *Config) (*SqlMapper, error) {
	sqldb, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	log, err := cfg.buildLogger()
	if err != nil {
		sqldb.Close()
		return nil, err
	}

	reg := registry.New(log)
	for _, path := range cfg.MapperPaths {
		if err := reg.LoadFile(path); err != nil {
			sqldb.Close()
			return nil, err
		}
	}

	sess := session.Open(sqldb, reg, log)
	exec := executor.New(sess, cfg.interceptors()...)
	return &SqlMapper{
		sqldb:    sqldb,
		registry: reg,
		session:  sess,
		cache:    proxy.NewCache(reg, exec),
		log:      log,
	}, nil
}

// LoadMapper merges one additional mapper document into m's registry. It
// is most useful for tests and for mapper documents assembled at runtime
// rather than loaded from disk.
func (m *SqlMapper) LoadMapper(src io.Reader) error {
	return m.registry.Load(src)
}

// Close releases the underlying database connection.
func (m *SqlMapper) Close() error {
	return m.sqldb.Close()
}

// DB returns the underlying *sql.DB, for schema migrations and other setup
// that falls outside the mapper-statement model.
func (m *SqlMapper) DB() *sql.DB {
	return m.sqldb
}

// GetMapper builds (or reuses) the dispatch engine for T's func-typed
// fields and returns a ready *T. T must be a struct type whose exported
// fields are all func-typed, one per declared operation; see the doc.go
// example.
func GetMapper[T any](m *SqlMapper, opts proxy.Options) (*T, error) {
	mapper := new(T)
	if err := m.cache.Bind(mapper, opts); err != nil {
		return nil, err
	}
	return mapper, nil
}
