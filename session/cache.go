package session

import (
	"context"
	"database/sql"
	"runtime"
	"sync"
	"sync/atomic"
)

// dbID identifies one DB instance within the process-wide prepared
// statement cache.
type dbID = int64

var dbIDCount int64

// statementCache caches *sql.Stmt values keyed by statement id and DB
// instance, since one compiled statement may be prepared against several
// open databases. It mirrors a double-checked-locking prepare path with
// finalizer-driven cleanup: when a DB is garbage collected, every
// statement it prepared is closed and its cache entries removed.
//
// The mutex guards both maps.
type statementCache struct {
	mu          sync.RWMutex
	byStatement map[string]map[dbID]*sql.Stmt
	byDB        map[dbID]map[string]bool
}

var once sync.Once
var singleton *statementCache

func sharedStatementCache() *statementCache {
	once.Do(func() {
		singleton = &statementCache{
			byStatement: make(map[string]map[dbID]*sql.Stmt),
			byDB:        make(map[dbID]map[string]bool),
		}
	})
	return singleton
}

// registerDB allocates a dbID for db and arranges for every statement it
// prepared to be closed, and the DB's cache entries removed, once db is
// unreachable and finalized.
func (sc *statementCache) registerDB(db *DB) dbID {
	id := atomic.AddInt64(&dbIDCount, 1)
	sc.mu.Lock()
	sc.byDB[id] = map[string]bool{}
	sc.mu.Unlock()
	runtime.SetFinalizer(db, sc.dbFinalizer(db))
	return id
}

func (sc *statementCache) dbFinalizer(db *DB) func(*DB) {
	return func(db *DB) {
		sc.mu.Lock()
		defer sc.mu.Unlock()
		for stmtID := range sc.byDB[db.id] {
			if prepared, ok := sc.byStatement[stmtID][db.id]; ok {
				prepared.Close()
				delete(sc.byStatement[stmtID], db.id)
			}
		}
		delete(sc.byDB, db.id)
		db.sqldb.Close()
	}
}

// prepare returns the cached *sql.Stmt for (statementID, db.id), preparing
// and caching it on a miss.
func (sc *statementCache) prepare(ctx context.Context, db *DB, statementID, sqlText string) (*sql.Stmt, error) {
	sc.mu.RLock()
	stmt, ok := sc.byStatement[statementID][db.id]
	sc.mu.RUnlock()
	if ok {
		return stmt, nil
	}

	prepared, err := db.sqldb.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if existing, ok := sc.byStatement[statementID][db.id]; ok {
		prepared.Close()
		return existing, nil
	}
	if sc.byStatement[statementID] == nil {
		sc.byStatement[statementID] = map[dbID]*sql.Stmt{}
	}
	sc.byStatement[statementID][db.id] = prepared
	sc.byDB[db.id][statementID] = true
	return prepared, nil
}
