package store

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"rstyle/registry"
)

const schema = `
CREATE TABLE IF NOT EXISTS stylesheets (
	kind     INTEGER NOT NULL,
	scope    TEXT    NOT NULL DEFAULT '',
	report   INTEGER NOT NULL DEFAULT 0,
	org      TEXT    NOT NULL DEFAULT '',
	body     BLOB    NOT NULL,
	modified INTEGER NOT NULL,
	PRIMARY KEY (kind, scope, report, org)
);
`

// SQL keeps stylesheet sources in a SQLite database. It is typically used for
// tenant overrides edited at runtime, but can hold any kind of source.
type SQL struct {
	log   *zap.Logger
	clock func() time.Time

	mu   sync.Mutex
	conn *sqlite.Conn
}

// OpenSQL opens or creates the database at path. ":memory:" opens a private
// in-memory database.
func OpenSQL(path string, log *zap.Logger) (*SQL, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := sqlite.OpenConn(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open stylesheet database %q: %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare stylesheet database %q: %w", path, err)
	}
	return &SQL{log: log.Named("store"), clock: time.Now, conn: conn}, nil
}

// Close releases the database.
func (s *SQL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func keyArgs(src registry.SourceKey) []any {
	report := int64(0)
	if src.Report {
		report = 1
	}
	return []any{int64(src.Kind), src.Scope, report, src.OrgID}
}

const where = `WHERE kind = ? AND scope = ? AND report = ? AND org = ?`

// Put stores body as the content of src. The modification time always moves
// forward, even when two writes happen within the clock resolution.
func (s *SQL) Put(src registry.SourceKey, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if body == nil {
		body = []byte{}
	}
	args := append(keyArgs(src), body, s.clock().UnixNano())
	err := sqlitex.Execute(s.conn, `
INSERT INTO stylesheets (kind, scope, report, org, body, modified) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (kind, scope, report, org) DO UPDATE SET
	body = excluded.body,
	modified = max(stylesheets.modified + 1, excluded.modified)`,
		&sqlitex.ExecOptions{Args: args})
	if err != nil {
		return fmt.Errorf("unable to store %s: %w", src, err)
	}
	s.log.Debug("Stylesheet source stored", zap.Stringer("source", src), zap.Int("size", len(body)))
	return nil
}

// Delete removes src.
func (s *SQL) Delete(src registry.SourceKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := sqlitex.Execute(s.conn, `DELETE FROM stylesheets `+where,
		&sqlitex.ExecOptions{Args: keyArgs(src)}); err != nil {
		return fmt.Errorf("unable to delete %s: %w", src, err)
	}
	if s.conn.Changes() == 0 {
		return fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	return nil
}

// Stat returns the modification time of src.
func (s *SQL) Stat(src registry.SourceKey) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		modified int64
		found    bool
	)
	err := sqlitex.Execute(s.conn, `SELECT modified FROM stylesheets `+where,
		&sqlitex.ExecOptions{
			Args: keyArgs(src),
			ResultFunc: func(stmt *sqlite.Stmt) error {
				modified, found = stmt.ColumnInt64(0), true
				return nil
			},
		})
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to stat %s: %w", src, err)
	}
	if !found {
		return time.Time{}, fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	return time.Unix(0, modified), nil
}

// Read returns the content of src.
func (s *SQL) Read(src registry.SourceKey) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		body  []byte
		found bool
	)
	err := sqlitex.Execute(s.conn, `SELECT body FROM stylesheets `+where,
		&sqlitex.ExecOptions{
			Args: keyArgs(src),
			ResultFunc: func(stmt *sqlite.Stmt) (err error) {
				found = true
				body, err = io.ReadAll(stmt.ColumnReader(0))
				return err
			},
		})
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", src, err)
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	return body, nil
}

// List returns every stored source in natural order of their names.
func (s *SQL) List() ([]registry.SourceKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []registry.SourceKey
	err := sqlitex.Execute(s.conn, `SELECT kind, scope, report, org FROM stylesheets`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				keys = append(keys, registry.SourceKey{
					Kind:   registry.Kind(stmt.ColumnInt64(0)),
					Scope:  stmt.ColumnText(1),
					Report: stmt.ColumnInt64(2) != 0,
					OrgID:  stmt.ColumnText(3),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("unable to list stylesheet sources: %w", err)
	}
	slices.SortFunc(keys, func(a, b registry.SourceKey) int {
		if a.Kind != b.Kind {
			return int(a.Kind) - int(b.Kind)
		}
		as, bs := a.String(), b.String()
		switch {
		case natural.Less(as, bs):
			return -1
		case natural.Less(bs, as):
			return 1
		}
		return 0
	})
	return keys, nil
}
