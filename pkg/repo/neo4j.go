package repo

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Result is the minimal interface needed from a neo4j result.
type Result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// Runner is the minimal interface needed from a neo4j session.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
	Close(ctx context.Context) error
}

// SessionFunc opens a session. Tests substitute a fake.
type SessionFunc func(ctx context.Context) Runner

// DriverSessions opens sessions on driver against database, or the default
// database when empty.
func DriverSessions(driver neo4j.DriverWithContext, database string) SessionFunc {
	return func(ctx context.Context) Runner {
		return &sessionAdapter{sess: driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: database})}
	}
}

// sessionAdapter adapts neo4j.SessionWithContext to Runner.
type sessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *sessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	res, err := a.sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *sessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

// Exec runs a write statement in its own session and drains the result.
func Exec(ctx context.Context, sessions SessionFunc, cypher string, params map[string]any) error {
	sess := sessions(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	for res.Next(ctx) {
	}
	return res.Err()
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Neo4jRepo is a generic Neo4j-backed repository over nodes with one label.
type Neo4jRepo[T any, ID comparable] struct {
	sessions   SessionFunc
	label      string
	idKey      string
	toMap      func(T) map[string]any
	fromRecord func(*neo4j.Record) (T, error)
}

// Neo4jOption configures a Neo4jRepo.
type Neo4jOption[T any, ID comparable] func(*Neo4jRepo[T, ID])

// WithIDKey sets the property name used as the ID (default "id").
func WithIDKey[T any, ID comparable](key string) Neo4jOption[T, ID] {
	return func(r *Neo4jRepo[T, ID]) { r.idKey = key }
}

// NewNeo4jRepo creates a new Neo4j-backed repository. label and the id key
// are interpolated into cypher and must be plain identifiers.
func NewNeo4jRepo[T any, ID comparable](
	sessions SessionFunc,
	label string,
	toMap func(T) map[string]any,
	fromRecord func(*neo4j.Record) (T, error),
	opts ...Neo4jOption[T, ID],
) *Neo4jRepo[T, ID] {
	r := &Neo4jRepo[T, ID]{
		sessions:   sessions,
		label:      label,
		idKey:      "id",
		toMap:      toMap,
		fromRecord: fromRecord,
	}
	for _, o := range opts {
		o(r)
	}
	if !identifier.MatchString(r.label) || !identifier.MatchString(r.idKey) {
		panic(fmt.Sprintf("repo: invalid label %q or id key %q", r.label, r.idKey))
	}
	return r
}

// Compile-time interface check.
var _ Repository[any, string] = (*Neo4jRepo[any, string])(nil)

// Label returns the node label the repository manages.
func (r *Neo4jRepo[T, ID]) Label() string { return r.label }

func (r *Neo4jRepo[T, ID]) Get(ctx context.Context, id ID) (T, error) {
	var zero T
	sess := r.sessions(ctx)
	defer sess.Close(ctx)

	cypher := fmt.Sprintf("MATCH (n:%s {%s: $id}) RETURN n", r.label, r.idKey)
	result, err := sess.Run(ctx, cypher, map[string]any{"id": id})
	if err != nil {
		return zero, err
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%s %v: %w", r.label, id, ErrNotFound)
	}
	return r.fromRecord(result.Record())
}

// List returns nodes ordered by id. Filter keys must be plain identifiers.
func (r *Neo4jRepo[T, ID]) List(ctx context.Context, opts ListOpts) ([]T, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	params := map[string]any{"offset": opts.Offset, "limit": limit}
	where, err := whereClause(opts.Filter, "f_", params)
	if err != nil {
		return nil, err
	}

	sess := r.sessions(ctx)
	defer sess.Close(ctx)

	cypher := fmt.Sprintf("MATCH (n:%s)%s RETURN n ORDER BY n.%s SKIP $offset LIMIT $limit", r.label, where, r.idKey)
	result, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	var items []T
	for result.Next(ctx) {
		item, err := r.fromRecord(result.Record())
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, result.Err()
}

// Upsert merges every item on its id and overwrites the mapped properties.
// All items go in one statement.
func (r *Neo4jRepo[T, ID]) Upsert(ctx context.Context, items ...T) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]map[string]any, len(items))
	for i, it := range items {
		rows[i] = r.toMap(it)
	}
	cypher := fmt.Sprintf("UNWIND $rows AS row MERGE (n:%s {%s: row.%s}) SET n += row", r.label, r.idKey, r.idKey)
	return Exec(ctx, r.sessions, cypher, map[string]any{"rows": rows})
}

func (r *Neo4jRepo[T, ID]) Delete(ctx context.Context, id ID) error {
	cypher := fmt.Sprintf("MATCH (n:%s {%s: $id}) DETACH DELETE n", r.label, r.idKey)
	return Exec(ctx, r.sessions, cypher, map[string]any{"id": id})
}

// Prune deletes the nodes matching scope whose id is not in keep, with their
// relationships, and reports how many were removed.
func (r *Neo4jRepo[T, ID]) Prune(ctx context.Context, scope map[string]any, keep []ID) (int, error) {
	params := map[string]any{"keep": nonNilIDs(keep)}
	where, err := whereClause(scope, "s_", params)
	if err != nil {
		return 0, err
	}
	if where == "" {
		where = " WHERE"
	} else {
		where += " AND"
	}

	sess := r.sessions(ctx)
	defer sess.Close(ctx)

	cypher := fmt.Sprintf("MATCH (n:%s)%s NOT n.%s IN $keep DETACH DELETE n RETURN count(n) AS removed",
		r.label, where, r.idKey)
	result, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return 0, err
	}
	if !result.Next(ctx) {
		return 0, result.Err()
	}
	removed, _, err := neo4j.GetRecordValue[int64](result.Record(), "removed")
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

// whereClause renders equality conditions on n for each key of filter, in
// key order, adding the values to params under prefix+key.
func whereClause(filter map[string]any, prefix string, params map[string]any) (string, error) {
	if len(filter) == 0 {
		return "", nil
	}
	keys := slices.Sorted(maps.Keys(filter))
	conds := make([]string, len(keys))
	for i, k := range keys {
		if !identifier.MatchString(k) {
			return "", fmt.Errorf("repo: invalid property name %q", k)
		}
		conds[i] = fmt.Sprintf("n.%s = $%s%s", k, prefix, k)
		params[prefix+k] = filter[k]
	}
	return " WHERE " + strings.Join(conds, " AND "), nil
}

func nonNilIDs[ID any](ids []ID) []ID {
	if ids == nil {
		return []ID{}
	}
	return ids
}
