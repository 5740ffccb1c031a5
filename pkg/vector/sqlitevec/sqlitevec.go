// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
// Each collection maps to a metadata row, a points table, and a vec0 virtual
// table; dropping those tables is what full-refresh provisioning relies on.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/caselode/caselode/pkg/vector"
)

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string
}

// SQLiteVecDriver implements vector.Driver using SQLite with sqlite-vec.
type SQLiteVecDriver struct {
	db     *sql.DB
	logger *zap.Logger
}

// collectionNameRe restricts collection names to identifiers that are safe to
// embed in table names.
var collectionNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NewSQLiteVecDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewSQLiteVecDriver(c Config, logger *zap.Logger) (*SQLiteVecDriver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrConnection, err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			vector_name TEXT NOT NULL,
			size INTEGER NOT NULL,
			distance TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating collections table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.String("vec_version", vecVersion),
	)

	return &SQLiteVecDriver{
		db:     db,
		logger: logger,
	}, nil
}

// tableSuffix maps a collection name onto a table-safe identifier.
func tableSuffix(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// loadSchema reads a collection's schema row.
func (d *SQLiteVecDriver) loadSchema(ctx context.Context, name string) (vector.Schema, error) {
	var schema vector.Schema
	var distance string
	err := d.db.QueryRowContext(ctx,
		`SELECT vector_name, size, distance FROM collections WHERE name = ?`, name,
	).Scan(&schema.VectorName, &schema.Size, &distance)
	if err == sql.ErrNoRows {
		return schema, fmt.Errorf("%w: collection %q", vector.ErrNotFound, name)
	}
	if err != nil {
		return schema, fmt.Errorf("loading collection %q: %w", name, err)
	}
	schema.Distance = vector.Distance(distance)
	return schema, nil
}

// CollectionExists reports whether the named collection exists.
func (d *SQLiteVecDriver) CollectionExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx,
		`SELECT 1 FROM collections WHERE name = ?`, name,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking collection %q: %w", name, err)
	}
	return true, nil
}

// CreateCollection creates the metadata row, points table, and vec0 table.
func (d *SQLiteVecDriver) CreateCollection(ctx context.Context, name string, schema vector.Schema) error {
	if !collectionNameRe.MatchString(name) {
		return fmt.Errorf("%w: invalid collection name %q", vector.ErrInvalidSchema, name)
	}
	if schema.Size == 0 {
		return fmt.Errorf("%w: vector size must be positive", vector.ErrInvalidSchema)
	}
	if schema.VectorName == "" {
		return fmt.Errorf("%w: vector field name is required", vector.ErrInvalidSchema)
	}

	suffix := tableSuffix(name)

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO collections(name, vector_name, size, distance) VALUES (?, ?, ?, ?)`,
		name, schema.VectorName, schema.Size, string(schema.Distance),
	)
	if err != nil {
		return fmt.Errorf("registering collection %q: %w", name, err)
	}

	createPoints := fmt.Sprintf(`
		CREATE TABLE points_%s (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			point_key TEXT NOT NULL UNIQUE,
			payload TEXT NOT NULL DEFAULT '{}'
		)`, suffix)
	if _, err := d.db.ExecContext(ctx, createPoints); err != nil {
		return fmt.Errorf("creating points table for %q: %w", name, err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE vec_%s USING vec0(embedding float[%d])`,
		suffix, schema.Size,
	)
	if _, err := d.db.ExecContext(ctx, createVec); err != nil {
		return fmt.Errorf("creating vec0 table for %q: %w", name, err)
	}

	d.logger.Info("created collection",
		zap.String("collection", name),
		zap.String("vector_name", schema.VectorName),
		zap.Uint64("size", schema.Size),
	)

	return nil
}

// DeleteCollection drops the collection's tables and metadata row.
func (d *SQLiteVecDriver) DeleteCollection(ctx context.Context, name string) error {
	suffix := tableSuffix(name)

	if _, err := d.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS vec_%s`, suffix)); err != nil {
		return fmt.Errorf("dropping vec table for %q: %w", name, err)
	}
	if _, err := d.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS points_%s`, suffix)); err != nil {
		return fmt.Errorf("dropping points table for %q: %w", name, err)
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deregistering collection %q: %w", name, err)
	}

	d.logger.Info("deleted collection", zap.String("collection", name))
	return nil
}

// CollectionStatus reports ready for any existing collection: SQLite writes
// are visible to queries as soon as the transaction commits.
func (d *SQLiteVecDriver) CollectionStatus(ctx context.Context, name string) (vector.Status, error) {
	exists, err := d.CollectionExists(ctx, name)
	if err != nil {
		return vector.StatusUnknown, err
	}
	if !exists {
		return vector.StatusUnknown, fmt.Errorf("%w: collection %q", vector.ErrNotFound, name)
	}
	return vector.StatusReady, nil
}

// Upsert writes points into the collection, overwriting by id.
func (d *SQLiteVecDriver) Upsert(ctx context.Context, name string, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	schema, err := d.loadSchema(ctx, name)
	if err != nil {
		return err
	}
	suffix := tableSuffix(name)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range points {
		vec, ok := p.Vectors[schema.VectorName]
		if !ok {
			return fmt.Errorf("point %s missing vector field %q", p.ID, schema.VectorName)
		}
		if uint64(len(vec)) != schema.Size {
			return fmt.Errorf("point %s vector has %d dimensions, collection expects %d",
				p.ID, len(vec), schema.Size)
		}

		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("encoding payload for point %s: %w", p.ID, err)
		}
		embBlob := serializeFloat32(vec)
		key := p.ID.String()

		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT rowid FROM points_%s WHERE point_key = ?`, suffix), key,
		).Scan(&existingRowID)

		switch err {
		case nil:
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`UPDATE points_%s SET payload = ? WHERE rowid = ?`, suffix),
				string(payload), existingRowID,
			); err != nil {
				return fmt.Errorf("updating point %s: %w", key, err)
			}

			// vec0 does not support UPDATE
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM vec_%s WHERE rowid = ?`, suffix), existingRowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for point %s: %w", key, err)
			}
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO vec_%s(rowid, embedding) VALUES (?, ?)`, suffix),
				existingRowID, embBlob,
			); err != nil {
				return fmt.Errorf("re-inserting embedding for point %s: %w", key, err)
			}
		case sql.ErrNoRows:
			result, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO points_%s(point_key, payload) VALUES (?, ?)`, suffix),
				key, string(payload),
			)
			if err != nil {
				return fmt.Errorf("inserting point %s: %w", key, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for point %s: %w", key, err)
			}

			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO vec_%s(rowid, embedding) VALUES (?, ?)`, suffix),
				rowID, embBlob,
			); err != nil {
				return fmt.Errorf("inserting embedding for point %s: %w", key, err)
			}
		default:
			return fmt.Errorf("checking for existing point %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("upserted points",
		zap.String("collection", name),
		zap.Int("count", len(points)),
	)

	return nil
}

// Query runs a KNN search via vec0 and joins payloads back in.
func (d *SQLiteVecDriver) Query(ctx context.Context, name string, params vector.QueryParams) ([]vector.QueryResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}

	schema, err := d.loadSchema(ctx, name)
	if err != nil {
		return nil, err
	}
	if params.Using != "" && params.Using != schema.VectorName {
		return nil, fmt.Errorf("unknown vector field %q (collection has %q)", params.Using, schema.VectorName)
	}
	suffix := tableSuffix(name)

	query := fmt.Sprintf(`
		SELECT p.point_key, p.payload, v.distance
		FROM vec_%s v
		JOIN points_%s p ON p.rowid = v.rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance`, suffix, suffix)

	rows, err := d.db.QueryContext(ctx, query, serializeFloat32(params.Vector), limit)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", name, err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var key, payloadJSON string
		var distance float64
		if err := rows.Scan(&key, &payloadJSON, &distance); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("decoding payload for point %s: %w", key, err)
		}

		results = append(results, vector.QueryResult{
			ID: parsePointKey(key),
			// Convert distance to similarity score; lower distance = higher similarity
			Score:   float32(1.0 / (1.0 + distance)),
			Payload: payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}

	return results, nil
}

// Count returns the number of points in the collection.
func (d *SQLiteVecDriver) Count(ctx context.Context, name string) (uint64, error) {
	if _, err := d.loadSchema(ctx, name); err != nil {
		return 0, err
	}

	var count uint64
	err := d.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM points_%s`, tableSuffix(name)),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting points in %q: %w", name, err)
	}
	return count, nil
}

// Close releases the database handle.
func (d *SQLiteVecDriver) Close() error {
	return d.db.Close()
}

// parsePointKey recovers a PointID from its stored string form.
func parsePointKey(key string) vector.PointID {
	var num uint64
	if _, err := fmt.Sscanf(key, "%d", &num); err == nil && fmt.Sprintf("%d", num) == key {
		return vector.NumID(num)
	}
	return vector.UUIDID(key)
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

var _ vector.Driver = (*SQLiteVecDriver)(nil)
