package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"roadviz/internal/domain"
	"roadviz/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS graphs (
		name TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		node_count INTEGER NOT NULL DEFAULT 0,
		edge_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS nodes (
		graph TEXT NOT NULL,
		id TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		PRIMARY KEY (graph, id),
		FOREIGN KEY (graph) REFERENCES graphs(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS edges (
		graph TEXT NOT NULL,
		id TEXT NOT NULL,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		PRIMARY KEY (graph, id),
		FOREIGN KEY (graph) REFERENCES graphs(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		graph TEXT NOT NULL,
		source TEXT,
		seed INTEGER NOT NULL DEFAULT 0,
		node_count INTEGER NOT NULL,
		emitted INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveGraph stores a graph under name, replacing any previous graph with that name
func (r *Repository) SaveGraph(ctx context.Context, name string, fragment *domain.GraphFragment) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("graph name is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE graph = ?`, name); err != nil {
		return fmt.Errorf("failed to clear nodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE graph = ?`, name); err != nil {
		return fmt.Errorf("failed to clear edges: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO graphs (name, created_at, node_count, edge_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			created_at = excluded.created_at,
			node_count = excluded.node_count,
			edge_count = excluded.edge_count
	`, name, toMillis(time.Now()), len(fragment.Nodes), len(fragment.Edges))
	if err != nil {
		return fmt.Errorf("failed to insert graph: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes (graph, id, x, y) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer nodeStmt.Close()

	for _, n := range fragment.Nodes {
		if _, err := nodeStmt.ExecContext(ctx, name, n.ID, n.X, n.Y); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `INSERT INTO edges (graph, id, from_id, to_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for _, e := range fragment.Edges {
		id := e.ID
		if id == "" {
			id = e.GenerateID()
		}
		if _, err := edgeStmt.ExecContext(ctx, name, id, e.FromID, e.ToID); err != nil {
			return fmt.Errorf("failed to insert edge %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LoadGraph retrieves a stored graph
func (r *Repository) LoadGraph(ctx context.Context, name string) (*domain.GraphFragment, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM graphs WHERE name = ?`, name).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("graph %s: %w", name, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query graph: %w", err)
	}

	fragment := domain.NewGraphFragment()

	rows, err := r.db.QueryContext(ctx, `SELECT id, x, y FROM nodes WHERE graph = ? ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	for rows.Next() {
		var n domain.Node
		if err := rows.Scan(&n.ID, &n.X, &n.Y); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		fragment.AddNode(n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	rows.Close()

	edgeRows, err := r.db.QueryContext(ctx, `SELECT id, from_id, to_id FROM edges WHERE graph = ? ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var e domain.Edge
		if err := edgeRows.Scan(&e.ID, &e.FromID, &e.ToID); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		fragment.AddEdge(e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return fragment, nil
}

// ListGraphs returns every stored graph, newest first
func (r *Repository) ListGraphs(ctx context.Context) ([]domain.GraphInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, created_at, node_count, edge_count
		FROM graphs ORDER BY created_at DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query graphs: %w", err)
	}
	defer rows.Close()

	var graphs []domain.GraphInfo
	for rows.Next() {
		var (
			info    domain.GraphInfo
			created int64
		)
		if err := rows.Scan(&info.Name, &created, &info.NodeCount, &info.EdgeCount); err != nil {
			return nil, fmt.Errorf("failed to scan graph: %w", err)
		}
		info.CreatedAt = fromMillis(created)
		graphs = append(graphs, info)
	}

	return graphs, rows.Err()
}

// DeleteGraph removes a stored graph with its nodes and edges
func (r *Repository) DeleteGraph(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM graphs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("graph %s: %w", name, repository.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE graph = ?`, name); err != nil {
		return fmt.Errorf("failed to delete nodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE graph = ?`, name); err != nil {
		return fmt.Errorf("failed to delete edges: %w", err)
	}

	return tx.Commit()
}

// CreateRun records the start of a traversal
func (r *Repository) CreateRun(ctx context.Context, run *domain.Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = domain.RunStatusRunning
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, graph, source, seed, node_count, emitted, status, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Graph, stringToNull(run.Source), run.Seed, run.NodeCount, run.Emitted,
		string(run.Status), toMillis(run.StartedAt), timePtrToNull(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a traversal
func (r *Repository) FinishRun(ctx context.Context, id string, emitted int, status domain.RunStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE runs SET emitted = ?, status = ?, finished_at = ? WHERE id = ?
	`, emitted, string(status), toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

const runColumns = `id, graph, source, seed, node_count, emitted, status, started_at, finished_at`

// GetRun retrieves a single run by ID
func (r *Repository) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first; limit <= 0 returns all
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
