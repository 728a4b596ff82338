package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atharv3903/meetcast/internal/graph"
)

var (
	ErrNetworkNotFound = errors.New("db: network not found")
	ErrCorruptNetwork  = errors.New("db: stored network violates graph constraints")
)

// Schema creates the tables the store reads and writes.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS networks (
		name       VARCHAR(128) PRIMARY KEY,
		vertices   INT NOT NULL,
		edge_count INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS edges (
		edge_id    BIGINT AUTO_INCREMENT PRIMARY KEY,
		network    VARCHAR(128) NOT NULL,
		src_node   INT NOT NULL,
		dst_node   INT NOT NULL,
		distance_m DOUBLE NOT NULL,
		INDEX idx_edges_network (network, edge_id)
	)`,
}

type Store struct {
	DB *sql.DB
}

func (s Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// LoadNetwork rebuilds the named network with edges in their stored order.
func (s Store) LoadNetwork(ctx context.Context, name string) (*graph.Graph, error) {
	var vertices int
	err := s.DB.QueryRowContext(ctx, `SELECT vertices FROM networks WHERE name=?`, name).Scan(&vertices)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNetworkNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	g, err := graph.New(vertices)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptNetwork, err)
	}

	rows, err := s.DB.QueryContext(ctx, `
        SELECT src_node, dst_node, distance_m
        FROM edges
        WHERE network=?
        ORDER BY edge_id
    `, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var src, dst int
		var dist float64
		if err := rows.Scan(&src, &dst, &dist); err != nil {
			return nil, err
		}
		if err := g.AddEdge(src, dst, dist); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrCorruptNetwork, name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// SaveNetwork replaces the named network in a single transaction.
func (s Store) SaveNetwork(ctx context.Context, name string, g *graph.Graph) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
        INSERT INTO networks (name, vertices, edge_count) VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE vertices=VALUES(vertices), edge_count=VALUES(edge_count)
    `, name, g.VertexCount(), g.EdgeCount()); err != nil {
		return fmt.Errorf("save network %q: %w", name, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM edges WHERE network=?`, name); err != nil {
		return fmt.Errorf("clear edges of %q: %w", name, err)
	}
	for e := range g.Edges() {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO edges (network, src_node, dst_node, distance_m) VALUES (?, ?, ?, ?)`,
			name, e.From, e.To, e.Weight); err != nil {
			return fmt.Errorf("insert edge %d->%d of %q: %w", e.From, e.To, name, err)
		}
	}
	return tx.Commit()
}

func (s Store) ListNetworks(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT name FROM networks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
