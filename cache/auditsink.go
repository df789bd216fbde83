// Copyright (C) 2025 adrianbrink
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package cache

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adrianbrink/routing/xorname"
)

// AuditSink records DataCache inserts passed to RecordInsert in durable
// storage. The routing engine holds no AuditSink and never calls
// RecordInsert, so a sink records only what its own caller hands it.
// NoopAuditSink discards everything; the Postgres implementation is an
// operational aid (cache-fill auditing) and is never read back.
type AuditSink interface {
	RecordInsert(ctx context.Context, name xorname.Name, data []byte) error
	Close()
}

// NoopAuditSink discards everything.
type NoopAuditSink struct{}

func (NoopAuditSink) RecordInsert(context.Context, xorname.Name, []byte) error { return nil }
func (NoopAuditSink) Close()                                                   {}

// PostgresAuditSink writes a row per DataCache insert to a
// `data_cache_audit` table, for operators who want a durable record of
// what passed through a node's cache.
type PostgresAuditSink struct {
	pool *pgxpool.Pool
}

// PostgresAuditConfig holds connection parameters, mirroring the
// teacher's storage/postgres Config shape.
type PostgresAuditConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewPostgresAuditSink opens a pooled connection and verifies it with Ping.
func NewPostgresAuditSink(ctx context.Context, cfg PostgresAuditConfig) (*PostgresAuditSink, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("auditsink: creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("auditsink: pinging database: %w", err)
	}
	return &PostgresAuditSink{pool: pool}, nil
}

// RecordInsert writes one audit row.
func (s *PostgresAuditSink) RecordInsert(ctx context.Context, name xorname.Name, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO data_cache_audit (name, size_bytes, inserted_at) VALUES ($1, $2, now())`,
		name.String(), len(data),
	)
	if err != nil {
		return fmt.Errorf("auditsink: recording insert: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresAuditSink) Close() {
	s.pool.Close()
}
