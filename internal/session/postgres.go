package session

import (
	"context"
	"fmt"
	"strings"

	"ocrweb/internal/infra"
	"ocrweb/internal/sqlinline"
)

// PostgresStore keeps session values in a shared postgres table, one
// namespace per device installation.
type PostgresStore struct {
	sql       infra.SQLExecutor
	namespace string
	closer    func()
}

func NewPostgresStore(sql infra.SQLExecutor, namespace string) *PostgresStore {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = "default"
	}
	return &PostgresStore{sql: sql, namespace: namespace}
}

// Migrate creates the session table when missing.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.sql.Exec(ctx, sqlinline.QCreateSessionValues); err != nil {
		return fmt.Errorf("session: migrate: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	if err := p.sql.QueryRow(ctx, sqlinline.QSelectSessionValue, p.namespace, key).Scan(&value); err != nil {
		if infra.IsNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("session: get %s: %w", key, err)
	}
	return value, true, nil
}

func (p *PostgresStore) Set(ctx context.Context, key, value string) error {
	if _, err := p.sql.Exec(ctx, sqlinline.QUpsertSessionValue, p.namespace, key, value); err != nil {
		return fmt.Errorf("session: set %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.sql.Exec(ctx, sqlinline.QDeleteSessionValue, p.namespace, key); err != nil {
		return fmt.Errorf("session: delete %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	if p.closer != nil {
		p.closer()
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
