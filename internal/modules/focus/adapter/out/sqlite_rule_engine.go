package out

import (
	"context"
	"database/sql"
	"fmt"

	"focuslock/internal/modules/focus/domain"
	"focuslock/internal/platform/tx"
)

// SQLiteRuleEngine keeps the dynamic rule table. Each Update is one
// transaction, so a failed batch leaves the previous rules in place.
type SQLiteRuleEngine struct {
	db *sql.DB
}

func NewSQLiteRuleEngine(ctx context.Context, db *sql.DB) (*SQLiteRuleEngine, error) {
	engine := &SQLiteRuleEngine{db: db}
	if err := engine.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return engine, nil
}

func (e *SQLiteRuleEngine) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS block_rules (
  id INTEGER PRIMARY KEY,
  domain TEXT NOT NULL,
  url_filter TEXT NOT NULL,
  destination TEXT NOT NULL,
  scope TEXT NOT NULL
);
`
	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create block_rules table: %w", err)
	}
	return nil
}

func (e *SQLiteRuleEngine) Update(ctx context.Context, removeIDs []int, addRules []domain.Rule) error {
	return tx.Within(ctx, e.db, func(dbTx *sql.Tx) error {
		for _, id := range removeIDs {
			if _, err := dbTx.ExecContext(ctx, `DELETE FROM block_rules WHERE id = ?`, id); err != nil {
				return fmt.Errorf("remove rule %d: %w", id, err)
			}
		}
		for _, rule := range addRules {
			if _, err := dbTx.ExecContext(ctx,
				`INSERT INTO block_rules (id, domain, url_filter, destination, scope) VALUES (?, ?, ?, ?, ?)`,
				rule.ID, rule.Domain, rule.URLFilter(), rule.Destination, string(rule.Scope),
			); err != nil {
				return fmt.Errorf("add rule %d (%s): %w", rule.ID, rule.Domain, err)
			}
		}
		return nil
	})
}

func (e *SQLiteRuleEngine) Rules(ctx context.Context) ([]domain.Rule, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT id, domain, destination, scope FROM block_rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	out := []domain.Rule{}
	for rows.Next() {
		var rule domain.Rule
		var scope string
		if err := rows.Scan(&rule.ID, &rule.Domain, &rule.Destination, &scope); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.Scope = domain.ResourceScope(scope)
		out = append(out, rule)
	}
	return out, rows.Err()
}

// Match returns the lowest-id rule whose filter covers rawURL.
func (e *SQLiteRuleEngine) Match(ctx context.Context, rawURL string, scope domain.ResourceScope) (domain.Rule, bool, error) {
	rules, err := e.Rules(ctx)
	if err != nil {
		return domain.Rule{}, false, err
	}
	for _, rule := range rules {
		if rule.Matches(rawURL, scope) {
			return rule, true, nil
		}
	}
	return domain.Rule{}, false, nil
}

func (e *SQLiteRuleEngine) Count(ctx context.Context) (int, error) {
	var n int
	if err := e.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM block_rules`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rules: %w", err)
	}
	return n, nil
}
