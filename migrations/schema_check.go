package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// CoreSchemaCheck describes a table/column requirement for account tables.
type CoreSchemaCheck struct {
	Table   string
	Columns []string
}

// DefaultCoreSchemaChecks captures the minimal columns go-accounts expects on
// the tables it owns.
var DefaultCoreSchemaChecks = []CoreSchemaCheck{
	{
		Table: "profiles",
		Columns: []string{
			"user_id",
			"display_name",
			"timezone",
			"locale",
			"avatar_url",
			"org_id",
		},
	},
	{
		Table: "user_preferences",
		Columns: []string{
			"id",
			"user_id",
			"theme",
			"locale",
			"notify_email",
			"profile_visibility",
			"organization_context",
		},
	},
	{
		Table: "user_avatars",
		Columns: []string{
			"id",
			"user_id",
			"storage_path",
			"content_hash",
			"variants",
			"is_active",
		},
	},
	{
		Table: "user_activity",
		Columns: []string{
			"id",
			"user_id",
			"action",
			"status",
			"created_at",
			"org_id",
		},
	},
	{
		Table: "user_sessions",
		Columns: []string{
			"id",
			"user_id",
			"device_type",
			"last_seen_at",
			"revoked_at",
		},
	},
	{
		Table: "organization_memberships",
		Columns: []string{
			"user_id",
			"organization_id",
			"role",
			"permissions",
		},
	},
	{
		Table: "export_tokens",
		Columns: []string{
			"jti",
			"user_id",
			"status",
			"expires_at",
		},
	},
}

// CoreSchemaOption customizes core schema validation.
type CoreSchemaOption func(*coreSchemaConfig)

type coreSchemaConfig struct {
	checks []CoreSchemaCheck
}

// WithCoreSchemaChecks replaces the default checks with a custom list.
func WithCoreSchemaChecks(checks []CoreSchemaCheck) CoreSchemaOption {
	return func(cfg *coreSchemaConfig) {
		cfg.checks = checks
	}
}

// CoreSchemaValidationError summarizes missing account tables/columns.
type CoreSchemaValidationError struct {
	MissingTables  []string
	MissingColumns map[string][]string
}

func (e *CoreSchemaValidationError) Error() string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	if len(e.MissingTables) > 0 {
		parts = append(parts, fmt.Sprintf("missing tables: %s", strings.Join(e.MissingTables, ", ")))
	}
	if len(e.MissingColumns) > 0 {
		tableKeys := make([]string, 0, len(e.MissingColumns))
		for table := range e.MissingColumns {
			tableKeys = append(tableKeys, table)
		}
		sort.Strings(tableKeys)
		cols := make([]string, 0, len(tableKeys))
		for _, table := range tableKeys {
			missing := e.MissingColumns[table]
			sort.Strings(missing)
			cols = append(cols, fmt.Sprintf("%s(%s)", table, strings.Join(missing, ", ")))
		}
		parts = append(parts, fmt.Sprintf("missing columns: %s", strings.Join(cols, "; ")))
	}
	if len(parts) == 0 {
		return "core schema validation failed"
	}
	return "core schema validation failed: " + strings.Join(parts, "; ")
}

// ValidateCoreSchema ensures account tables expose columns go-accounts relies on.
func ValidateCoreSchema(ctx context.Context, db *sql.DB, dialect string, opts ...CoreSchemaOption) error {
	if db == nil {
		return errors.New("migrations: db required")
	}
	normalized := strings.ToLower(strings.TrimSpace(dialect))
	switch normalized {
	case "postgres", "postgresql":
		normalized = "postgres"
	case "sqlite", "sqlite3":
		normalized = "sqlite"
	default:
		return fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	cfg := coreSchemaConfig{
		checks: DefaultCoreSchemaChecks,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(cfg.checks) == 0 {
		return nil
	}

	missingTables := make([]string, 0)
	missingColumns := make(map[string][]string)
	for _, check := range cfg.checks {
		if strings.TrimSpace(check.Table) == "" {
			continue
		}
		cols, err := fetchColumns(ctx, db, normalized, check.Table)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			missingTables = append(missingTables, check.Table)
			continue
		}
		for _, col := range check.Columns {
			normalizedCol := strings.ToLower(strings.TrimSpace(col))
			if normalizedCol == "" {
				continue
			}
			if !cols[normalizedCol] {
				missingColumns[check.Table] = append(missingColumns[check.Table], normalizedCol)
			}
		}
	}

	if len(missingTables) == 0 && len(missingColumns) == 0 {
		return nil
	}
	sort.Strings(missingTables)
	return &CoreSchemaValidationError{
		MissingTables:  missingTables,
		MissingColumns: missingColumns,
	}
}

func fetchColumns(ctx context.Context, db *sql.DB, dialect, table string) (map[string]bool, error) {
	switch dialect {
	case "postgres":
		return fetchColumnsPostgres(ctx, db, table)
	case "sqlite":
		return fetchColumnsSQLite(ctx, db, table)
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
}

func fetchColumnsPostgres(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}

func fetchColumnsSQLite(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			defaultV   sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultV, &primaryKey); err != nil {
			return nil, err
		}
		cols[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}
