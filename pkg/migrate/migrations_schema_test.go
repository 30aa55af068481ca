package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/prostore-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(migrate.Migrations(), "*_"+suffix+".sql")
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no migration matching %s", suffix)
	data, err := fs.ReadFile(migrate.Migrations(), matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationsContainExpectedStatements(t *testing.T) {
	cases := map[string][]string{
		"create_users_table": {
			"CREATE TABLE IF NOT EXISTS users",
			"CONSTRAINT users_email_key UNIQUE (email)",
			"DEFAULT 'NO_NAME'",
			"DROP TABLE IF EXISTS users",
		},
		"create_products_table": {
			"CREATE TABLE IF NOT EXISTS products",
			"CONSTRAINT products_slug_key UNIQUE (slug)",
			"rating numeric(3,2) NOT NULL DEFAULT 0",
			"CHECK (stock >= 0)",
			"DROP TABLE IF EXISTS products",
		},
		"create_carts_table": {
			"CREATE TABLE IF NOT EXISTS carts",
			"items jsonb NOT NULL DEFAULT '[]'::jsonb",
			"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		},
		"create_reviews_table": {
			"CONSTRAINT reviews_product_user_key UNIQUE (product_id, user_id)",
			"CHECK (rating BETWEEN 1 AND 5)",
			"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
		},
		"create_orders_table": {
			"CREATE TABLE IF NOT EXISTS orders",
			"CREATE TABLE IF NOT EXISTS order_items",
			"PRIMARY KEY (order_id, product_id)",
			"CHECK (NOT is_delivered OR is_paid)",
			"DROP TABLE IF EXISTS order_items",
		},
	}

	for name, checks := range cases {
		t.Run(name, func(t *testing.T) {
			content := readMigration(t, name)
			for _, sub := range checks {
				require.Contains(t, content, sub)
			}
		})
	}
}

func TestValidateAcceptsEmbeddedMigrations(t *testing.T) {
	require.NoError(t, migrate.Validate(migrate.Migrations()))
}

func TestValidateRejectsBadFiles(t *testing.T) {
	cases := map[string]struct {
		files fstest.MapFS
		want  string
	}{
		"bad name": {
			files: fstest.MapFS{"init.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")}},
			want:  "invalid migration filename",
		},
		"missing down": {
			files: fstest.MapFS{"20250101000000_init.sql": {Data: []byte("-- +goose Up\n")}},
			want:  "goose Down",
		},
		"down first": {
			files: fstest.MapFS{"20250101000000_init.sql": {Data: []byte("-- +goose Down\n-- +goose Up\n")}},
			want:  "precedes",
		},
		"unbalanced": {
			files: fstest.MapFS{"20250101000000_init.sql": {Data: []byte("-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n")}},
			want:  "unbalanced",
		},
		"bad version": {
			files: fstest.MapFS{"20251399000000_init.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")}},
			want:  "malformed version",
		},
		"empty": {
			files: fstest.MapFS{},
			want:  "no migrations",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := migrate.Validate(tc.files)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestScaffoldSanitizesName(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := migrate.Scaffold(dir, "Add Product Banner!", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20250304050607_add_product_banner.sql"), path)
	require.NoError(t, migrate.Validate(os.DirFS(dir)))

	_, err = migrate.Scaffold(dir, "add product banner", now)
	require.Error(t, err, "same version and slug must not overwrite")

	_, err = migrate.Scaffold(dir, "!!!", now)
	require.Error(t, err)
}
