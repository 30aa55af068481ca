// Package testdb opens in-memory sqlite databases carrying the storefront
// schema for repository and service tests.
package testdb

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var counter atomic.Int64

var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT 'NO_NAME',
		email TEXT NOT NULL UNIQUE,
		email_verified DATETIME,
		image TEXT,
		password TEXT,
		role TEXT NOT NULL DEFAULT 'user',
		address TEXT,
		payment_method TEXT,
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		images TEXT NOT NULL DEFAULT '{}',
		brand TEXT NOT NULL,
		description TEXT NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0,
		price NUMERIC NOT NULL DEFAULT 0,
		rating NUMERIC NOT NULL DEFAULT 0,
		num_reviews INTEGER NOT NULL DEFAULT 0,
		is_featured BOOLEAN NOT NULL DEFAULT 0,
		banner TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE carts (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		session_cart_id TEXT NOT NULL,
		items TEXT NOT NULL DEFAULT '[]',
		items_price NUMERIC NOT NULL,
		shipping_price NUMERIC NOT NULL,
		tax_price NUMERIC NOT NULL,
		total_price NUMERIC NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE reviews (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		is_verified_purchase BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (product_id, user_id)
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		shipping_address TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		payment_result TEXT,
		items_price NUMERIC NOT NULL,
		shipping_price NUMERIC NOT NULL,
		tax_price NUMERIC NOT NULL,
		total_price NUMERIC NOT NULL,
		is_paid BOOLEAN NOT NULL DEFAULT 0,
		paid_at DATETIME,
		is_delivered BOOLEAN NOT NULL DEFAULT 0,
		delivered_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE order_items (
		order_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		qty INTEGER NOT NULL,
		price NUMERIC NOT NULL,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		image TEXT NOT NULL,
		PRIMARY KEY (order_id, product_id)
	)`,
}

// Open returns a fresh database with every storefront table created. The
// pool is pinned to one connection so transactions serialize the way row
// locks would on Postgres.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, counter.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}
