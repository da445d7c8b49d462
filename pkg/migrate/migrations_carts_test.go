package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAbandonedCartsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_abandoned_carts.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no abandoned carts migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS abandoned_carts",
		"CONSTRAINT ux_abandoned_carts_cart_token UNIQUE (cart_token)",
		"CREATE INDEX IF NOT EXISTS ix_abandoned_carts_customer_id",
		"DROP TABLE IF EXISTS abandoned_carts",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCouponGrantsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_coupon_grants.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no coupon grants migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS coupon_grants",
		"CONSTRAINT ux_coupon_grants_code UNIQUE (code)",
		"CHECK (type IN ('percentage', 'fixed'))",
		"DROP TABLE IF EXISTS coupon_grants",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
