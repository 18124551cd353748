package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ticpin-app/ticpin-backend/pkg/migrate"
)

func TestPromosMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_offers_and_coupons.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no offers/coupons migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS offers",
		"CREATE TABLE IF NOT EXISTS coupons",
		"CHECK (discount_type IN ('percent', 'flat'))",
		"CHECK (applies_to IN ('event', 'dining', 'play'))",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_coupons_code",
		"CHECK (used_count >= 0)",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
