package pricing

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRateFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rates.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write rate file: %v", err)
	}
	return path
}

func TestLoadRateTable_EmptyPathUsesDefaults(t *testing.T) {
	table, err := LoadRateTable("")
	if err != nil {
		t.Fatalf("LoadRateTable: %v", err)
	}
	if got := table.Tier("3").FlatRate; got != 5_000_000 {
		t.Fatalf("tier 3 flat = %d", got)
	}
}

func TestLoadRateTable_OverridesAndAdds(t *testing.T) {
	path := writeRateFile(t, `
default:
  flat_rate: 750000
  flat_distance: 10
  rate_per_km_extra: 20000
tiers:
  "3":
    flat_rate: 6000000
    flat_distance: 25
    rate_per_km_extra: 50000
  "4":
    flat_rate: 3000000
    flat_distance: 15
    rate_per_km_extra: 35000
`)
	table, err := LoadRateTable(path)
	if err != nil {
		t.Fatalf("LoadRateTable: %v", err)
	}

	if q := table.Quote("unknown", 12); q.Fee.Amount != 750_000+2*20_000 {
		t.Errorf("default quote = %d", q.Fee.Amount)
	}
	if q := table.Quote("3", 26); q.Fee.Amount != 6_050_000 {
		t.Errorf("tier 3 quote = %d", q.Fee.Amount)
	}
	if q := table.Quote("4", 15); q.Fee.Amount != 3_000_000 {
		t.Errorf("tier 4 quote = %d", q.Fee.Amount)
	}
	// Tier 1 was not in the file and keeps its built-in rate.
	if q := table.Quote("1", 20); q.Fee.Amount != 2_500_000 {
		t.Errorf("tier 1 quote = %d", q.Fee.Amount)
	}
}

func TestLoadRateTable_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadRateTable(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("bad yaml", func(t *testing.T) {
		if _, err := LoadRateTable(writeRateFile(t, "tiers: [1, 2")); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("negative rate", func(t *testing.T) {
		path := writeRateFile(t, "tiers:\n  \"1\":\n    flat_rate: -5\n")
		if _, err := LoadRateTable(path); err == nil {
			t.Fatal("expected error")
		}
	})
}
