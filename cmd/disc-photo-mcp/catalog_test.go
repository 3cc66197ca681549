package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCatalogCmd(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t)

	t.Run("type filter", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, "catalog", "--config", cfg, "--type", "Putter")
		if err != nil {
			t.Fatalf("catalog failed: %v", err)
		}
		if !strings.HasPrefix(out, "ID") || !strings.Contains(out, "Aviar") {
			t.Errorf("unexpected output: %s", out)
		}
		if strings.Contains(out, "Destroyer") {
			t.Errorf("type filter leaked a driver: %s", out)
		}
	})

	t.Run("search", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, "catalog", "--config", cfg, "--json", "-s", "roc")
		if err != nil {
			t.Fatalf("catalog failed: %v", err)
		}
		var discs []map[string]interface{}
		if err := json.Unmarshal([]byte(out), &discs); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(discs) == 0 || discs[0]["name"] != "Roc3" {
			t.Errorf("unexpected discs: %v", discs)
		}
	})

	t.Run("manufacturers", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, "catalog", "--config", cfg, "--manufacturers")
		if err != nil {
			t.Fatalf("catalog failed: %v", err)
		}
		for _, want := range []string{"Discraft", "Dynamic Discs", "Innova"} {
			if !strings.Contains(out, want+"\n") {
				t.Errorf("expected %s in %q", want, out)
			}
		}
	})
}
