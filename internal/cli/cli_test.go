package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-listings-backend/internal/config"
	"github.com/tbourn/go-listings-backend/internal/domain"
	"github.com/tbourn/go-listings-backend/internal/services"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func useTempDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "listings.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ROTATION_CONFIG_FILE", "")
}

func TestVersion(t *testing.T) {
	SetVersionInfo("1.4.0", "abc123", "2024-06-01")
	t.Cleanup(func() { SetVersionInfo("dev", "none", "unknown") })

	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if want := "listings 1.4.0 (commit: abc123, built: 2024-06-01)"; !strings.Contains(out, want) {
		t.Fatalf("output = %q; want %q", out, want)
	}
}

func TestSeedThenPreview(t *testing.T) {
	useTempDB(t)
	t.Setenv("ROTATION_SEED", "7")

	out, err := run(t, "seed", "--featured", "3", "--standard", "7")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "inserted 10 published listings") {
		t.Fatalf("seed output = %q", out)
	}

	out, err = run(t, "preview")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	var rot services.RotatedListings
	if err := json.Unmarshal([]byte(out), &rot); err != nil {
		t.Fatalf("preview output is not JSON: %v\n%s", err, out)
	}
	if len(rot.Featured) != 2 || len(rot.Hot) != 1 || len(rot.Regular) != 6 {
		t.Fatalf("tiers = %d/%d/%d; want 2/1/6", len(rot.Featured), len(rot.Hot), len(rot.Regular))
	}
	if rot.Stale {
		t.Fatal("fresh preview reported stale")
	}

	// Same seed, same database: same rotation.
	again, err := run(t, "preview")
	if err != nil {
		t.Fatalf("preview again: %v", err)
	}
	var rot2 services.RotatedListings
	if err := json.Unmarshal([]byte(again), &rot2); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range rot.Featured {
		if rot.Featured[i].ID != rot2.Featured[i].ID {
			t.Fatalf("seeded previews differ: %v vs %v", rot.Featured, rot2.Featured)
		}
	}
}

func TestPreview_EmptyDatabase(t *testing.T) {
	useTempDB(t)

	out, err := run(t, "preview")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	var rot services.RotatedListings
	if err := json.Unmarshal([]byte(out), &rot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rot.Featured)+len(rot.Hot)+len(rot.Regular) != 0 {
		t.Fatalf("expected empty tiers, got %+v", rot)
	}
}

func TestCommands_ConfigErrors(t *testing.T) {
	useTempDB(t)
	t.Setenv("DB_DRIVER", "mysql")

	for _, cmd := range []string{"preview", "seed"} {
		if _, err := run(t, cmd); err == nil || !strings.Contains(err.Error(), "DB_DRIVER") {
			t.Fatalf("%s: err = %v; want DB_DRIVER validation error", cmd, err)
		}
	}
}

func TestSeed_RejectsNegativeCounts(t *testing.T) {
	useTempDB(t)
	if _, err := run(t, "seed", "--featured", "-1"); err == nil {
		t.Fatal("expected error for negative --featured")
	}
}

func TestNewServer_UsesConfig(t *testing.T) {
	cfg := config.Config{
		Port:              "9090",
		ReadTimeout:       time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      3 * time.Second,
		IdleTimeout:       4 * time.Second,
		MaxHeaderBytes:    512,
	}
	srv := newServer(cfg, nil)
	if srv.Addr != ":9090" {
		t.Fatalf("Addr = %q", srv.Addr)
	}
	if srv.ReadTimeout != time.Second || srv.ReadHeaderTimeout != 2*time.Second ||
		srv.WriteTimeout != 3*time.Second || srv.IdleTimeout != 4*time.Second || srv.MaxHeaderBytes != 512 {
		t.Fatalf("server timeouts not taken from config: %+v", srv)
	}
}

func TestStats_ReportsInventory(t *testing.T) {
	useTempDB(t)

	if _, err := run(t, "seed", "--featured", "2", "--standard", "3"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out, err := run(t, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"published", "published featured  2", "published standard  3", "rotation tiers"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats output missing %q:\n%s", want, out)
		}
	}
}

func previewRotation(t *testing.T, args ...string) services.RotatedListings {
	t.Helper()
	out, err := run(t, append([]string{"preview"}, args...)...)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	var rot services.RotatedListings
	if err := json.Unmarshal([]byte(out), &rot); err != nil {
		t.Fatalf("decode preview: %v\n%s", err, out)
	}
	return rot
}

func TestSeed_StatusFlagKeepsRowsOutOfRotation(t *testing.T) {
	useTempDB(t)

	out, err := run(t, "seed", "--featured", "2", "--standard", "4", "--status", " Draft ")
	if err != nil {
		t.Fatalf("seed drafts: %v", err)
	}
	if !strings.Contains(out, "inserted 6 draft listings (0 published in total)") {
		t.Fatalf("seed output = %q", out)
	}

	rot := previewRotation(t)
	if n := len(rot.Featured) + len(rot.Hot) + len(rot.Regular); n != 0 {
		t.Fatalf("draft listings reached the rotation: %+v", rot)
	}

	out, err = run(t, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "draft") || !strings.Contains(out, "published featured  0") {
		t.Fatalf("stats output:\n%s", out)
	}
}

func TestSeed_RejectsUnknownStatus(t *testing.T) {
	useTempDB(t)
	_, err := run(t, "seed", "--status", "sold")
	if !errors.Is(err, domain.ErrUnknownStatus) {
		t.Fatalf("err = %v; want ErrUnknownStatus", err)
	}
}

func TestSetStatus_PublishesAndArchives(t *testing.T) {
	useTempDB(t)

	if _, err := run(t, "seed", "--featured", "0", "--standard", "1", "--status", "pending"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Find the id through a fresh bootstrap of the same database.
	a, err := bootstrap(context.Background())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	var l domain.Listing
	if err := a.db.First(&l).Error; err != nil {
		t.Fatalf("load seeded listing: %v", err)
	}
	a.close()

	out, err := run(t, "set-status", l.ID, "PUBLISHED")
	if err != nil {
		t.Fatalf("set-status: %v", err)
	}
	if !strings.Contains(out, l.ID+": pending -> published") {
		t.Fatalf("set-status output = %q", out)
	}
	if rot := previewRotation(t); len(rot.Regular) != 1 || rot.Regular[0].ID != l.ID {
		t.Fatalf("published listing missing from rotation: %+v", rot)
	}

	out, err = run(t, "set-status", l.ID, "published")
	if err != nil || !strings.Contains(out, "already published") {
		t.Fatalf("repeat set-status: %q, %v", out, err)
	}

	if _, err := run(t, "set-status", l.ID, "archived"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if rot := previewRotation(t); len(rot.Regular) != 0 {
		t.Fatalf("archived listing still rotated: %+v", rot)
	}
}

func TestSetStatus_Errors(t *testing.T) {
	useTempDB(t)

	if _, err := run(t, "set-status", "missing-id", "published"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("unknown id: err = %v", err)
	}
	if _, err := run(t, "set-status", "any", "sold"); !errors.Is(err, domain.ErrUnknownStatus) {
		t.Fatalf("unknown status: err = %v", err)
	}
	if _, err := run(t, "set-status", "only-one-arg"); err == nil {
		t.Fatal("expected arg count error")
	}
}

func TestDSNFlagOverridesConfiguredPath(t *testing.T) {
	useTempDB(t)
	other := filepath.Join(t.TempDir(), "other.db")

	if _, err := run(t, "--dsn", other, "seed", "--featured", "1", "--standard", "0"); err != nil {
		t.Fatalf("seed into --dsn: %v", err)
	}
	// The configured database stays empty; the flagged one has the row.
	if rot := previewRotation(t); len(rot.Featured) != 0 {
		t.Fatalf("configured db unexpectedly seeded: %+v", rot)
	}
	if rot := previewRotation(t, "--dsn", other); len(rot.Featured) != 1 {
		t.Fatalf("--dsn db rotation = %+v", rot)
	}
}
