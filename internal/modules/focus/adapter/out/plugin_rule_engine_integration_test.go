package out_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	out "focuslock/internal/modules/focus/adapter/out"
	"focuslock/internal/modules/focus/domain"
)

func TestPluginRuleEngineHostsFilePlugin(t *testing.T) {
	binPath := buildHostsPlugin(t)
	hostsPath := filepath.Join(t.TempDir(), "hosts")
	if err := os.WriteFile(hostsPath, []byte("127.0.0.1 localhost\n"), 0o644); err != nil {
		t.Fatalf("seed hosts: %v", err)
	}
	t.Setenv("FOCUSLOCK_HOSTS_FILE", hostsPath)

	engine := out.NewPluginRuleEngine(binPath, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	meta, err := engine.Check(ctx)
	if err != nil {
		t.Fatalf("check plugin: %v", err)
	}
	if meta.Name != "hostsfile" {
		t.Fatalf("unexpected plugin name: %s", meta.Name)
	}

	if err := engine.Update(ctx, nil, domain.BuildRules([]string{"youtube.com", "reddit.com"}, "/blocked")); err != nil {
		t.Fatalf("install rules: %v", err)
	}
	raw, _ := os.ReadFile(hostsPath)
	if !strings.Contains(string(raw), "0.0.0.0 reddit.com") {
		t.Fatalf("expected reddit.com entry:\n%s", raw)
	}

	if err := engine.Update(ctx, domain.RuleIDs(2), nil); err != nil {
		t.Fatalf("clear rules: %v", err)
	}
	raw, _ = os.ReadFile(hostsPath)
	if string(raw) != "127.0.0.1 localhost\n" {
		t.Fatalf("expected original hosts file, got:\n%s", raw)
	}
}

func buildHostsPlugin(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "hostsfile-plugin")
	cmd := exec.Command("go", "build", "-o", binPath, "./plugins/hostsfile")
	cmd.Dir = repositoryRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build hostsfile plugin: %v\n%s", err, string(out))
	}
	return binPath
}

func repositoryRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../../../../../"))
}
