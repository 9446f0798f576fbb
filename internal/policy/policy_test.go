package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/majorcontext/scrub/internal/schema"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing policy: %v", err)
	}
	return path
}

func TestLoadPolicy(t *testing.T) {
	path := writePolicy(t, `
target_package: com.example.app

allow:
  - print

deny:
  - task_rename
  - sched_waking
`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.TargetPackage != "com.example.app" {
		t.Errorf("TargetPackage = %q, want %q", p.TargetPackage, "com.example.app")
	}

	allow := p.AllowNumbers()
	if len(allow) != 1 || allow[0] != schema.EventPrint {
		t.Errorf("AllowNumbers = %v, want [print]", allow)
	}

	deny := p.DenyNumbers()
	if len(deny) != 2 {
		t.Fatalf("DenyNumbers = %v, want 2 entries", deny)
	}
	if deny[0] != schema.EventTaskRename || deny[1] != schema.EventSchedWaking {
		t.Errorf("DenyNumbers = %v, want [task_rename sched_waking]", deny)
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	// A typo'd path must not degrade to the built-in allowlists: the deny
	// entries the caller wanted would silently never apply.
	path := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := Load(path)
	if err == nil {
		t.Fatal("loading a nonexistent policy should fail")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the path", err)
	}
}

func TestLoadPolicyUnknownEvent(t *testing.T) {
	path := writePolicy(t, `
allow:
  - sched_swich
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("unknown event name should fail validation")
	}
}

func TestLoadPolicyMalformedYAML(t *testing.T) {
	path := writePolicy(t, "allow: [unterminated")

	if _, err := Load(path); err == nil {
		t.Fatal("malformed yaml should fail")
	}
}
