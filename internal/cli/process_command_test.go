package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imgseo/internal/model"
	"imgseo/internal/profile"
)

func TestRunUnknownCommand(t *testing.T) {
	err := Run([]string{"transmogrify"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("err = %v, want unknown command", err)
	}
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	if err := Run(nil); err != nil {
		t.Fatalf("bare invocation should not error: %v", err)
	}
}

func TestApplyTriState(t *testing.T) {
	cases := []struct {
		raw     string
		initial bool
		want    bool
		wantErr bool
	}{
		{"auto", true, true, false},
		{"", false, false, false},
		{"yes", false, true, false},
		{"no", true, false, false},
		{"y", false, true, false},
		{"n", true, false, false},
		{"maybe", true, true, true},
	}
	for _, tc := range cases {
		v := tc.initial
		err := applyTriState(&v, tc.raw, "--flag")
		if tc.wantErr {
			if err == nil {
				t.Errorf("applyTriState(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("applyTriState(%q): %v", tc.raw, err)
			continue
		}
		if v != tc.want {
			t.Errorf("applyTriState(%q) = %v, want %v", tc.raw, v, tc.want)
		}
	}
}

func TestLoadProcessProfile_AdHocFromPositionals(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")
	p, err := loadProcessProfile(missing, []string{"a.jpg", "b.png"})
	if err != nil {
		t.Fatalf("loadProcessProfile: %v", err)
	}
	if len(p.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(p.Items))
	}
	// Ad-hoc batches inherit the stock policy.
	if !p.Config.ConvertToJPEG || !p.Config.MakeWebp {
		t.Fatalf("stock policy not applied: %+v", p.Config)
	}
}

func TestLoadProcessProfile_MissingWithoutPositionals(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")
	if _, err := loadProcessProfile(missing, nil); err == nil {
		t.Fatal("expected error for missing profile with no sources")
	}
}

func TestLoadProcessProfile_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgseo.json")
	p := profile.New()
	p.Items = append(p.Items, model.NewWorkItem("x.jpg"))
	if err := profile.Save(path, p); err != nil {
		t.Fatal(err)
	}

	loaded, err := loadProcessProfile(path, []string{"y.png"})
	if err != nil {
		t.Fatalf("loadProcessProfile: %v", err)
	}
	if len(loaded.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(loaded.Items))
	}
}

func TestProfileInitAndShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgseo.json")

	if err := runProfile([]string{"init", "--profile", path, "--out", "optimizadas"}); err != nil {
		t.Fatalf("profile init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("profile file missing: %v", err)
	}
	// Second init without --force must refuse to clobber.
	if err := runProfile([]string{"init", "--profile", path}); err == nil {
		t.Fatal("expected error re-initializing existing profile")
	}

	loaded, err := profile.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.OutputDir != "optimizadas" {
		t.Fatalf("output dir = %q, want optimizadas", loaded.OutputDir)
	}
	if err := runProfile([]string{"show", "--profile", path, "--json"}); err != nil {
		t.Fatalf("profile show: %v", err)
	}
}
