package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// writeDataset creates a dataset with one annotated image and returns its root.
func writeDataset(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "Foodinc")

	writeFile(t, filepath.Join(root, "infos", "categories.txt"), "apple\nbanana\n")
	writeFile(t, filepath.Join(root, "Annotations", "a.txt"), "2 1 2 3 4\n")

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6))); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "Images", "a.png"), buf.String())

	return root
}

func TestParseArgs(t *testing.T) {
	var out bytes.Buffer
	args, err := parseArgs([]string{"-workers", "3", "/data/set", "-force",
		"-map-labels", "a=b,c=d"}, &out)
	if err != nil {
		t.Fatal(err)
	}

	if args.dataset != "/data/set" {
		t.Errorf("Got dataset %q", args.dataset)
	}
	if args.flags.Workers != 3 || !args.flags.Force {
		t.Errorf("Got flags %+v", args.flags)
	}
	if len(args.flags.MapLabels) != 2 || args.flags.MapLabels[1] != "c=d" {
		t.Errorf("Got map labels %q", args.flags.MapLabels)
	}
	if len(args.set) != 3 {
		t.Errorf("Got set flags %q", args.set)
	}
}

func TestParseArgsPositional(t *testing.T) {
	for _, argv := range [][]string{{"-force"}, {"a", "b"}} {
		var out bytes.Buffer
		if _, err := parseArgs(argv, &out); err == nil {
			t.Errorf("parseArgs(%q) succeeded", argv)
		}
	}
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txt2voc.yaml")
	writeFile(t, path, "owner: FromFile\ndatabase: FromFile\n")

	var out bytes.Buffer
	args, err := parseArgs([]string{"-config", path, "-owner", "FromFlag", "/data/set"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("TXT2VOC_OWNER", "FromEnv")

	cfg, err := loadConfig(args)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Owner != "FromFlag" || cfg.Database != "FromFile" {
		t.Errorf("Got owner %q, database %q", cfg.Owner, cfg.Database)
	}
}

func TestRun(t *testing.T) {
	root := writeDataset(t)
	ctx := context.Background()

	var stdout, stderr bytes.Buffer
	if code := run(ctx, []string{"-log-level", "error", root}, nil, &stdout, &stderr); code != exitOK {
		t.Fatalf("Got exit code %d: %s", code, stderr.String())
	}

	data, err := os.ReadFile(filepath.Join(root, "Annotations_XML", "a.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<name>banana</name>") {
		t.Errorf("Unexpected output:\n%s", data)
	}

	// The output directory exists now.
	stderr.Reset()
	if code := run(ctx, []string{root}, nil, &stdout, &stderr); code != exitError {
		t.Errorf("Got exit code %d for an existing output directory", code)
	}
	if code := run(ctx, []string{"-force", root}, nil, &stdout, &stderr); code != exitOK {
		t.Errorf("Got exit code %d with -force: %s", code, stderr.String())
	}

	stdout.Reset()
	stdin := strings.NewReader("y\n")
	if code := run(ctx, []string{"-interactive", root}, stdin, &stdout, &stderr); code != exitOK {
		t.Errorf("Got exit code %d after confirming: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "The directory Annotations_XML already exists.") {
		t.Errorf("Got prompt %q", stdout.String())
	}

	stdin = strings.NewReader("n\n")
	if code := run(ctx, []string{"-interactive", root}, stdin, &stdout, &stderr); code != exitError {
		t.Errorf("Got exit code %d after declining", code)
	}
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	missing := filepath.Join(t.TempDir(), "missing")

	tests := []struct {
		name string
		argv []string
		want int
	}{
		{"no arguments", nil, exitError},
		{"help", []string{"-h"}, exitOK},
		{"unknown flag", []string{"-bogus", "x"}, exitError},
		{"missing dataset", []string{missing}, exitError},
		{"missing config", []string{"-config", filepath.Join(missing, "c.yaml"), missing}, exitError},
		{"invalid config", []string{"-workers", "0", missing}, exitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(ctx, tt.argv, nil, &stdout, &stderr); code != tt.want {
				t.Errorf("Got exit code %d, want %d: %s", code, tt.want, stderr.String())
			}
		})
	}
}

func TestRunMissingDatasetMessage(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	var stdout, stderr bytes.Buffer
	run(context.Background(), []string{missing}, nil, &stdout, &stderr)

	if !strings.Contains(stderr.String(), "can't find the dataset") {
		t.Errorf("Got %q", stderr.String())
	}
}
