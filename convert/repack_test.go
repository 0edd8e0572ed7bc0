package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRepackArchive(t *testing.T) {
	source := []zipEntry{
		{"app.json", `{"pages":["pages/index"]}`},
		{"app.wxss", "page { font-size: .28rem }"},
		{"pages/index.wxss", ".title { margin: 1rem 0 }"},
		{"pages/broken.wxss", ".title { margin: 1rem"},
		{"images/logo.png", "\x89PNG\r\n\x1a\n"},
	}

	tests := []struct {
		name string
		path string
		want []zipEntry
	}{
		{
			name: "whole archive",
			want: []zipEntry{
				{"app.json", `{"pages":["pages/index"]}`},
				{"app.wxss", "page { font-size: 28rpx }"},
				{"pages/index.wxss", ".title { margin: 100rpx 0 }"},
				{"pages/broken.wxss", ".title { margin: 1rem"},
				{"images/logo.png", "\x89PNG\r\n\x1a\n"},
			},
		},
		{
			name: "path inside archive",
			path: "pages",
			want: []zipEntry{
				{"app.json", `{"pages":["pages/index"]}`},
				{"app.wxss", "page { font-size: .28rem }"},
				{"pages/index.wxss", ".title { margin: 100rpx 0 }"},
				{"pages/broken.wxss", ".title { margin: 1rem"},
				{"images/logo.png", "\x89PNG\r\n\x1a\n"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, env := setupTestEnv(t)
			env.Repack = true
			srcDir, dstDir := t.TempDir(), t.TempDir()
			zipPath := filepath.Join(srcDir, "miniapp.zip")
			writeZip(t, zipPath, source...)

			src := zipPath
			if tt.path != "" {
				src = filepath.Join(zipPath, tt.path)
			}
			if err := process(ctx, src, dstDir, testLogger(t)); err != nil {
				t.Fatalf("process() error = %v", err)
			}

			got := readZip(t, filepath.Join(dstDir, "miniapp.zip"))
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(zipEntry{})); diff != "" {
				t.Errorf("repacked archive mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(source, readZip(t, zipPath), cmp.AllowUnexported(zipEntry{})); diff != "" {
				t.Errorf("source archive modified (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRepackArchive_InPlace(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Repack = true
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "miniapp.zip")
	writeZip(t, zipPath, zipEntry{"app.wxss", "page{margin:1rem}"})

	// refuses to replace existing file unless asked to
	if err := repackArchive(ctx, zipPath, "", "", dir, testLogger(t)); err == nil {
		t.Fatal("repackArchive() expected error for existing output")
	}

	env.Overwrite = true
	if err := repackArchive(ctx, zipPath, "", "", dir, testLogger(t)); err != nil {
		t.Fatalf("repackArchive() error = %v", err)
	}

	want := []zipEntry{{"app.wxss", "page{margin:100rpx}"}}
	if diff := cmp.Diff(want, readZip(t, zipPath), cmp.AllowUnexported(zipEntry{})); diff != "" {
		t.Errorf("repacked archive mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestRepackArchive_UnsafePath(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Repack = true
	srcDir, dstDir := t.TempDir(), t.TempDir()
	zipPath := filepath.Join(srcDir, "evil.zip")
	writeZip(t, zipPath, zipEntry{"ok.wxss", "a{}"}, zipEntry{"../escape.wxss", "a{}"})

	if err := repackArchive(ctx, zipPath, "", "", dstDir, testLogger(t)); err == nil {
		t.Fatal("repackArchive() expected error for unsafe archive")
	}
	if entries, _ := os.ReadDir(dstDir); len(entries) != 0 {
		t.Errorf("output left behind: %v", entries)
	}
}
