package treeops

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMergeToSymlinkEquivalenceSrcIsSymlink(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	mustMkdir(t, a)
	mustMkdir(t, b)

	if err := os.WriteFile(filepath.Join(b, "x"), []byte("real"), 0o644); err != nil {
		t.Fatal(err)
	}
	// a/x -> b/x (absolute, relative to root)
	if err := os.Symlink("/b/x", filepath.Join(a, "x")); err != nil {
		t.Fatal(err)
	}

	if err := MergeTo(a, b, MergeOptions{Root: root}); err != nil {
		t.Fatalf("MergeTo: %v", err)
	}

	if _, err := os.Lstat(filepath.Join(a, "x")); !os.IsNotExist(err) {
		t.Errorf("a/x should be gone, got err=%v", err)
	}
	data, err := os.ReadFile(filepath.Join(b, "x"))
	if err != nil || string(data) != "real" {
		t.Errorf("b/x should still be the real file, got data=%q err=%v", data, err)
	}
}

func TestMergeToSymlinkEquivalenceDstIsSymlink(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	mustMkdir(t, a)
	mustMkdir(t, b)

	if err := os.WriteFile(filepath.Join(a, "x"), []byte("real"), 0o644); err != nil {
		t.Fatal(err)
	}
	// b/x -> a/x
	if err := os.Symlink("/a/x", filepath.Join(b, "x")); err != nil {
		t.Fatal(err)
	}

	if err := MergeTo(a, b, MergeOptions{Root: root}); err != nil {
		t.Fatalf("MergeTo: %v", err)
	}

	info, err := os.Lstat(filepath.Join(b, "x"))
	if err != nil {
		t.Fatalf("b/x should exist: %v", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		t.Errorf("b/x should be the real moved file, not a symlink")
	}
	data, err := os.ReadFile(filepath.Join(b, "x"))
	if err != nil || string(data) != "real" {
		t.Errorf("b/x should contain the real data, got data=%q err=%v", data, err)
	}
}

func TestUsrMergeOrdering(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "usr", "local", "bin"))
	mustMkdir(t, filepath.Join(root, "usr", "bin"))
	mustMkdir(t, filepath.Join(root, "bin"))

	writeFile(t, filepath.Join(root, "usr", "local", "bin", "foo"), "foo")
	writeFile(t, filepath.Join(root, "usr", "bin", "bar"), "bar")

	if err := UsrMerge(root); err != nil {
		t.Fatalf("UsrMerge: %v", err)
	}

	for _, name := range []string{"foo", "bar"} {
		data, err := os.ReadFile(filepath.Join(root, "bin", name))
		if err != nil {
			t.Errorf("expected /bin/%s after usr-merge: %v", name, err)
			continue
		}
		if string(data) != name {
			t.Errorf("/bin/%s = %q, want %q", name, data, name)
		}
	}

	if _, err := os.Lstat(filepath.Join(root, "usr")); !os.IsNotExist(err) {
		t.Errorf("usr should be gone after merge, got err=%v", err)
	}
}

func TestCleanupIdempotent(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "dev"))
	mustMkdir(t, filepath.Join(root, "var", "cache"))
	writeFile(t, filepath.Join(root, "var", "cache", "x"), "x")
	writeFile(t, filepath.Join(root, "manifest.json"), "{}")
	mustMkdir(t, filepath.Join(root, "files"))
	writeFile(t, filepath.Join(root, "files", "keepme"), "keep")

	if err := Cleanup(root); err != nil {
		t.Fatalf("first Cleanup: %v", err)
	}
	if err := Cleanup(root); err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}

	for _, rel := range GarbageEntries {
		if _, err := os.Lstat(filepath.Join(root, rel)); !os.IsNotExist(err) {
			t.Errorf("%s should be gone, got err=%v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "files", "keepme")); err != nil {
		t.Errorf("files/keepme should survive cleanup: %v", err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
