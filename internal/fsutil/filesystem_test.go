package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_ReadFile(t *testing.T) {
	fs := OSFileSystem{}

	data, err := fs.ReadFile("filesystem.go")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if len(data) == 0 {
		t.Error("expected non-empty file content")
	}
}

func TestOSFileSystem_ListDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.nc", "a.nc"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	fs := OSFileSystem{}
	names, err := fs.ListDir(dir)
	if err != nil {
		t.Fatalf("ListDir failed: %v", err)
	}
	if len(names) != 2 || names[0] != "a.nc" || names[1] != "b.nc" {
		t.Errorf("ListDir = %v, want [a.nc b.nc]", names)
	}
}

func TestOSFileSystem_WalkMatch(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "daylight", "2008")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(nested, "A2008.153.1355.nc")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := OSFileSystem{}
	matches, err := fs.WalkMatch(root, "A2008.153.1355.nc")
	if err != nil {
		t.Fatalf("WalkMatch failed: %v", err)
	}
	if len(matches) != 1 || matches[0] != target {
		t.Errorf("WalkMatch = %v, want [%s]", matches, target)
	}

	matches, err = fs.WalkMatch(root, "A1999.001.0000.nc")
	if err != nil {
		t.Fatalf("WalkMatch failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("WalkMatch = %v, want empty", matches)
	}
}

func TestOSFileSystem_WalkMatch_MissingRoot(t *testing.T) {
	fs := OSFileSystem{}
	matches, err := fs.WalkMatch(filepath.Join(t.TempDir(), "absent"), "a.nc")
	if err != nil {
		t.Fatalf("WalkMatch on missing root failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("WalkMatch = %v, want empty", matches)
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("hello, world")
	err := mfs.WriteFile("/test.txt", testData, 0644)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/test.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}
}

func TestMemoryFileSystem_ReadMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.ReadFile("/missing.txt"); err == nil {
		t.Error("expected error reading missing file")
	}
	if _, err := mfs.Open("/missing.txt"); err == nil {
		t.Error("expected error opening missing file")
	}
}

func TestMemoryFileSystem_Exists(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if mfs.Exists("/nope") {
		t.Error("unexpected existence")
	}

	if err := mfs.MkdirAll("/out/daylight", 0o755); err != nil {
		t.Fatal(err)
	}
	if !mfs.Exists("/out/daylight") || !mfs.Exists("/out") {
		t.Error("MkdirAll should create the full chain")
	}

	if err := mfs.WriteFile("/out/daylight/f.nc", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !mfs.Exists("/out/daylight/f.nc") {
		t.Error("written file should exist")
	}
}

func TestMemoryFileSystem_ListDir(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("/geo/b.nc", []byte("x"), 0o644)
	mfs.WriteFile("/geo/a.nc", []byte("x"), 0o644)
	mfs.WriteFile("/geo/sub/c.nc", []byte("x"), 0o644)

	names, err := mfs.ListDir("/geo")
	if err != nil {
		t.Fatalf("ListDir failed: %v", err)
	}
	if len(names) != 2 || names[0] != "a.nc" || names[1] != "b.nc" {
		t.Errorf("ListDir = %v, want [a.nc b.nc]", names)
	}

	if _, err := mfs.ListDir("/absent"); err == nil {
		t.Error("expected error listing missing dir")
	}
}

func TestMemoryFileSystem_WalkMatch(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("/out/night/A2008.153.1355.nc", []byte("x"), 0o644)
	mfs.WriteFile("/out/daylight/other.nc", []byte("x"), 0o644)
	mfs.WriteFile("/elsewhere/A2008.153.1355.nc", []byte("x"), 0o644)

	matches, err := mfs.WalkMatch("/out", "A2008.153.1355.nc")
	if err != nil {
		t.Fatalf("WalkMatch failed: %v", err)
	}
	if len(matches) != 1 || matches[0] != "/out/night/A2008.153.1355.nc" {
		t.Errorf("WalkMatch = %v", matches)
	}
}

func TestMemoryFileSystem_StatDirAndFile(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.MkdirAll("/d", 0o755)
	mfs.WriteFile("/d/f", []byte("abc"), 0o600)

	info, err := mfs.Stat("/d")
	if err != nil || !info.IsDir() {
		t.Errorf("Stat dir = %v, %v", info, err)
	}

	info, err = mfs.Stat("/d/f")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 3 || info.IsDir() {
		t.Errorf("Stat file = size %d isDir %v", info.Size(), info.IsDir())
	}
}
