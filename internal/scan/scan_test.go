package scan

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestListFlat_TopLevelFilesOnly(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/photos"

	touch(t, fs, filepath.Join(root, "b.jpg"))
	touch(t, fs, filepath.Join(root, "a.jpg"))
	touch(t, fs, filepath.Join(root, "2023-05", "old.jpg"))
	touch(t, fs, filepath.Join(root, ".hidden.jpg"))
	touch(t, fs, filepath.Join(root, ConfigFileName))

	got, err := ListFlat(fs, root)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 个文件，实际 %d：%+v", len(got), got)
	}
	if got[0].Name != "a.jpg" || got[1].Name != "b.jpg" {
		t.Fatalf("顺序不稳定：%q %q", got[0].Name, got[1].Name)
	}
	if got[0].AbsPath != filepath.Join(root, "a.jpg") {
		t.Fatalf("AbsPath 不正确：%q", got[0].AbsPath)
	}
}

func TestListFlat_MissingDirFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := ListFlat(fs, "/nope"); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func TestWalkRecursive_ExcludeDuplicates(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/photos"

	touch(t, fs, filepath.Join(root, "a.jpg"))
	touch(t, fs, filepath.Join(root, "trip", "b.jpg"))
	touch(t, fs, filepath.Join(root, "Duplicates", "a.jpg"))

	got, err := WalkRecursive(fs, root, nil, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 个文件，实际 %d：%+v", len(got), got)
	}
	if got[0].RelPath != "a.jpg" || got[1].RelPath != filepath.Join("trip", "b.jpg") {
		t.Fatalf("rel 不符合预期：%q %q", got[0].RelPath, got[1].RelPath)
	}
}

func TestWalkRecursive_ExcludeNestedDuplicates(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/photos"

	touch(t, fs, filepath.Join(root, "a.jpg"))
	touch(t, fs, filepath.Join(root, "sub", "Duplicates", "x.jpg"))
	touch(t, fs, filepath.Join(root, "sub", "y.jpg"))

	got, err := WalkRecursive(fs, root, nil, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("任意层级的 Duplicates 都应排除，期望 2 个文件，实际 %d：%+v", len(got), got)
	}
	for _, f := range got {
		if f.Name == "x.jpg" {
			t.Fatalf("sub/Duplicates 下的文件不应被枚举：%+v", f)
		}
	}
}

func TestWalkRecursive_ExcludeDirsFromConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/photos"

	touch(t, fs, filepath.Join(root, "temp", "A.jpg"))
	touch(t, fs, filepath.Join(root, "ok", "B.jpg"))

	got, err := WalkRecursive(fs, root, []string{"temp"}, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个文件，实际 %d", len(got))
	}
	wantRel := filepath.Join("ok", "B.jpg")
	if got[0].RelPath != wantRel {
		t.Fatalf("期望 rel=%q，实际=%q", wantRel, got[0].RelPath)
	}
}

func TestWalkRecursive_RootMissingFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := WalkRecursive(fs, "/nope", nil, nil); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func touch(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := afero.WriteFile(fs, path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
