package mover

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/John-Robertt/sortfiles/internal/domain"
	"github.com/John-Robertt/sortfiles/internal/infra/fsx"
)

const root = "/photos"

var may2023 = domain.Placement{Kind: domain.DateBucket, Date: domain.CaptureDate{Year: 2023, Month: 5, Day: 10}}

func TestExecute_CreatesFolderOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, filepath.Join(root, "a.jpg"))
	touch(t, fs, filepath.Join(root, "b.jpg"))
	m := New(fs, root, fsx.ConflictSuffix, false)

	r1, err := m.Execute(may2023, filepath.Join(root, "a.jpg"))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !r1.Moved || !r1.FolderCreated {
		t.Fatalf("第一次应新建目录并移动：%+v", r1)
	}
	if r1.Dst != filepath.Join(root, "2023-05", "a.jpg") {
		t.Fatalf("目标路径不正确：%q", r1.Dst)
	}

	r2, err := m.Execute(may2023, filepath.Join(root, "b.jpg"))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !r2.Moved || r2.FolderCreated {
		t.Fatalf("第二次目录已存在，不应计为新建：%+v", r2)
	}
	mustExist(t, fs, filepath.Join(root, "2023-05", "b.jpg"))
	mustNotExist(t, fs, filepath.Join(root, "a.jpg"))
}

func TestExecute_ExistingFolderNotCounted(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, filepath.Join(root, "a.jpg"))
	if err := fs.MkdirAll(filepath.Join(root, "NO EXIF"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	r, err := New(fs, root, "", false).Execute(domain.Placement{Kind: domain.NoMetadataBucket}, filepath.Join(root, "a.jpg"))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if r.FolderCreated {
		t.Fatalf("已存在的目录不应计为新建")
	}
	mustExist(t, fs, filepath.Join(root, "NO EXIF", "a.jpg"))
}

func TestExecute_NoMoveIsNoOp(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, filepath.Join(root, "a.jpg"))

	r, err := New(fs, root, "", false).Execute(domain.Placement{Kind: domain.NoMove}, filepath.Join(root, "a.jpg"))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if r.Moved || r.FolderCreated || r.Dst != "" {
		t.Fatalf("NoMove 不应有任何动作：%+v", r)
	}
	mustExist(t, fs, filepath.Join(root, "a.jpg"))
}

func TestExecute_SuffixOnConflict(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, filepath.Join(root, "a.jpg"))
	touch(t, fs, filepath.Join(root, "Duplicates", "a.jpg"))

	r, err := New(fs, root, fsx.ConflictSuffix, false).Execute(domain.Placement{Kind: domain.DuplicateBucket}, filepath.Join(root, "a.jpg"))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if r.Dst != filepath.Join(root, "Duplicates", "a__2.jpg") {
		t.Fatalf("期望追加 __2 后缀，实际 %q", r.Dst)
	}
	mustExist(t, fs, filepath.Join(root, "Duplicates", "a.jpg"))
	mustExist(t, fs, filepath.Join(root, "Duplicates", "a__2.jpg"))
}

func TestExecute_FailOnConflict(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, filepath.Join(root, "a.jpg"))
	touch(t, fs, filepath.Join(root, "2023-05", "a.jpg"))

	_, err := New(fs, root, fsx.ConflictFail, false).Execute(may2023, filepath.Join(root, "a.jpg"))
	if !fsx.IsMoveConflict(err) {
		t.Fatalf("期望 MoveConflictError，实际：%v", err)
	}
	mustExist(t, fs, filepath.Join(root, "a.jpg"))
}

func TestExecute_TargetIsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, filepath.Join(root, "a.jpg"))
	touch(t, fs, filepath.Join(root, "2023-05"))

	_, err := New(fs, root, "", false).Execute(may2023, filepath.Join(root, "a.jpg"))
	if !fsx.IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%v", err)
	}
}

func TestExecute_RenameFailureStillReportsFolder(t *testing.T) {
	mem := afero.NewMemMapFs()
	touch(t, mem, filepath.Join(root, "a.jpg"))
	boom := errors.New("boom")
	fs := renameFailFs{Fs: mem, err: boom}

	r, err := New(fs, root, "", false).Execute(may2023, filepath.Join(root, "a.jpg"))
	if !errors.Is(err, boom) {
		t.Fatalf("期望 rename 错误透传，实际：%v", err)
	}
	if !r.FolderCreated || r.Moved {
		t.Fatalf("目录已新建但文件未移动：%+v", r)
	}
}

func TestExecute_DryRunTouchesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, filepath.Join(root, "x", "a.jpg"))
	touch(t, fs, filepath.Join(root, "y", "a.jpg"))
	m := New(fs, root, fsx.ConflictSuffix, true)
	dup := domain.Placement{Kind: domain.DuplicateBucket}

	r1, err := m.Execute(dup, filepath.Join(root, "x", "a.jpg"))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	r2, err := m.Execute(dup, filepath.Join(root, "y", "a.jpg"))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !r1.FolderCreated || r2.FolderCreated {
		t.Fatalf("dry-run 下目录“新建”也只应计一次：%+v %+v", r1, r2)
	}
	if r1.Dst != filepath.Join(root, "Duplicates", "a.jpg") || r2.Dst != filepath.Join(root, "Duplicates", "a__2.jpg") {
		t.Fatalf("dry-run 的目标分配应与真实执行一致：%q %q", r1.Dst, r2.Dst)
	}
	mustNotExist(t, fs, filepath.Join(root, "Duplicates"))
	mustExist(t, fs, filepath.Join(root, "x", "a.jpg"))
}

func TestRename_InPlace(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, filepath.Join(root, "a(1).jpg"))
	touch(t, fs, filepath.Join(root, "a1.jpg"))
	m := New(fs, root, fsx.ConflictSuffix, false)

	r, err := m.Rename(filepath.Join(root, "a(1).jpg"), "a1.jpg")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if r.Dst != filepath.Join(root, "a1__2.jpg") {
		t.Fatalf("同名冲突应追加后缀，实际 %q", r.Dst)
	}

	r, err = m.Rename(filepath.Join(root, "a1.jpg"), "a1.jpg")
	if err != nil || r.Moved {
		t.Fatalf("名字未变化应为 NoOp：%+v %v", r, err)
	}
}

type renameFailFs struct {
	afero.Fs
	err error
}

func (f renameFailFs) Rename(oldname, newname string) error { return f.err }

func touch(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := afero.WriteFile(fs, path, []byte(path), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

func mustExist(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	if _, err := fs.Stat(path); err != nil {
		t.Fatalf("期望存在：%q（%v）", path, err)
	}
}

func mustNotExist(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	if _, err := fs.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("期望不存在：%q（err=%v）", path, err)
	}
}
