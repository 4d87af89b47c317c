package mover

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/John-Robertt/sortfiles/internal/domain"
	"github.com/John-Robertt/sortfiles/internal/infra/fsx"
)

// Result 是单个文件的执行结果。
type Result struct {
	// Dst 是最终路径（绝对路径）；NoOp 时为空。
	Dst   string
	Moved bool
	// FolderCreated 只在目标目录由本次调用新建时为 true（已存在的目录不计数）。
	// 即使随后的 rename 失败，目录已经建出来了，仍然为 true。
	FolderCreated bool
}

// Mover 把 planner 的决定落到文件系统上。
//
// 约束：
// - 目标目录都在 Root 之下（Root 即本次 run 的 source root）
// - 同名冲突按 Conflict 处理：suffix 追加 "__N"，fail 直接报错；任何情况下都不覆盖已有文件
// - 跨盘（EXDEV）直接失败，不做 copy+delete
// - 错误按文件返回，由 run 决定跳过并记录
//
// DryRun 时不落盘：用内存记录“本次 run 将会创建的目录/占用的文件名”，保证预演与真实执行的结果一致。
// Mover 只属于一次 run，不可并发使用。
type Mover struct {
	FS       afero.Fs
	Root     string
	Conflict fsx.ConflictPolicy
	DryRun   bool

	plannedDirs  map[string]struct{}
	plannedNames map[string]struct{}
}

func New(fs afero.Fs, root string, conflict fsx.ConflictPolicy, dryRun bool) *Mover {
	if conflict == "" {
		conflict = fsx.ConflictSuffix
	}
	return &Mover{
		FS:           fs,
		Root:         filepath.Clean(root),
		Conflict:     conflict,
		DryRun:       dryRun,
		plannedDirs:  map[string]struct{}{},
		plannedNames: map[string]struct{}{},
	}
}

// Execute 执行一个 Placement：NoMove 不做任何文件系统操作，其余移动到 Root/<Folder>/ 下。
func (m *Mover) Execute(p domain.Placement, src string) (Result, error) {
	folder := p.Folder()
	if p.Kind == domain.NoMove || folder == "" {
		return Result{}, nil
	}

	dir := filepath.Join(m.Root, folder)
	created, err := m.ensureDir(dir)
	if err != nil {
		return Result{}, err
	}

	dst, err := m.target(dir, filepath.Base(src), src)
	if err != nil {
		return Result{FolderCreated: created}, err
	}
	if err := m.rename(src, dst); err != nil {
		return Result{FolderCreated: created}, err
	}
	return Result{Dst: dst, Moved: true, FolderCreated: created}, nil
}

// Rename 在原目录内把 src 改名为 newName，冲突策略与 Execute 相同。
// newName 与当前名字相同：NoOp。
func (m *Mover) Rename(src, newName string) (Result, error) {
	if newName == filepath.Base(src) {
		return Result{}, nil
	}
	dst, err := m.target(filepath.Dir(src), newName, src)
	if err != nil {
		return Result{}, err
	}
	if err := m.rename(src, dst); err != nil {
		return Result{}, err
	}
	return Result{Dst: dst, Moved: true}, nil
}

func (m *Mover) ensureDir(dir string) (bool, error) {
	if !m.DryRun {
		return fsx.EnsureDir(m.FS, dir)
	}
	if _, ok := m.plannedDirs[dir]; ok {
		return false, nil
	}
	fi, err := m.FS.Stat(dir)
	if err == nil {
		if !fi.IsDir() {
			return false, &fsx.PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	m.plannedDirs[dir] = struct{}{}
	return true, nil
}

// target 为 name 在 dir 下选一个不冲突的目标路径。
// 注意：检查与 rename 之间存在窗口期；run 期间假定独占 source root。
func (m *Mover) target(dir, name, src string) (string, error) {
	var statErr error
	used := func(n string) bool {
		p := filepath.Join(dir, n)
		if _, ok := m.plannedNames[p]; ok {
			return true
		}
		ok, err := fsx.Exists(m.FS, p)
		if err != nil {
			// 无法确认是否存在：停止分配，由下面统一报错。
			statErr = err
			return false
		}
		return ok
	}

	if m.Conflict == fsx.ConflictFail {
		if used(name) {
			return "", &fsx.MoveConflictError{Src: src, Dst: filepath.Join(dir, name)}
		}
		if statErr != nil {
			return "", statErr
		}
		return filepath.Join(dir, name), nil
	}

	got := fsx.AllocName(name, used)
	if statErr != nil {
		return "", statErr
	}
	return filepath.Join(dir, got), nil
}

func (m *Mover) rename(src, dst string) error {
	if m.DryRun {
		m.plannedNames[dst] = struct{}{}
		return nil
	}
	return fsx.Rename(m.FS, src, dst)
}
