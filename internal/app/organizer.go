package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/John-Robertt/sortfiles/internal/app/run"
	"github.com/John-Robertt/sortfiles/internal/domain"
	"github.com/John-Robertt/sortfiles/internal/infra/fsx"
)

var (
	// ErrNoSourceFolder 表示还没有设置源目录（调用方应提示用户先选择目录）。
	ErrNoSourceFolder = errors.New("未设置源目录")
	// ErrRunInProgress 表示已有 run 正在执行；同一时刻只允许一个 run。
	ErrRunInProgress = errors.New("已有整理任务正在执行")
	// ErrAborted 表示 run 因枚举失败而中止（一个文件都没处理）。
	ErrAborted = errors.New("整理任务已中止")
)

// Organizer 是给 UI/CLI 使用的调用面：先 SetSourceFolder，再调用各模式。
//
// 约束：
// - 每个模式同步执行，返回时 run 已结束
// - 同一时刻只允许一个 run（单一活动 run 保护）；统计每次 run 新建，不会串到下一次
// - 除 SetSourceFolder 外的字段应在第一次调用前设置好
type Organizer struct {
	FS  afero.Fs
	Log logrus.FieldLogger

	Conflict    fsx.ConflictPolicy
	ExcludeDirs []string
	DryRun      bool

	Observer run.Observer
	Now      func() time.Time
	Probe    run.DateProbe

	mu      sync.Mutex
	source  string
	running atomic.Bool
}

func NewOrganizer(fs afero.Fs, log logrus.FieldLogger) *Organizer {
	return &Organizer{FS: fs, Log: log, Conflict: fsx.ConflictSuffix}
}

// SetSourceFolder 设置源目录（规范化为 clean + absolute）。这里不检查目录是否存在：不可读会在 run 的枚举阶段中止。
func (o *Organizer) SetSourceFolder(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrNoSourceFolder
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.source = abs
	o.mu.Unlock()
	return nil
}

func (o *Organizer) SourceFolder() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.source
}

// OrganizeByDate 把源目录顶层文件按拍摄日期移入 "YYYY-MM"，没有可用日期的移入 "NO EXIF"。
func (o *Organizer) OrganizeByDate(ctx context.Context) (domain.RunReport, error) {
	return o.invoke(ctx, domain.ModeOrganizeByDate)
}

// FindDuplicates 递归比对内容指纹，把每组相同内容中除最早枚举到的一份以外都移入 "Duplicates"。
func (o *Organizer) FindDuplicates(ctx context.Context) (domain.RunReport, error) {
	return o.invoke(ctx, domain.ModeFindDuplicates)
}

// CorrectNames 修正源目录顶层文件名中的不支持字符（原地改名）。
func (o *Organizer) CorrectNames(ctx context.Context) (domain.RunReport, error) {
	return o.invoke(ctx, domain.ModeCorrectNames)
}

// SortNoMetadata 按文件名中的日期整理 "NO EXIF" 里的文件。
func (o *Organizer) SortNoMetadata(ctx context.Context) (domain.RunReport, error) {
	return o.invoke(ctx, domain.ModeSortNoMetadata)
}

// Run 按 Mode 分派（CLI 使用）。
func (o *Organizer) Run(ctx context.Context, mode domain.Mode) (domain.RunReport, error) {
	return o.invoke(ctx, mode)
}

func (o *Organizer) invoke(ctx context.Context, mode domain.Mode) (domain.RunReport, error) {
	src := o.SourceFolder()
	if src == "" {
		return domain.RunReport{}, ErrNoSourceFolder
	}
	if !o.running.CompareAndSwap(false, true) {
		return domain.RunReport{}, ErrRunInProgress
	}
	defer o.running.Store(false)

	rr := run.ExecuteWithObserver(ctx, run.Options{
		FS:          o.FS,
		Root:        src,
		Mode:        mode,
		Conflict:    o.Conflict,
		ExcludeDirs: o.ExcludeDirs,
		DryRun:      o.DryRun,
		Log:         o.Log,
		Now:         o.Now,
		Probe:       o.Probe,
	}, o.Observer)

	if rr.Outcome == domain.OutcomeAborted {
		return rr, fmt.Errorf("%w：%s", ErrAborted, rr.Reason)
	}
	return rr, nil
}
