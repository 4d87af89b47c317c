package run

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/John-Robertt/sortfiles/internal/app/mover"
	"github.com/John-Robertt/sortfiles/internal/app/planner"
	"github.com/John-Robertt/sortfiles/internal/app/report"
	"github.com/John-Robertt/sortfiles/internal/diag"
	"github.com/John-Robertt/sortfiles/internal/domain"
	"github.com/John-Robertt/sortfiles/internal/fingerprint"
	"github.com/John-Robertt/sortfiles/internal/infra/fsx"
	"github.com/John-Robertt/sortfiles/internal/names"
	"github.com/John-Robertt/sortfiles/internal/probe"
	"github.com/John-Robertt/sortfiles/internal/scan"
)

// DateProbe 读取文件内嵌的拍摄日期；读不到（含任何错误）一律返回 ok=false。
type DateProbe interface {
	CaptureDate(path string) (domain.CaptureDate, bool)
}

// Options 是一次 run 的全部输入（由 app.Organizer 或测试构造）。
type Options struct {
	FS   afero.Fs
	Root string
	Mode domain.Mode

	Conflict    fsx.ConflictPolicy
	ExcludeDirs []string
	DryRun      bool

	Log logrus.FieldLogger
	// Now 为空时使用 time.Now；日期有效性（不晚于今年）以 run 开始时刻为准。
	Now func() time.Time
	// Probe 为空时使用 probe.New(FS, Log)。
	Probe DateProbe
}

// Execute 执行一次 run，并返回对外稳定的 RunReport。
func Execute(ctx context.Context, opt Options) domain.RunReport {
	return ExecuteWithObserver(ctx, opt, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度（由上层决定是否启用）。
//
// 终态：
// - completed：全部文件处理完（单个文件失败只会记为 skipped，不影响其他文件）
// - aborted：枚举失败（例如 source root 不可读）；一个文件都没处理，Text 为空
// - canceled：ctx 在两个文件之间被取消；已移动的文件保持移动，统计为部分计数
func ExecuteWithObserver(ctx context.Context, opt Options, obs Observer) domain.RunReport {
	e := newEngine(opt)

	rr := domain.RunReport{
		Mode:      opt.Mode,
		Path:      e.root,
		DryRun:    opt.DryRun,
		StartedAt: e.now,
		Items:     make([]domain.FileResult, 0, 128),
	}
	if obs != nil {
		obs.OnStart(opt.Mode, e.root, opt.DryRun)
	}
	finish := func() domain.RunReport {
		rr.FinishedAt = e.clock()
		rr.Finalize()
		if obs != nil {
			obs.OnFinish(rr)
		}
		return rr
	}

	scanStarted := time.Now()
	files, err := e.enumerate()
	if err != nil {
		e.log.WithError(err).Error("枚举失败，run 中止")
		rr.Outcome = domain.OutcomeAborted
		rr.ErrorCode = domain.ErrCodeEnumerateFailed
		rr.Reason = fmt.Sprintf("无法读取源目录：%v", err)
		return finish()
	}
	if obs != nil {
		obs.OnScanDone(len(files), time.Since(scanStarted))
	}
	e.log.WithField("files", len(files)).Info("枚举完成")

	for range files {
		e.rep.Record(report.Event{Kind: report.Discovered})
	}

	canceled := false
	for i, f := range files {
		if ctx.Err() != nil {
			canceled = true
			break
		}
		res := e.handle(f)
		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnFileDone(i+1, len(files), res)
		}
	}

	rr.Stats = e.rep.Snapshot()
	rr.Text = e.rep.RenderAndReset()
	rr.Outcome = domain.OutcomeCompleted
	if canceled {
		rr.Outcome = domain.OutcomeCanceled
		rr.ErrorCode = domain.ErrCodeCanceled
		rr.Reason = fmt.Sprintf("已取消：处理了 %d/%d 个文件", len(rr.Items), len(files))
		e.log.WithField("done", len(rr.Items)).Warn("run 被取消")
	}
	return finish()
}

// engine 持有一次 run 的全部可变状态；run 结束即丢弃。
type engine struct {
	opt   Options
	fs    afero.Fs
	root  string
	base  string // 本模式的工作目录：sort-noexif 为 <root>/NO EXIF，其余为 root
	now   time.Time
	clock func() time.Time
	log   logrus.FieldLogger

	probe DateProbe
	rep   *report.Reporter
	mv    *mover.Mover
	idx   *domain.HashIndex
}

func newEngine(opt Options) *engine {
	fs := opt.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	clock := opt.Now
	if clock == nil {
		clock = time.Now
	}
	var log logrus.FieldLogger = diag.Discard()
	if opt.Log != nil {
		log = opt.Log
	}
	root := filepath.Clean(opt.Root)
	log = log.WithFields(logrus.Fields{"mode": string(opt.Mode), "root": root})

	base := root
	if opt.Mode == domain.ModeSortNoMetadata {
		base = filepath.Join(root, domain.FolderNoMetadata)
	}

	p := opt.Probe
	if p == nil {
		p = probe.New(fs, log)
	}

	return &engine{
		opt:   opt,
		fs:    fs,
		root:  root,
		base:  base,
		now:   clock(),
		clock: clock,
		log:   log,
		probe: p,
		rep:   report.New(),
		mv:    mover.New(fs, base, opt.Conflict, opt.DryRun),
		idx:   domain.NewHashIndex(),
	}
}

func (e *engine) enumerate() ([]domain.FileRecord, error) {
	switch e.opt.Mode {
	case domain.ModeFindDuplicates:
		return scan.WalkRecursive(e.fs, e.root, e.opt.ExcludeDirs, func(path string, err error) {
			e.log.WithField("path", path).WithError(err).Warn("子目录不可读，已跳过")
		})
	case domain.ModeSortNoMetadata:
		// 还没有 NO EXIF 目录：没有可整理的文件，不算失败。
		if _, err := e.fs.Stat(e.base); os.IsNotExist(err) {
			if _, rerr := e.fs.Stat(e.root); rerr != nil {
				return nil, rerr
			}
			return nil, nil
		}
		return scan.ListFlat(e.fs, e.base)
	case domain.ModeOrganizeByDate, domain.ModeCorrectNames:
		return scan.ListFlat(e.fs, e.root)
	default:
		return nil, fmt.Errorf("未知模式：%q", e.opt.Mode)
	}
}

func (e *engine) handle(f domain.FileRecord) domain.FileResult {
	switch e.opt.Mode {
	case domain.ModeOrganizeByDate:
		d, ok := e.probe.CaptureDate(f.AbsPath)
		return e.place(f, planner.ByDate(d, ok, e.now))

	case domain.ModeFindDuplicates:
		h, err := fingerprint.File(e.fs, f.AbsPath)
		if err != nil {
			e.rep.Record(report.Event{Kind: report.Skipped})
			return e.skipped(f, domain.FileResult{Src: e.rel(f.AbsPath)}, err, domain.ErrCodeHashFailed)
		}
		p := planner.ByHash(e.idx, h, f.AbsPath)
		if p.Kind == domain.DuplicateBucket {
			e.log.WithFields(logrus.Fields{"path": f.AbsPath, "of": p.Of}).Info("发现重复文件")
		}
		return e.place(f, p)

	case domain.ModeCorrectNames:
		return e.rename(f)

	case domain.ModeSortNoMetadata:
		d, ok := names.DateFromFilename(f.Name)
		return e.place(f, planner.ByFilenameDate(d, ok, e.now))
	}
	return domain.FileResult{Src: e.rel(f.AbsPath), Status: domain.FileStatusKept}
}

func (e *engine) place(f domain.FileRecord, p domain.Placement) domain.FileResult {
	kind := eventKind(p.Kind)
	item := domain.FileResult{Src: e.rel(f.AbsPath), Bucket: p.Kind.String()}

	res, err := e.mv.Execute(p, f.AbsPath)
	if err != nil {
		e.rep.Record(report.Event{Kind: kind, FolderCreated: res.FolderCreated, Failed: true})
		return e.skipped(f, item, err, domain.ErrCodeMoveFailed)
	}
	e.rep.Record(report.Event{Kind: kind, Moved: res.Moved, FolderCreated: res.FolderCreated})
	if res.FolderCreated {
		e.log.WithField("dir", filepath.Dir(res.Dst)).Debug("新建目录")
	}

	if !res.Moved {
		item.Status = domain.FileStatusKept
		return item
	}
	item.Status = domain.FileStatusMoved
	item.Dst = e.rel(res.Dst)
	e.log.WithFields(logrus.Fields{"path": f.AbsPath, "dst": res.Dst}).Debug("已移动")
	return item
}

func (e *engine) rename(f domain.FileRecord) domain.FileResult {
	item := domain.FileResult{Src: e.rel(f.AbsPath)}

	newName, ok := names.Sanitize(f.Name)
	if !ok {
		e.rep.Record(report.Event{Kind: report.Kept})
		item.Status = domain.FileStatusKept
		return item
	}

	res, err := e.mv.Rename(f.AbsPath, newName)
	if err != nil {
		e.rep.Record(report.Event{Kind: report.Renamed, Failed: true})
		return e.skipped(f, item, err, domain.ErrCodeMoveFailed)
	}
	e.rep.Record(report.Event{Kind: report.Renamed, Moved: res.Moved})
	item.Status = domain.FileStatusRenamed
	item.Dst = e.rel(res.Dst)
	return item
}

func (e *engine) skipped(f domain.FileRecord, item domain.FileResult, err error, fallback string) domain.FileResult {
	code := diag.Classify(err, fallback)
	e.log.WithFields(logrus.Fields{"path": f.AbsPath, "code": code}).WithError(err).Warn("文件处理失败，已跳过")
	item.Status = domain.FileStatusSkipped
	item.ErrorCode = code
	item.ErrorMsg = err.Error()
	return item
}

// rel 返回相对 source root 的路径（用于 report 展示）；失败时原样返回。
func (e *engine) rel(abs string) string {
	if r, err := filepath.Rel(e.root, abs); err == nil {
		return r
	}
	return abs
}

func eventKind(k domain.PlacementKind) report.EventKind {
	switch k {
	case domain.DateBucket:
		return report.Dated
	case domain.NoMetadataBucket:
		return report.NoMetadata
	case domain.DuplicateBucket:
		return report.Duplicate
	default:
		return report.Kept
	}
}
