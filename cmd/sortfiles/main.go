package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/sortfiles/internal/app"
	"github.com/John-Robertt/sortfiles/internal/config"
	"github.com/John-Robertt/sortfiles/internal/diag"
	"github.com/John-Robertt/sortfiles/internal/domain"
	"github.com/John-Robertt/sortfiles/internal/infra/fsx"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitInvalid = 2
)

// env 收拢进程级依赖，测试里可整体替换（内存文件系统 + buffer）。
type env struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
	fs     afero.Fs
	cwd    string

	stdoutTTY bool
	stderrTTY bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		os.Exit(exitFailed)
	}

	code := execute(env{
		ctx:       ctx,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		fs:        afero.NewOsFs(),
		cwd:       cwd,
		stdoutTTY: isTTY(os.Stdout),
		stderrTTY: isTTY(os.Stderr),
	}, os.Args[1:])
	if code != exitOK {
		os.Exit(code)
	}
}

type runFlags struct {
	conflict   string
	logLevel   string
	logFile    string
	reportFile string
	dryRun     bool
}

// execute 构建命令树并执行，返回进程退出码。
func execute(e env, args []string) int {
	var (
		fl   runFlags
		code = exitOK
	)

	root := &cobra.Command{
		Use:           "sortfiles",
		Short:         "按拍摄日期整理照片，查找重复文件，修正文件名",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	root.SetArgs(args)

	pf := root.PersistentFlags()
	pf.StringVar(&fl.conflict, "conflict", string(fsx.ConflictSuffix), "目标重名时的处理：suffix|fail")
	pf.StringVar(&fl.logLevel, "log-level", diag.DefaultLevel, "日志级别：debug|info|warn|error")
	pf.StringVar(&fl.logFile, "log-file", "", "日志写入该文件（JSON 行），默认写 stderr")
	pf.StringVar(&fl.reportFile, "report-file", "", "把 RunReport JSON 原子写入该文件")
	pf.BoolVar(&fl.dryRun, "dry-run", false, "只计算去向，不移动、不建目录")

	modes := []struct {
		mode  domain.Mode
		short string
	}{
		{domain.ModeOrganizeByDate, "按拍摄日期把顶层文件移入 YYYY-MM，无日期的移入 NO EXIF"},
		{domain.ModeFindDuplicates, "递归比对内容，把重复文件移入 Duplicates"},
		{domain.ModeCorrectNames, "修正顶层文件名中的不支持字符"},
		{domain.ModeSortNoMetadata, "按文件名中的日期整理 NO EXIF 里的文件"},
	}
	for _, m := range modes {
		mode := m.mode
		root.AddCommand(&cobra.Command{
			Use:   string(mode) + " [path]",
			Short: m.short,
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, a []string) error {
				cli := config.CLIArgs{
					Conflict:    fl.conflict,
					ConflictSet: cmd.Flags().Changed("conflict"),
					DryRun:      fl.dryRun,
					DryRunSet:   cmd.Flags().Changed("dry-run"),
					LogLevel:    fl.logLevel,
					LogLevelSet: cmd.Flags().Changed("log-level"),
					LogFile:     fl.logFile,
					LogFileSet:  cmd.Flags().Changed("log-file"),
				}
				if len(a) == 1 {
					cli.Path = a[0]
				}
				code = runMode(e, mode, cli, fl.reportFile)
				return nil
			},
		})
	}

	if err := root.ExecuteContext(e.ctx); err != nil {
		fmt.Fprintf(e.stderr, "参数错误：%v\n\n", err)
		_ = root.Usage()
		return exitInvalid
	}
	return code
}

func runMode(e env, mode domain.Mode, cli config.CLIArgs, reportFile string) int {
	eff, err := config.LoadEffective(e.fs, e.cwd, cli)
	if err != nil {
		rr := reportForConfigError(e.cwd, mode, cli, err)
		emitReport(e, rr)
		return exitInvalid
	}

	log, closeLog, err := diag.NewLogger(eff.LogLevel, eff.LogFile, e.stderr)
	if err != nil {
		fmt.Fprintf(e.stderr, "初始化日志失败：%v\n", err)
		return exitInvalid
	}
	defer func() { _ = closeLog() }()

	org := app.NewOrganizer(e.fs, log)
	org.Conflict = eff.Conflict
	org.ExcludeDirs = eff.ExcludeDirs
	org.DryRun = eff.DryRun
	if e.stderrTTY {
		org.Observer = newProgressUI(e.stderr)
	}
	if err := org.SetSourceFolder(eff.Path); err != nil {
		fmt.Fprintf(e.stderr, "参数错误：%v\n", err)
		return exitInvalid
	}

	rr, runErr := org.Run(e.ctx, mode)
	if runErr != nil && !errors.Is(runErr, app.ErrAborted) {
		fmt.Fprintf(e.stderr, "运行失败：%v\n", runErr)
		return exitFailed
	}

	if strings.TrimSpace(reportFile) != "" {
		if err := writeReportFile(e.fs, absFrom(e.cwd, reportFile), rr); err != nil {
			fmt.Fprintf(e.stderr, "写入报告文件失败：%v\n", err)
			emitReport(e, rr)
			return exitFailed
		}
	}

	emitReport(e, rr)
	return exitCode(rr)
}

// exitCode：单文件因错误跳过不影响退出码；只有整个 run 没能跑完才算失败。
func exitCode(rr domain.RunReport) int {
	if rr.Outcome == domain.OutcomeCompleted {
		return exitOK
	}
	return exitFailed
}

func emitReport(e env, rr domain.RunReport) {
	if e.stdoutTTY {
		if rr.Text != "" {
			fmt.Fprint(e.stdout, rr.Text)
		}
		if rr.Outcome != domain.OutcomeCompleted {
			fmt.Fprintf(e.stderr, "%s %s: %s\n", rr.Outcome, rr.ErrorCode, rr.Reason)
		}
		for _, it := range rr.Failed() {
			fmt.Fprintf(e.stderr, "%s %s: %s\n", it.Src, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(e.stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(e.stderr, "完成：outcome=%s processed=%d skipped=%d\n",
		rr.Outcome, rr.Stats.Processed, rr.Stats.Skipped,
	)
}

func reportForConfigError(cwd string, mode domain.Mode, cli config.CLIArgs, err error) domain.RunReport {
	now := time.Now()
	path := cwd
	if strings.TrimSpace(cli.Path) != "" {
		path = absFrom(cwd, cli.Path)
	}
	rr := domain.RunReport{
		Mode:       mode,
		Path:       path,
		DryRun:     cli.DryRunSet && cli.DryRun,
		StartedAt:  now,
		FinishedAt: now,
		Outcome:    domain.OutcomeAborted,
		Reason:     err.Error(),
		ErrorCode:  config.Code(err),
	}
	rr.Finalize()
	return rr
}

func writeReportFile(fs afero.Fs, path string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(fs, filepath.Dir(path), filepath.Base(path), b)
}

func absFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
