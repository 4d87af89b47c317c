package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/John-Robertt/sortfiles/internal/app/run"
	"github.com/John-Robertt/sortfiles/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出。
//
// 约束：
// - 所有过程信息写到 w（stderr），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，这里决定如何展示
type progressUI struct {
	w io.Writer

	mu        sync.Mutex
	startedAt time.Time
	bar       *progressbar.ProgressBar
	skipped   int
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(mode domain.Mode, root string, dryRun bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = time.Now()
	hint := ""
	if dryRun {
		hint = " (dry-run：不移动、不建目录)"
	}
	fmt.Fprintf(p.w, "[%s] sortfiles %s%s\n", p.startedAt.Format("15:04:05"), mode, hint)
	fmt.Fprintf(p.w, "  path: %s\n", root)
}

func (p *progressUI) OnScanDone(total int, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "扫描: files=%d (%s)\n", total, formatShortDuration(dur))
	if total == 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("处理中"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressUI) OnFileDone(idx, total int, res domain.FileResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if res.Status == domain.FileStatusSkipped {
		p.skipped++
	}
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progressUI) OnFinish(rr domain.RunReport) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
	fmt.Fprintf(p.w, "结束: %s processed=%d skipped=%d (%s)\n",
		rr.Outcome, rr.Stats.Processed, p.skipped, formatElapsed(time.Since(p.startedAt)),
	)
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
