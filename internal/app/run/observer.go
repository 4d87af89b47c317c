package run

import (
	"time"

	"github.com/John-Robertt/sortfiles/internal/domain"
)

// Observer 用于把“运行进度/阶段/单文件结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）
// - 事件都在执行 run 的 goroutine 上同步发出；实现若另起 goroutine（例如 keepalive），需自行加锁
type Observer interface {
	// OnStart 在 run 开始时调用（早于枚举，保证用户尽快看到输出）。
	OnStart(mode domain.Mode, root string, dryRun bool)
	// OnScanDone 在枚举完成后调用；total 为本次要处理的文件数。
	OnScanDone(total int, dur time.Duration)
	// OnFileDone 在每个文件处理完成后调用（idx 从 1 开始）。
	OnFileDone(idx, total int, res domain.FileResult)
	// OnFinish 在 run 结束时调用（completed / aborted / canceled 都会调用）。
	OnFinish(rr domain.RunReport)
}
