package domain

import (
	"encoding/json"
	"time"
)

const (
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
	OutcomeCanceled  = "canceled"
)

const (
	FileStatusMoved   = "moved"
	FileStatusRenamed = "renamed"
	FileStatusKept    = "kept"
	FileStatusSkipped = "skipped"
)

const (
	ErrCodeIOFailed          = "io_failed"
	ErrCodeHashFailed        = "hash_failed"
	ErrCodeMoveFailed        = "move_failed"
	ErrCodeMoveConflict      = "move_conflict"
	ErrCodeTargetConflict    = "target_conflict"
	ErrCodeCrossDevice       = "cross_device"
	ErrCodeEnumerateFailed   = "enumerate_failed"
	ErrCodeCanceled          = "canceled"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
)

// RunReport 是对外稳定输出（stdout JSON / --report-file）的结构。
//
// 约束：
// - Text 是给人看的摘要；aborted（一个文件都没处理）时为空
// - Items 保持枚举顺序（去重模式下顺序决定谁是原件），不做排序
type RunReport struct {
	Mode   Mode   `json:"mode"`
	Path   string `json:"path"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`

	Stats RunStats     `json:"stats"`
	Text  string       `json:"text"`
	Items []FileResult `json:"items"`
}

type FileResult struct {
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Bucket string `json:"bucket"`
	Status string `json:"status"`

	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) Items 为 nil 时改为空切片（JSON 输出 [] 而不是 null）
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Items == nil {
		r.Items = []FileResult{}
	}
}

// Failed 列出本次 run 因错误被跳过的条目（用于 stderr 逐条提示）。
func (r RunReport) Failed() []FileResult {
	var out []FileResult
	for _, it := range r.Items {
		if it.Status == FileStatusSkipped && it.ErrorCode != "" {
			out = append(out, it)
		}
	}
	return out
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
