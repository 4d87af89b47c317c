package diag

import (
	"context"
	"errors"

	"github.com/John-Robertt/sortfiles/internal/domain"
	"github.com/John-Robertt/sortfiles/internal/fingerprint"
	"github.com/John-Robertt/sortfiles/internal/infra/fsx"
)

// Classify 把单个文件的错误归类为 report 中的 error_code。
// 识别不出具体类型时返回 fallback（由调用方按出错阶段给出，例如 move_failed）。
//
// 说明：只依赖错误类型与哨兵错误，不做字符串匹配。
func Classify(err error, fallback string) string {
	if err == nil {
		return ""
	}
	// 取消优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrCodeCanceled
	}
	if fsx.IsCrossDevice(err) {
		return domain.ErrCodeCrossDevice
	}
	if fsx.IsMoveConflict(err) {
		return domain.ErrCodeMoveConflict
	}
	if fsx.IsPathTypeConflict(err) {
		return domain.ErrCodeTargetConflict
	}
	var fe *fingerprint.Error
	if errors.As(err, &fe) {
		return domain.ErrCodeHashFailed
	}
	if fallback == "" {
		return domain.ErrCodeIOFailed
	}
	return fallback
}
