package planner

import (
	"time"

	"github.com/John-Robertt/sortfiles/internal/domain"
)

// 本包只做决定，不做任何 I/O；HashIndex 由调用方持有并传入。

// ByDate 是按日期整理模式的决定：
// - 有日期且有效：DateBucket
// - 无日期，或日期超出范围（年份 < 1950、晚于今年、月份非法）：NoMetadataBucket，不为离谱年份建目录
func ByDate(date domain.CaptureDate, ok bool, now time.Time) domain.Placement {
	if ok && date.Valid(now) {
		return domain.Placement{Kind: domain.DateBucket, Date: date}
	}
	return domain.Placement{Kind: domain.NoMetadataBucket}
}

// ByHash 是去重模式的决定：hash 已在索引中则为 DuplicateBucket（Of=原件路径）；
// 否则把当前文件记为原件并返回 NoMove。
//
// 约束：调用方必须按枚举顺序调用，先枚举到的文件永远是原件。
func ByHash(idx *domain.HashIndex, h domain.Hash, path string) domain.Placement {
	if first, ok := idx.Lookup(h); ok {
		return domain.Placement{Kind: domain.DuplicateBucket, Of: first}
	}
	idx.Add(h, path)
	return domain.Placement{Kind: domain.NoMove}
}

// ByFilenameDate 用于整理 NO EXIF 桶：文件名里的日期有效则进日期子目录，否则原地不动。
func ByFilenameDate(date domain.CaptureDate, ok bool, now time.Time) domain.Placement {
	if ok && date.Valid(now) {
		return domain.Placement{Kind: domain.DateBucket, Date: date}
	}
	return domain.Placement{Kind: domain.NoMove}
}
