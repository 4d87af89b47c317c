package domain

import (
	"fmt"
	"time"
)

// MinCaptureYear 是允许建目录的最早年份；更早的年份视为无效元数据。
const MinCaptureYear = 1950

// CaptureDate 是拍摄日期（只保留年月日，不含时分秒）。
//
// 约束：Day 可以为 0（文件名里只有年月时）；无效日期一律视为“没有日期”，绝不用于建目录。
type CaptureDate struct {
	Year  int
	Month int
	Day   int
}

// Valid 判断日期能否用于建目录：year ∈ [1950, now.Year()]，month ∈ [1, 12]。
func (d CaptureDate) Valid(now time.Time) bool {
	if d.Year < MinCaptureYear || d.Year > now.Year() {
		return false
	}
	return d.Month >= 1 && d.Month <= 12
}

// Folder 返回日期桶的目录名，形如 "2023-05"。
func (d CaptureDate) Folder() string {
	return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
}

func (d CaptureDate) String() string {
	if d.Day == 0 {
		return d.Folder()
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}
