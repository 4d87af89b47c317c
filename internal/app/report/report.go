package report

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/sortfiles/internal/domain"
)

// EventKind 是 run 中单个文件产生的事件类型。
//
// 每个文件先记一次 Discovered，处理完再记恰好一次“终态”事件（其余各类）。
type EventKind int

const (
	// Discovered：枚举到一个文件。
	Discovered EventKind = iota
	// Dated：文件被决定放入日期桶。
	Dated
	// NoMetadata：文件被决定放入 NO EXIF。
	NoMetadata
	// Duplicate：文件与更早的文件内容相同。
	Duplicate
	// Kept：文件留在原地（原件、名字无需修正等）。
	Kept
	// Renamed：文件名被修正。
	Renamed
	// Skipped：文件在分类之前就出错（例如读不出指纹），被跳过。
	Skipped
)

// Event 描述一个文件的一次事件。
type Event struct {
	Kind EventKind
	// Moved 表示文件确实被移动/改名（dry-run 下为“将会”）。移动失败的文件仍然按 Kind 记一次，但 Moved=false。
	Moved bool
	// FolderCreated 表示本次事件新建了一个目标目录。
	FolderCreated bool
	// Failed 表示文件已分类但执行失败而被跳过；分类计数照常，但不计入已处理。
	Failed bool
}

// Reporter 累计一次 run 的统计，并在结束时渲染摘要。
//
// 约束：
// - 只属于一次 run（run 开始时新建），不跨 run 共享，不可并发使用
// - RenderAndReset 之后所有计数与 flag 归零
type Reporter struct {
	stats domain.RunStats
}

func New() *Reporter { return &Reporter{} }

func (r *Reporter) Record(e Event) {
	s := &r.stats
	switch {
	case e.Kind == Discovered:
	case e.Kind == Skipped || e.Failed:
		s.Skipped++
	default:
		s.Processed++
	}

	switch e.Kind {
	case Discovered:
		s.Discovered++
	case Dated:
		if e.Moved {
			s.Moved++
		}
	case NoMetadata:
		s.NoMetadataFound = true
		if e.Moved {
			s.Moved++
			s.NoMetadata++
		}
	case Duplicate:
		s.Duplicates++
		s.DuplicatesFound = true
		if e.Moved {
			s.Moved++
			s.MovedToDuplicates++
		}
	case Renamed:
		if e.Moved {
			s.Renamed++
		}
	}
	if e.FolderCreated {
		s.FoldersCreated++
		s.FolderCreated = true
	}
}

// Snapshot 返回当前统计的副本。
func (r *Reporter) Snapshot() domain.RunStats {
	return r.stats
}

// RenderAndReset 渲染摘要文本并清空全部状态。
//
// 行规则：
// - 发现文件、已处理：总是输出
// - 重复相关两行：仅当本次发现过重复
// - NO EXIF：仅当本次出现过无元数据文件
// - 新建目录：仅当本次新建过目录
// - 改名、跳过：仅当计数 > 0
func (r *Reporter) RenderAndReset() string {
	s := r.Snapshot()
	r.stats = domain.RunStats{}
	return Render(s)
}

// Render 只做格式化，不修改任何状态。
func Render(s domain.RunStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "发现文件：%d\n", s.Discovered)
	fmt.Fprintf(&b, "已处理：%d\n", s.Processed)
	if s.DuplicatesFound {
		fmt.Fprintf(&b, "移入 %s：%d\n", domain.FolderDuplicates, s.MovedToDuplicates)
		fmt.Fprintf(&b, "发现重复：%d\n", s.Duplicates)
	}
	if s.NoMetadataFound {
		fmt.Fprintf(&b, "移入 %s：%d\n", domain.FolderNoMetadata, s.NoMetadata)
	}
	if s.FolderCreated {
		fmt.Fprintf(&b, "新建目录：%d\n", s.FoldersCreated)
	}
	if s.Renamed > 0 {
		fmt.Fprintf(&b, "已改名：%d\n", s.Renamed)
	}
	if s.Skipped > 0 {
		fmt.Fprintf(&b, "因错误跳过：%d\n", s.Skipped)
	}
	return b.String()
}
