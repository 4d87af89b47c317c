package domain

const (
	// FolderNoMetadata 是“没有可用元数据”的固定桶名。
	FolderNoMetadata = "NO EXIF"
	// FolderDuplicates 是重复文件的固定桶名。
	FolderDuplicates = "Duplicates"
)

// PlacementKind 是单个文件的去向分类。
type PlacementKind int

const (
	// NoMove 表示留在原地（例如去重模式下首次出现的文件）。
	NoMove PlacementKind = iota
	DateBucket
	NoMetadataBucket
	DuplicateBucket
)

func (k PlacementKind) String() string {
	switch k {
	case DateBucket:
		return "date"
	case NoMetadataBucket:
		return "no_metadata"
	case DuplicateBucket:
		return "duplicate"
	default:
		return "none"
	}
}

// Placement 是 planner 对单个文件给出的决定（只描述去向；真正移动由 mover 执行）。
// 产生后立即被消费，不保留。
type Placement struct {
	Kind PlacementKind

	// Date 仅 DateBucket 有效（且一定是 Valid 的日期）。
	Date CaptureDate
	// Of 仅 DuplicateBucket 有效：被保留的原件路径（同 hash 最早出现的那个）。
	Of string
}

// Folder 返回目标子目录名；NoMove 返回空串。
func (p Placement) Folder() string {
	switch p.Kind {
	case DateBucket:
		return p.Date.Folder()
	case NoMetadataBucket:
		return FolderNoMetadata
	case DuplicateBucket:
		return FolderDuplicates
	default:
		return ""
	}
}
