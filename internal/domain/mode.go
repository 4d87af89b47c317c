package domain

import "fmt"

// Mode 是一次 run 的工作模式。
type Mode string

const (
	ModeOrganizeByDate Mode = "organize"
	ModeFindDuplicates Mode = "duplicates"
	ModeCorrectNames   Mode = "names"
	ModeSortNoMetadata Mode = "sort-noexif"
)

// ParseMode 把 CLI/配置中的字符串解析为 Mode。
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeOrganizeByDate, ModeFindDuplicates, ModeCorrectNames, ModeSortNoMetadata:
		return m, nil
	default:
		return "", fmt.Errorf("未知模式：%q", s)
	}
}

// Recursive 表示该模式是否需要递归枚举（只有去重模式走整棵子树）。
func (m Mode) Recursive() bool {
	return m == ModeFindDuplicates
}
