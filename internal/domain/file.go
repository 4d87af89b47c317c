package domain

// FileRecord 描述一次枚举得到的文件（只做 stat，不读文件内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - 同一次 run 内不可变；run 结束即丢弃，不做任何持久化
// - 拍摄日期/哈希不在这里缓存：由 run 按模式按需计算
type FileRecord struct {
	AbsPath string
	RelPath string // 相对 source root，用于 report 展示
	Name    string // base name（含扩展名）
	Size    int64
}

// ConfigFileName 是 source root（或 cwd）下的配置文件名；它本身永远不作为待整理文件。
const ConfigFileName = "sortfiles.json"
