package domain

// RunStats 是单次 run 的聚合计数。
//
// 归属：只由一个 report.Reporter 持有并修改；渲染后清零，不跨 run 共享。
type RunStats struct {
	Discovered        int `json:"discovered"`
	Processed         int `json:"processed"`
	Moved             int `json:"moved"`
	FoldersCreated    int `json:"folders_created"`
	NoMetadata        int `json:"no_metadata"`
	Duplicates        int `json:"duplicates"`
	MovedToDuplicates int `json:"moved_to_duplicates"`
	Renamed           int `json:"renamed"`
	Skipped           int `json:"skipped"`

	// 以下 flag 决定报告里可选行是否出现。
	DuplicatesFound bool `json:"duplicates_found"`
	NoMetadataFound bool `json:"no_metadata_found"`
	FolderCreated   bool `json:"folder_created"`
}
