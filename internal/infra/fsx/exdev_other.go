//go:build !unix

package fsx

// 非 unix 平台没有统一的 EXDEV 语义：交给上层按普通 move 失败处理。
func isEXDEV(err error) bool { return false }
