package domain

// Hash 是文件内容的十六进制摘要（SHA-256）。
type Hash string

// HashIndex 记录本次去重 run 内每个 hash 第一次出现的文件路径。
//
// 不变量：一个 hash 每次 run 只进入一次（由引入它的文件占位）；之后同 hash 的文件都是它的重复。
// 只在单次 run 内有效，run 结束即丢弃。
type HashIndex struct {
	first map[Hash]string
}

func NewHashIndex() *HashIndex {
	return &HashIndex{first: make(map[Hash]string, 256)}
}

// Lookup 返回 hash 对应的首个文件路径。
func (x *HashIndex) Lookup(h Hash) (string, bool) {
	p, ok := x.first[h]
	return p, ok
}

// Add 记录 hash 的首个文件；hash 已存在时不覆盖并返回 false。
func (x *HashIndex) Add(h Hash, path string) bool {
	if _, ok := x.first[h]; ok {
		return false
	}
	x.first[h] = path
	return true
}

func (x *HashIndex) Len() int { return len(x.first) }
