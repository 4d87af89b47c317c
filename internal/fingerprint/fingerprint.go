package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/John-Robertt/sortfiles/internal/domain"
)

// ChunkSize 是流式读取的块大小；整文件参与计算，不只取文件头。
const ChunkSize = 64 << 10

// Error 表示指纹计算失败（打不开或读到一半失败）。只影响当前文件，不影响整个 run。
type Error struct {
	Path string
	Op   string // open | read
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("计算指纹失败（%s）：%q：%v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// File 返回文件内容的 SHA-256（十六进制小写）。
func File(fs afero.Fs, path string) (domain.Hash, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", &Error{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", &Error{Path: path, Op: "read", Err: err}
	}
	return domain.Hash(hex.EncodeToString(h.Sum(nil))), nil
}
