package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/John-Robertt/sortfiles/internal/domain"
)

// ConfigFileName 枚举时永远跳过，避免配置文件被当成待整理文件。
const ConfigFileName = domain.ConfigFileName

// ErrorFunc 接收枚举过程中“可跳过”的子目录错误（root 本身的错误不会走这里）。
type ErrorFunc func(path string, err error)

// ListFlat 只列出 dir 顶层的普通文件（不进子目录）。
//
// 规则：
// - 隐藏文件（'.' 开头）与配置文件不参与
// - 输出按文件名稳定排序
// - dir 不可读/不是目录：返回错误（整个 run 应 abort）
func ListFlat(fs afero.Fs, dir string) ([]domain.FileRecord, error) {
	dir = filepath.Clean(dir)
	if err := checkDir(fs, dir); err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}

	files := make([]domain.FileRecord, 0, len(entries))
	for _, fi := range entries {
		if !fi.Mode().IsRegular() || skipName(fi.Name()) {
			continue
		}
		files = append(files, domain.FileRecord{
			AbsPath: filepath.Join(dir, fi.Name()),
			RelPath: fi.Name(),
			Name:    fi.Name(),
			Size:    fi.Size(),
		})
	}

	// afero.ReadDir 已按名字排序；这里再排一次，不依赖具体 Fs 实现。
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// WalkRecursive 递归列出 root 下的普通文件，并应用目录排除规则。
//
// 规则（硬约束）：
// - 永久排除：任意层级名为 Duplicates 的目录（已隔离的文件不再参与比对）
// - excludeDirs：来自配置文件，均视为相对 root 的路径（若是绝对路径，则按绝对路径处理）
// - 子目录读取失败：交给 onErr 并跳过该目录；root 本身失败则返回错误
//
// 输出顺序即枚举顺序（按相对路径字典序），去重模式依赖它决定谁是原件。
func WalkRecursive(fs afero.Fs, root string, excludeDirs []string, onErr ErrorFunc) ([]domain.FileRecord, error) {
	root = filepath.Clean(root)
	if err := checkDir(fs, root); err != nil {
		return nil, err
	}
	excluded := buildExcluded(root, excludeDirs)

	files := make([]domain.FileRecord, 0, 128)
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if filepath.Clean(path) == root {
				return walkErr
			}
			if onErr != nil {
				onErr(path, walkErr)
			}
			return nil
		}

		// 统一的排除判断：目录用 SkipDir，文件则直接跳过。
		if isExcluded(path, excluded) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if path != root && (strings.HasPrefix(info.Name(), ".") || info.Name() == domain.FolderDuplicates) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || skipName(info.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		files = append(files, domain.FileRecord{
			AbsPath: path,
			RelPath: rel,
			Name:    info.Name(),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.SliceStable(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func checkDir(fs afero.Fs, dir string) error {
	fi, err := fs.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%q 不是目录", dir)
	}
	return nil
}

func skipName(name string) bool {
	return strings.HasPrefix(name, ".") || name == ConfigFileName
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))

	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
