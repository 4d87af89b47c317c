package names

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/John-Robertt/sortfiles/internal/domain"
)

// 文件名里不允许出现的字符（部分同步盘/旧文件系统会拒绝或转义它们）。
var unsupportedRE = regexp.MustCompile(`[{}\[\],.()/\\|]`)

// Sanitize 去掉文件名主体中的不支持字符，扩展名原样保留。
//
// 返回值 ok=false 表示不需要（或不能）改名：名字本来就干净，或清洗后主体为空。
func Sanitize(name string) (string, bool) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// ".jpg" 这类名字：整个都是扩展名，不动。
		return name, false
	}

	clean := strings.TrimSpace(unsupportedRE.ReplaceAllString(stem, ""))
	if clean == "" || clean == stem {
		return name, false
	}
	return clean + ext, true
}

type datePattern struct {
	re *regexp.Regexp
	// 捕获组下标；0 表示该模式不含这一段。
	year, month, day int
}

// 按优先级排列：先完整日期，再年月。前后必须是非数字（或边界），避免从长数字串中间截取。
var datePatterns = []datePattern{
	{re: regexp.MustCompile(`(?:^|\D)(20\d{2})[-_]?(0[1-9]|1[0-2])[-_]?(0[1-9]|[12]\d|3[01])(?:\D|$)`), year: 1, month: 2, day: 3},
	{re: regexp.MustCompile(`(?:^|\D)(0[1-9]|[12]\d|3[01])[-_]?(0[1-9]|1[0-2])[-_]?(20\d{2})(?:\D|$)`), day: 1, month: 2, year: 3},
	{re: regexp.MustCompile(`(?:^|\D)(20\d{2})[-_]?(0[1-9]|1[0-2])(?:\D|$)`), year: 1, month: 2},
	{re: regexp.MustCompile(`(?:^|\D)(0[1-9]|1[0-2])[-_]?(20\d{2})(?:\D|$)`), month: 1, year: 2},
}

// DateFromFilename 从文件名中提取日期（例如 IMG_20230510_1200.jpg、trip-2021-07.png）。
// 只看文件名本身，不看父目录。
func DateFromFilename(name string) (domain.CaptureDate, bool) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(stem)
		if m == nil {
			continue
		}
		d := domain.CaptureDate{
			Year:  atoi(m, p.year),
			Month: atoi(m, p.month),
			Day:   atoi(m, p.day),
		}
		return d, true
	}
	return domain.CaptureDate{}, false
}

func atoi(m []string, idx int) int {
	if idx <= 0 || idx >= len(m) {
		return 0
	}
	n, err := strconv.Atoi(m[idx])
	if err != nil {
		return 0
	}
	return n
}
