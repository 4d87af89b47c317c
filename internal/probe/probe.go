package probe

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/John-Robertt/sortfiles/internal/domain"
)

// exifDateTags 按优先级排列：拍摄时间 > 数字化时间 > 文件修改时间（tag 36867 / 36868 / 306）。
var exifDateTags = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

// errNotMedia 表示文件不是可识别的图片类型（正常结果，不是故障）。
var errNotMedia = errors.New("不是可识别的图片类型")

// Probe 从文件内嵌元数据中读取拍摄日期。
//
// 约束：
// - 只读，不修改文件
// - 任何打开/解析错误都降级为“没有日期”，只写日志（side-channel），绝不向 run 返回错误
type Probe struct {
	FS  afero.Fs
	Log logrus.FieldLogger
}

func New(fs afero.Fs, log logrus.FieldLogger) Probe {
	return Probe{FS: fs, Log: log}
}

// CaptureDate 返回文件的拍摄日期；ok=false 表示没有可用日期。
//
// 注意：这里不做有效性校验（年份范围等由 planner 判断），只负责“读到什么”。
func (p Probe) CaptureDate(path string) (domain.CaptureDate, bool) {
	d, src, err := p.read(path)
	if err != nil {
		if p.Log != nil {
			lv := p.Log.WithField("path", path).WithError(err)
			if errors.Is(err, errNotMedia) {
				lv.Debug("跳过元数据读取")
			} else {
				lv.Warn("读取元数据失败，按无元数据处理")
			}
		}
		return domain.CaptureDate{}, false
	}
	if src == "" {
		if p.Log != nil {
			p.Log.WithField("path", path).Debug("未找到日期类元数据")
		}
		return domain.CaptureDate{}, false
	}
	if p.Log != nil {
		p.Log.WithFields(logrus.Fields{"path": path, "source": src, "date": d.String()}).Debug("读取到拍摄日期")
	}
	return d, true
}

// read 返回 (日期, 来源标签, 错误)；来源为空表示文件正常但没有日期。
func (p Probe) read(path string) (domain.CaptureDate, string, error) {
	f, err := p.FS.Open(path)
	if err != nil {
		return domain.CaptureDate{}, "", err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return domain.CaptureDate{}, "", err
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return domain.CaptureDate{}, "", fmt.Errorf("%w：%s", errNotMedia, mt.String())
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return domain.CaptureDate{}, "", err
	}
	if d, tag, ok := exifDate(f); ok {
		return d, "exif:" + tag, nil
	}

	// EXIF 缺失或没有日期字段：回退到 XMP packet（编辑软件导出的 PNG/JPEG 常见）。
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return domain.CaptureDate{}, "", err
	}
	d, key, ok, err := xmpDate(f)
	if err != nil {
		return domain.CaptureDate{}, "", err
	}
	if ok {
		return d, "xmp:" + key, nil
	}
	return domain.CaptureDate{}, "", nil
}

// exifDate 读取 EXIF 中第一个非空的日期字段。EXIF 解析失败视为“没有 EXIF”。
func exifDate(r io.Reader) (domain.CaptureDate, string, bool) {
	x, err := exif.Decode(r)
	if err != nil {
		return domain.CaptureDate{}, "", false
	}
	for _, name := range exifDateTags {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil || strings.TrimSpace(strings.Trim(s, "\x00")) == "" {
			continue
		}
		if d, ok := ParseDate(s); ok {
			return d, string(name), true
		}
	}
	return domain.CaptureDate{}, "", false
}

// ParseDate 把元数据中的日期字符串规范化为年月日，丢弃时分秒。
//
// 支持：
// - EXIF："2023:05:10 12:00:00"
// - XMP/ISO："2023-05-10T12:00:00+02:00"、"2023-05"
func ParseDate(s string) (domain.CaptureDate, bool) {
	s = strings.TrimSpace(strings.Trim(s, "\x00"))
	if i := strings.IndexAny(s, " T"); i >= 0 {
		s = s[:i]
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '-' || r == '/' })
	if len(parts) < 2 || len(parts) > 3 {
		return domain.CaptureDate{}, false
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return domain.CaptureDate{}, false
		}
		nums[i] = n
	}
	return domain.CaptureDate{Year: nums[0], Month: nums[1], Day: nums[2]}, true
}
