package probe

import (
	"bytes"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/sortfiles/internal/domain"
)

// xmpScanLimit 是查找 XMP packet 时最多读取的字节数；packet 通常位于文件头部。
const xmpScanLimit = 1 << 20

// xmpDateKeys 按优先级排列；既可能以属性形式出现（rdf:Description 上），也可能是子元素。
// HTML 解析器会把名字转成小写，这里直接用小写。
var xmpDateKeys = []string{
	"exif:datetimeoriginal",
	"xmp:createdate",
	"photoshop:datecreated",
	"exif:datetimedigitized",
}

var (
	xmpOpen  = []byte("<x:xmpmeta")
	xmpClose = []byte("</x:xmpmeta>")
)

// xmpDate 在文件头部查找 XMP packet 并读取日期。
// 找不到 packet 或 packet 中没有日期：ok=false 且 err=nil。
func xmpDate(r io.Reader) (domain.CaptureDate, string, bool, error) {
	b, err := io.ReadAll(io.LimitReader(r, xmpScanLimit))
	if err != nil {
		return domain.CaptureDate{}, "", false, err
	}
	packet := extractPacket(b)
	if packet == nil {
		return domain.CaptureDate{}, "", false, nil
	}

	// XMP 是 RDF/XML；goquery 的宽松 HTML 解析足以按名字定位元素与属性。
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(packet))
	if err != nil {
		return domain.CaptureDate{}, "", false, err
	}

	for _, key := range xmpDateKeys {
		v := lookupXMP(doc, key)
		if v == "" {
			continue
		}
		if d, ok := ParseDate(v); ok {
			return d, key, true, nil
		}
	}
	return domain.CaptureDate{}, "", false, nil
}

func extractPacket(b []byte) []byte {
	i := bytes.Index(b, xmpOpen)
	if i < 0 {
		return nil
	}
	j := bytes.Index(b[i:], xmpClose)
	if j < 0 {
		return nil
	}
	return b[i : i+j+len(xmpClose)]
}

// lookupXMP 返回 key 的第一个非空值：先看属性，再看同名元素的文本。
func lookupXMP(doc *goquery.Document, key string) string {
	var out string
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(key); ok && strings.TrimSpace(v) != "" {
			out = strings.TrimSpace(v)
			return false
		}
		if goquery.NodeName(s) == key {
			if v := strings.TrimSpace(s.Text()); v != "" {
				out = v
				return false
			}
		}
		return true
	})
	return out
}
