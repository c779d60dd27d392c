package source

import (
	"strings"
	"unicode/utf8"

	"vulnmerge/internal/core/logger"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ===========================================
// 字符编码处理工具
// ===========================================

// TextDecoder 将非UTF-8的单元格文本按配置的字符集转换为UTF-8
// 旧版 .xls 中部分字符串以本地代码页保存，读取后可能不是合法的UTF-8
type TextDecoder struct {
	name string
	enc  encoding.Encoding
}

// NewTextDecoder 创建解码器，name 为空或为 utf-8 时只做原样返回
func NewTextDecoder(name string) *TextDecoder {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "utf-8", "utf8":
		return &TextDecoder{name: "utf-8"}
	case "gbk", "gb2312", "gb18030":
		// charset.Lookup 会把 gb2312 映射为 GBK，这里按名称显式选择
		if name == "gb18030" {
			return &TextDecoder{name: name, enc: simplifiedchinese.GB18030}
		}
		return &TextDecoder{name: "gbk", enc: simplifiedchinese.GBK}
	}

	enc, canonical := charset.Lookup(name)
	if enc == nil {
		logger.Warnf("不支持的编码格式: %s, 按UTF-8处理", name)
		return &TextDecoder{name: "utf-8"}
	}
	return &TextDecoder{name: canonical, enc: enc}
}

// Name 字符集名称
func (d *TextDecoder) Name() string {
	return d.name
}

// Decode 合法的UTF-8文本原样返回，否则尝试转换；转换失败时返回原文
func (d *TextDecoder) Decode(s string) string {
	if d == nil || d.enc == nil || s == "" || utf8.ValidString(s) {
		return s
	}
	out, _, err := transform.String(d.enc.NewDecoder(), s)
	if err != nil {
		logger.Debugf("%s转换失败: %v", d.name, err)
		return s
	}
	return out
}

// DecodeTable 转换整张表
func (d *TextDecoder) DecodeTable(rows [][]string) [][]string {
	for i, row := range rows {
		for j, cell := range row {
			rows[i][j] = d.Decode(cell)
		}
	}
	return rows
}
