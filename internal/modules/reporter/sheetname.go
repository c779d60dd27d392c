package report

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxSheetNameLength Excel 工作表名称最大长度
const MaxSheetNameLength = 31

var invalidSheetChars = strings.NewReplacer(
	":", "", `\`, "", "/", "", "?", "", "*", "", "[", "", "]", "",
)

// SheetName 由主机标识生成工作表名：删除 Excel 不允许的字符后截断到31个字符
func SheetName(host string) string {
	name := strings.Trim(invalidSheetChars.Replace(host), "'")
	name = truncateRunes(name, MaxSheetNameLength)
	if strings.TrimSpace(name) == "" {
		return "Sheet"
	}
	return name
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// sheetNamer 保证工作表名在工作簿内唯一（Excel 比较时不区分大小写）
type sheetNamer struct {
	used map[string]struct{}
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]struct{})}
}

// Reserve 返回可用的名称，冲突时追加 _2、_3 ...
func (n *sheetNamer) Reserve(name string) string {
	if name == "" {
		name = "Sheet"
	}
	candidate := truncateRunes(name, MaxSheetNameLength)
	for i := 2; n.taken(candidate); i++ {
		suffix := "_" + strconv.Itoa(i)
		candidate = truncateRunes(name, MaxSheetNameLength-utf8.RuneCountInString(suffix)) + suffix
	}
	n.used[strings.ToLower(candidate)] = struct{}{}
	return candidate
}

func (n *sheetNamer) taken(name string) bool {
	_, ok := n.used[strings.ToLower(name)]
	return ok
}
