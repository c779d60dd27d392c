package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vulnmerge/internal/core/logger"
	"vulnmerge/internal/core/types"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrMissingSheet 缺少所需工作表
	ErrMissingSheet = errors.New("缺少工作表")
	// ErrUnreadable 文件无法打开或解析
	ErrUnreadable = errors.New("无法读取文件")
)

// Workbook 只读工作簿
type Workbook interface {
	SheetNames() []string
	Rows(sheet string) (types.Table, error)
	Close() error
}

// Tables 单个输入文件中用到的两张表
type Tables struct {
	VulnSheet string
	InfoSheet string
	Vuln      types.Table
	Info      types.Table
}

// Loader 按扩展名选择读取方式
type Loader struct {
	vulnSheets []string
	infoSheets []string
	decoder    *TextDecoder
}

// NewLoader 创建加载器；vulnSheets、infoSheets 为可接受的工作表名，按顺序匹配
func NewLoader(vulnSheets, infoSheets []string, decoder *TextDecoder) *Loader {
	if decoder == nil {
		decoder = NewTextDecoder("")
	}
	return &Loader{vulnSheets: vulnSheets, infoSheets: infoSheets, decoder: decoder}
}

// Open 打开工作簿
func (l *Loader) Open(path string) (Workbook, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls":
		return openXLS(path)
	default:
		return openXLSX(path)
	}
}

// Load 读取远程漏洞表和其它信息表
func (l *Loader) Load(path string) (*Tables, error) {
	wb, err := l.Open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	names := wb.SheetNames()
	vulnSheet, ok := FindSheet(names, l.vulnSheets)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingSheet, strings.Join(l.vulnSheets, "/"))
	}
	infoSheet, ok := FindSheet(names, l.infoSheets)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingSheet, strings.Join(l.infoSheets, "/"))
	}

	vuln, err := wb.Rows(vulnSheet)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取工作表 %s 失败: %v", ErrUnreadable, vulnSheet, err)
	}
	info, err := wb.Rows(infoSheet)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取工作表 %s 失败: %v", ErrUnreadable, infoSheet, err)
	}

	logger.Debugf("%s: 工作表 %s %d 行, %s %d 行", filepath.Base(path), vulnSheet, len(vuln), infoSheet, len(info))
	return &Tables{
		VulnSheet: vulnSheet,
		InfoSheet: infoSheet,
		Vuln:      types.Table(l.decoder.DecodeTable(vuln)),
		Info:      types.Table(l.decoder.DecodeTable(info)),
	}, nil
}

// FindSheet 按别名顺序查找工作表，先精确匹配，再忽略首尾空白和大小写
func FindSheet(names, aliases []string) (string, bool) {
	for _, alias := range aliases {
		for _, name := range names {
			if name == alias {
				return name, true
			}
		}
	}
	for _, alias := range aliases {
		want := strings.ToLower(strings.TrimSpace(alias))
		for _, name := range names {
			if strings.ToLower(strings.TrimSpace(name)) == want {
				return name, true
			}
		}
	}
	return "", false
}

// ===========================================
// xlsx
// ===========================================

type xlsxWorkbook struct {
	file *excelize.File
}

func openXLSX(path string) (Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return &xlsxWorkbook{file: f}, nil
}

func (w *xlsxWorkbook) SheetNames() []string {
	return w.file.GetSheetList()
}

func (w *xlsxWorkbook) Rows(sheet string) (types.Table, error) {
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return types.Table(rows), nil
}

func (w *xlsxWorkbook) Close() error {
	return w.file.Close()
}

// ===========================================
// xls (BIFF)
// ===========================================

type xlsWorkbook struct {
	book *xls.WorkBook
	file *os.File
}

// openXLS 自行打开文件交给 xls.OpenReader，保证句柄在 Close 时释放
// 解析库遇到损坏文件可能 panic，这里统一转换为 ErrUnreadable
func openXLS(path string) (wb Workbook, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer func() {
		if r := recover(); r != nil {
			wb, err = nil, fmt.Errorf("%w: 解析异常: %v", ErrUnreadable, r)
		}
		if err != nil {
			f.Close()
		}
	}()

	book, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if book == nil {
		return nil, fmt.Errorf("%w: 不是有效的xls文件", ErrUnreadable)
	}
	return &xlsWorkbook{book: book, file: f}, nil
}

func (w *xlsWorkbook) SheetNames() []string {
	names := make([]string, 0, w.book.NumSheets())
	for i := 0; i < w.book.NumSheets(); i++ {
		if sheet := w.book.GetSheet(i); sheet != nil {
			names = append(names, sheet.Name)
		}
	}
	return names
}

func (w *xlsWorkbook) Rows(name string) (table types.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			table, err = nil, fmt.Errorf("解析工作表 %s 异常: %v", name, r)
		}
	}()

	for i := 0; i < w.book.NumSheets(); i++ {
		sheet := w.book.GetSheet(i)
		if sheet == nil || sheet.Name != name {
			continue
		}

		table = make(types.Table, 0, int(sheet.MaxRow)+1)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				table = append(table, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			table = append(table, trimRow(cells))
		}
		return trimTable(table), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingSheet, name)
}

func (w *xlsWorkbook) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// trimRow 去掉行尾空单元格，与 excelize.GetRows 的结果保持一致
func trimRow(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}

// trimTable 去掉表尾空行
func trimTable(table types.Table) types.Table {
	n := len(table)
	for n > 0 && len(table[n-1]) == 0 {
		n--
	}
	return table[:n]
}
