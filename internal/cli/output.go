package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorWarning = color.New(color.FgYellow).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
	colorFaint   = color.New(color.Faint).SprintFunc()
)

// Output 提供结构化的终端输出
type Output struct {
	w       io.Writer
	noColor bool
}

// NewOutput 创建输出工具，w 为 nil 时写到标准输出；非终端输出不着色
func NewOutput(w io.Writer, noColor bool) *Output {
	if w == nil {
		w = os.Stdout
	}
	if !noColor && !isTerminal(w) {
		noColor = true
	}
	if noColor {
		color.NoColor = true
	}
	return &Output{w: w, noColor: noColor}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Success 输出成功消息
func (o *Output) Success(format string, args ...interface{}) {
	fmt.Fprintf(o.w, "%s %s\n", colorSuccess("✔"), fmt.Sprintf(format, args...))
}

// Error 输出错误消息
func (o *Output) Error(format string, args ...interface{}) {
	fmt.Fprintf(o.w, "%s %s\n", colorError("✘"), fmt.Sprintf(format, args...))
}

// Warning 输出警告消息
func (o *Output) Warning(format string, args ...interface{}) {
	fmt.Fprintf(o.w, "%s %s\n", colorWarning("!"), fmt.Sprintf(format, args...))
}

// Info 输出信息消息
func (o *Output) Info(format string, args ...interface{}) {
	fmt.Fprintf(o.w, "%s %s\n", colorInfo("•"), fmt.Sprintf(format, args...))
}

// Plain 输出普通消息
func (o *Output) Plain(format string, args ...interface{}) {
	fmt.Fprintf(o.w, format+"\n", args...)
}

// Section 输出分节标题
func (o *Output) Section(title string) {
	fmt.Fprintln(o.w)
	fmt.Fprintln(o.w, colorBold(title))
	fmt.Fprintln(o.w, strings.Repeat("─", min(len(title), 80)))
}

// KeyValue 输出键值对
func (o *Output) KeyValue(key, value string) {
	fmt.Fprintf(o.w, "  %-20s %s\n", key+":", value)
}

// Separator 输出分隔线
func (o *Output) Separator() {
	fmt.Fprintln(o.w, colorFaint(strings.Repeat("━", 60)))
}

// Table 简单的对齐表格
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable 创建表格
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{headers: headers, widths: widths}
}

// AddRow 添加行
func (t *Table) AddRow(cols ...string) {
	for i, col := range cols {
		if i < len(t.widths) && len(col) > t.widths[i] {
			t.widths[i] = len(col)
		}
	}
	t.rows = append(t.rows, cols)
}

// Render 渲染表格
func (t *Table) Render(o *Output) {
	// 颜色控制符不计入宽度，表头先填充再着色
	for i, header := range t.headers {
		fmt.Fprintf(o.w, "%s  ", colorBold(fmt.Sprintf("%-*s", t.widths[i], header)))
	}
	fmt.Fprintln(o.w)

	total := 0
	for _, w := range t.widths {
		total += w + 2
	}
	fmt.Fprintln(o.w, strings.Repeat("─", min(total, 120)))

	for _, row := range t.rows {
		for i, col := range row {
			if i < len(t.widths) {
				fmt.Fprintf(o.w, "%-*s  ", t.widths[i], col)
			}
		}
		fmt.Fprintln(o.w)
	}
}
