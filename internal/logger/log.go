package logger

import (
	"fmt"
	"strings"

	"github.com/logrusorgru/aurora/v3"
)

type Printer interface {
	Output(calldepth int, s string) error
}

type Logger interface {
	Successf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Error(err error)
	SQL(query string, args ...interface{})
}

type kind int

const (
	successMsg kind = iota
	debugMsg
	errorMsg
	sqlMsg
)

func (k kind) label() string {
	switch k {
	case debugMsg:
		return "blueprint debug:"
	case errorMsg:
		return "blueprint error:"
	case sqlMsg:
		return "blueprint sql:"
	default:
		return "blueprint:"
	}
}

// migrationLog prints one line per message, sql statements and
// debug messages only when enabled
type migrationLog struct {
	printer Printer
	debug   bool
	sql     bool
	paint   func(k kind, line string) string
}

func (ml migrationLog) Debugf(format string, args ...interface{}) {
	if ml.debug {
		ml.emit(debugMsg, fmt.Sprintf(format, args...))
	}
}

func (ml migrationLog) Successf(format string, args ...interface{}) {
	ml.emit(successMsg, fmt.Sprintf(format, args...))
}

func (ml migrationLog) Error(err error) {
	ml.emit(errorMsg, err.Error())
}

func (ml migrationLog) SQL(query string, args ...interface{}) {
	if ml.sql {
		ml.emit(sqlMsg, formatSQL(query, args))
	}
}

func (ml migrationLog) emit(k kind, msg string) {
	line := k.label() + " " + msg
	if ml.paint != nil {
		line = ml.paint(k, line)
	}

	_ = ml.printer.Output(3, line)
}

// ColoredLogger highlights each kind of message with its own terminal color
type ColoredLogger struct {
	migrationLog
}

// BWLogger prints the same lines as ColoredLogger without escape sequences
type BWLogger struct {
	migrationLog
}

var _ Logger = (*ColoredLogger)(nil)
var _ Logger = (*BWLogger)(nil)

func NewColorLogger(p Printer, sql, debug bool) *ColoredLogger {
	return &ColoredLogger{migrationLog{printer: p, debug: debug, sql: sql, paint: colorize}}
}

func NewBWLogger(p Printer, sql, debug bool) *BWLogger {
	return &BWLogger{migrationLog{printer: p, debug: debug, sql: sql}}
}

func colorize(k kind, line string) string {
	switch k {
	case debugMsg:
		return aurora.Yellow(line).String()
	case errorMsg:
		return aurora.Red(line).String()
	case sqlMsg:
		return aurora.Gray(15, line).String()
	default:
		return aurora.Green(line).String()
	}
}

// formatSQL renders the statement followed by its bound arguments: query [args: 5, "x"]
func formatSQL(query string, args []interface{}) string {
	if len(args) == 0 {
		return query
	}

	rendered := make([]string, 0, len(args))
	for _, a := range args {
		rendered = append(rendered, fmt.Sprintf("%#v", a))
	}

	return query + " [args: " + strings.Join(rendered, ", ") + "]"
}
