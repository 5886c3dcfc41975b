package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const colorReset = "\033[0m"

var levelStyles = map[string]struct{ tag, color string }{
	zerolog.LevelTraceValue: {"TRC", "\033[90m"},
	zerolog.LevelDebugValue: {"DBG", "\033[36m"},
	zerolog.LevelInfoValue:  {"INF", "\033[32m"},
	zerolog.LevelWarnValue:  {"WRN", "\033[33m"},
	zerolog.LevelErrorValue: {"ERR", "\033[31m"},
	zerolog.LevelFatalValue: {"FTL", "\033[35m"},
}

// consoleWriter prints "[VOI][INF] msg key:value" lines for terminals.
func consoleWriter(out io.Writer, service string, noColor bool) zerolog.ConsoleWriter {
	paint := func(color, s string) string {
		if noColor {
			return s
		}
		return color + s + colorReset
	}
	svc := ""
	if len(service) >= 3 && service != "default" {
		svc = paint("\033[34m", "["+strings.ToUpper(service[:3])+"]")
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			raw := fmt.Sprint(i)
			style, ok := levelStyles[raw]
			if !ok {
				return svc + "[" + strings.ToUpper(raw) + "]"
			}
			return svc + paint(style.color, "["+style.tag+"]")
		},
		FormatFieldName: func(i interface{}) string { return fmt.Sprint(i) + ":" },
	}
}
