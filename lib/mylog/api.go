package mylog

import (
	"context"
	"os"
	"strings"
)

type Severity string

const (
	SeverityDebug Severity = "DEBUG"
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

var New func(name string) Logger

type Logger interface {
	Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any)
}

var severityRank = map[Severity]int{
	SeverityDebug: 0,
	SeverityInfo:  1,
	SeverityWarn:  2,
	SeverityError: 3,
}

// minimumSeverity is read once from LOG_LEVEL; unknown values mean DEBUG.
var minimumSeverity = parseSeverity(os.Getenv("LOG_LEVEL"))

func parseSeverity(level string) Severity {
	s := Severity(strings.ToUpper(strings.TrimSpace(level)))
	if _, known := severityRank[s]; !known {
		return SeverityDebug
	}
	return s
}

func enabled(severity Severity) bool {
	return severityRank[severity] >= severityRank[minimumSeverity]
}
