package style_test

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"rstyle/css"
	"rstyle/style"
)

// rules parses text and numbers rules in source order.
func rules(t *testing.T, text string) []css.Rule {
	t.Helper()
	sheet, err := css.NewParser(zap.NewNop()).Parse([]byte(text), t.Name())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for i := range sheet.Rules {
		sheet.Rules[i].SourceOrder = i
	}
	return sheet.Rules
}

func context(t *testing.T, text string) style.Context {
	t.Helper()
	c, err := style.ParseContext(text)
	if err != nil {
		t.Fatalf("ParseContext(%q) failed: %v", text, err)
	}
	return c
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return zap.New(core), logs
}

func resolve(t *testing.T, text, ctx string) *style.Resolved {
	t.Helper()
	return style.NewResolver(zap.NewNop()).Resolve(rules(t, text), context(t, ctx))
}
