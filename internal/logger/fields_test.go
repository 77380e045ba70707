package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	t.Parallel()

	fields := StringFields(
		StringField{Key: "  scorer  ", Value: "  keyword  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Key != "scorer" || fields[0].String != "keyword" {
		t.Fatalf("unexpected field: %+v", fields[0])
	}
}

func TestWithCommonFields(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)

	WithCommonFields(zap.New(core), "gemini", "").Info("judge request")
	WithCommonFields(zap.New(core), "", "gpt-4o").Info("judge request")

	entries := observed.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0].ContextMap()
	if first[FieldProvider] != "gemini" {
		t.Fatalf("unexpected provider: %v", first[FieldProvider])
	}
	if _, ok := first[FieldModel]; ok {
		t.Fatal("empty model must not be logged")
	}

	if second := entries[1].ContextMap(); second[FieldModel] != "gpt-4o" || len(second) != 1 {
		t.Fatalf("unexpected fields: %v", second)
	}
}

func TestWithRun(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	WithRun(zap.New(core), "run-1").Info("batch scored")

	if got := observed.All()[0].ContextMap()[FieldRunID]; got != "run-1" {
		t.Fatalf("unexpected run id: %v", got)
	}

	// nil logger falls back to a no-op one
	WithRun(nil, "run-1").Info("ignored")
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, json := range []bool{true, false} {
		log, err := New(json, true)
		if err != nil {
			t.Fatalf("New(%v) error: %v", json, err)
		}
		if !log.Core().Enabled(zapcore.DebugLevel) {
			t.Fatal("debug level must be enabled")
		}
	}
}
