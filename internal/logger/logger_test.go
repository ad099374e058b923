package logger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSlogLoggerModuleNaming(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelDebug, nil)

	log.Module("ingest").Module("normalize").Info("rows written",
		Int("clusters", 3),
		Uint64("package_id", 7))

	out := buf.String()
	assert.Contains(t, out, "module=ingest.normalize")
	assert.Contains(t, out, "clusters=3")
	assert.Contains(t, out, "package_id=7")
	assert.Contains(t, out, `msg="rows written"`)
}

func TestSlogLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelWarn, nil)

	log.Debug("hidden")
	log.Info("hidden too")
	assert.Empty(t, buf.String())

	log.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestSlogLoggerTraceLabel(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelTrace, nil)

	log.Trace("statement")
	assert.Contains(t, buf.String(), "TRACE")
}

func TestWithContextAddsTraceID(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelInfo, nil).Module("ingest")

	ctx := WithTraceID(context.Background(), "load-123")
	log.WithContext(ctx).Info("load started")
	assert.Contains(t, buf.String(), "trace_id=load-123")

	buf.Reset()
	log.WithContext(context.Background()).Info("no trace")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestWithDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewSlogLogger(&buf, LogLevelInfo, nil)
	child := parent.With(String("locator", "/defs/zcl.yaml"))

	child.Info("child")
	assert.Contains(t, buf.String(), "locator=/defs/zcl.yaml")

	buf.Reset()
	parent.Info("parent")
	assert.NotContains(t, buf.String(), "locator")
}

func TestDiscardLoggerIsSilent(t *testing.T) {
	log := Discard()
	assert.NotPanics(t, func() {
		log.Error("dropped", Error(os.ErrNotExist))
		log.Module("x").Info("dropped")
	})
}

func TestCentralLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "zclstore.log")
	cfg := &LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: false},
		FileOutput: &FileOutput{
			Enabled:       true,
			Path:          path,
			Level:         "debug",
			FlushInterval: time.Hour,
		},
		ModuleOutputs: map[string]ModuleOutput{
			"ingest": {Enabled: false},
			"api":    {Enabled: false},
		},
	}

	central, err := NewCentralLogger(cfg)
	require.NoError(t, err)

	central.Module("datastore").Info("database opened", String("type", "sqlite"))
	require.NoError(t, central.Close())

	f, err := os.Open(path) //nolint:gosec // test temp file
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var record map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
	assert.Equal(t, "database opened", record["msg"])
	assert.Equal(t, "datastore", record["module"])
	assert.Equal(t, "sqlite", record["type"])
}

func TestCentralLoggerModuleFile(t *testing.T) {
	dir := t.TempDir()
	ingestPath := filepath.Join(dir, "ingest.log")
	cfg := &LoggingConfig{
		DefaultLevel: "info",
		Console:      &ConsoleOutput{Enabled: false},
		FileOutput:   &FileOutput{Enabled: true, Path: filepath.Join(dir, "main.log"), Level: "info"},
		ModuleOutputs: map[string]ModuleOutput{
			"ingest": {Enabled: true, FilePath: ingestPath, Level: "info"},
			"api":    {Enabled: false},
		},
	}

	central, err := NewCentralLogger(cfg)
	require.NoError(t, err)

	central.Module("ingest").Info("package loaded")
	central.Module("ingest").Module("resolve").Info("responses linked")
	central.Module("cli").Info("starting")
	require.NoError(t, central.Close())
	require.NoError(t, central.Close())

	ingestLog, err := os.ReadFile(ingestPath) //nolint:gosec // test temp file
	require.NoError(t, err)
	assert.Contains(t, string(ingestLog), "package loaded")
	assert.Contains(t, string(ingestLog), `"module":"ingest.resolve"`)
	assert.NotContains(t, string(ingestLog), "starting")

	mainLog, err := os.ReadFile(filepath.Join(dir, "main.log")) //nolint:gosec // test temp file
	require.NoError(t, err)
	assert.Contains(t, string(mainLog), "starting")
	assert.NotContains(t, string(mainLog), "package loaded")
}

func TestCentralLoggerModuleLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.log")
	cfg := &LoggingConfig{
		DefaultLevel: "info",
		Console:      &ConsoleOutput{Enabled: false},
		FileOutput:   &FileOutput{Enabled: true, Path: path, Level: "trace"},
		ModuleOutputs: map[string]ModuleOutput{
			ModuleIngest: {Enabled: false},
			ModuleAPI:    {Enabled: false},
		},
		ModuleLevels: map[string]string{ModuleDatastore: "debug"},
	}

	central, err := NewCentralLogger(cfg)
	require.NoError(t, err)

	central.Module("datastore.sqlite").Debug("pragma applied")
	central.Module(ModuleCLI).Debug("cli chatter")
	require.NoError(t, central.Close())

	out, err := os.ReadFile(path) //nolint:gosec // test temp file
	require.NoError(t, err)
	assert.Contains(t, string(out), "pragma applied")
	assert.NotContains(t, string(out), "cli chatter")
}

func TestFanoutFiltersEachOutput(t *testing.T) {
	var debugOut, warnOut bytes.Buffer
	h := fanout(
		newTextHandler(&debugOut, slog.LevelDebug, time.UTC),
		newTextHandler(&warnOut, slog.LevelWarn, time.UTC),
	)
	log := &moduleLogger{logger: slog.New(h), level: slog.LevelDebug}

	log.Debug("details")
	log.Warn("trouble")

	assert.Contains(t, debugOut.String(), "details")
	assert.Contains(t, debugOut.String(), "trouble")
	assert.NotContains(t, warnOut.String(), "details")
	assert.Contains(t, warnOut.String(), "trouble")
}

func TestBufferedFileWriterFlushesPeriodically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "w.log")
	w, err := NewBufferedFileWriter(path, 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	_, err = w.Write([]byte("flushed\n"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path) //nolint:gosec // test temp file
		return err == nil && string(data) == "flushed\n"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTraceIDRoundTrip(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))

	id := NewTraceID()
	assert.Len(t, id, 8)
	assert.Equal(t, id, TraceID(WithTraceID(context.Background(), id)))
	assert.NotEqual(t, id, NewTraceID())
}

func TestNewCentralLoggerRejectsBadTimezone(t *testing.T) {
	_, err := NewCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus_Mons"})
	require.Error(t, err)

	_, err = NewCentralLogger(nil)
	require.Error(t, err)
}

func TestBufferedFileWriterCloseIsIdempotent(t *testing.T) {
	w, err := NewBufferedFileWriter(filepath.Join(t.TempDir(), "w.log"), time.Hour)
	require.NoError(t, err)

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, w.Buffered())

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	require.Error(t, err)
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t,
		"zcl:[REDACTED]@tcp(db:3306)/zcl?parseTime=true",
		RedactDSN("zcl:s3cret@tcp(db:3306)/zcl?parseTime=true"))
	assert.Equal(t,
		"data/zcl.db?_journal_mode=WAL",
		RedactDSN("data/zcl.db?_journal_mode=WAL"))
}

func TestRedactSensitiveData(t *testing.T) {
	out := RedactSensitiveData("connecting with password=hunter2222 to https://0123456789abcdef0123@o1.ingest.sentry.io/5")
	assert.NotContains(t, out, "hunter2222")
	assert.NotContains(t, out, "0123456789abcdef0123")
	assert.Empty(t, RedactSensitiveData(""))
}

func TestGormAdapterLevels(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewGormLoggerAdapter(NewSlogLogger(&buf, LogLevelDebug, nil), 10*time.Millisecond)
	ctx := WithTraceID(context.Background(), "load-9")
	stmt := func() (string, int64) { return "INSERT INTO `packages` ...", 1 }

	adapter.Trace(ctx, time.Now(), stmt, gorm.ErrDuplicatedKey)
	assert.Contains(t, buf.String(), "duplicate key")
	assert.Contains(t, buf.String(), "trace_id=load-9")

	buf.Reset()
	adapter.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	assert.Contains(t, buf.String(), "slow query")

	buf.Reset()
	adapter.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "query error")
}
