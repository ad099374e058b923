package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	// IANA zones for Windows builds
	_ "time/tzdata"

	"github.com/tphakala/zclstore/internal/errors"
)

// traceLevelValue is slog.Level for TRACE, below Debug (-4).
const traceLevelValue = slog.Level(-8)

// maxLevelWidth pads level labels in console output.
const maxLevelWidth = 5

// CentralLogger routes the records of each module to its outputs.
//
// Modules without a dedicated file share the base route: the console and,
// when enabled, the main JSON log file. A module listed under
// logging.modules gets its own JSON file and is mirrored to the console
// only when console_also is set. Routes are built once by NewCentralLogger;
// Module only looks them up.
type CentralLogger struct {
	timezone     *time.Location
	defaultLevel slog.Level
	levels       map[string]slog.Level // logging.module_levels
	base         slog.Handler
	routes       map[string]route // modules with a dedicated file
	files        []*BufferedFileWriter

	closeOnce sync.Once
	closeErr  error
}

// route is the output of one module with a dedicated file.
type route struct {
	handler slog.Handler
	level   slog.Level
}

// NewCentralLogger opens every configured output. Missing sections of cfg
// are filled with defaults first, so a partial config never silences logging.
func NewCentralLogger(cfg *LoggingConfig) (*CentralLogger, error) {
	if cfg == nil {
		return nil, errors.NewStd("logging config cannot be nil")
	}
	applyConfigDefaults(cfg)

	tz, err := loadTimezone(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	cl := &CentralLogger{
		timezone:     tz,
		defaultLevel: parseLogLevel(cfg.DefaultLevel),
		levels:       make(map[string]slog.Level, len(cfg.ModuleLevels)),
		routes:       make(map[string]route),
	}
	for module, level := range cfg.ModuleLevels {
		cl.levels[module] = parseLogLevel(level)
	}

	if err := cl.buildRoutes(cfg); err != nil {
		_ = cl.Close()
		return nil, err
	}
	return cl, nil
}

func loadTimezone(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	tz, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", name, err)
	}
	return tz, nil
}

func (cl *CentralLogger) buildRoutes(cfg *LoggingConfig) error {
	var console slog.Handler
	if cfg.Console.Enabled {
		console = newTextHandler(os.Stdout, parseLogLevel(cfg.Console.Level), cl.timezone)
	}

	var base []slog.Handler
	if console != nil {
		base = append(base, console)
	}
	if cfg.FileOutput.Enabled {
		h, err := cl.openJSON(cfg.FileOutput.Path, parseLogLevel(cfg.FileOutput.Level), cfg.FileOutput.FlushInterval)
		if err != nil {
			return err
		}
		base = append(base, h)
	}
	if len(base) == 0 {
		base = append(base, newTextHandler(os.Stdout, cl.defaultLevel, cl.timezone))
	}
	cl.base = fanout(base...)

	for module, out := range cfg.ModuleOutputs {
		if !out.Enabled {
			continue
		}

		// The module's own file level wins over module_levels.
		level := cl.levelOf(module)
		if out.Level != "" {
			level = parseLogLevel(out.Level)
		}

		h, err := cl.openJSON(out.FilePath, level, cfg.FileOutput.FlushInterval)
		if err != nil {
			return fmt.Errorf("module %s: %w", module, err)
		}
		outputs := []slog.Handler{h}
		if out.ConsoleAlso && console != nil {
			outputs = append(outputs, newTextHandler(os.Stdout, level, cl.timezone))
		}
		cl.routes[module] = route{handler: fanout(outputs...), level: level}
	}
	return nil
}

// openJSON opens a buffered log file and returns a JSON handler on it.
// Timestamps are RFC3339 in the configured timezone.
func (cl *CentralLogger) openJSON(path string, level slog.Level, flushInterval time.Duration) (slog.Handler, error) {
	w, err := NewBufferedFileWriter(path, flushInterval)
	if err != nil {
		return nil, err
	}
	cl.files = append(cl.files, w)

	tz := cl.timezone
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Time(a.Key, a.Value.Time().In(tz))
			}
			return a
		},
	}), nil
}

// levelOf resolves a module level: exact name, then the first segment of a
// dotted name, then the default level.
func (cl *CentralLogger) levelOf(module string) slog.Level {
	if level, ok := cl.levels[module]; ok {
		return level
	}
	if root, _, dotted := strings.Cut(module, "."); dotted {
		if level, ok := cl.levels[root]; ok {
			return level
		}
	}
	return cl.defaultLevel
}

// Module returns a logger for name. A dotted name such as "datastore.sqlite"
// follows the route of its first segment.
func (cl *CentralLogger) Module(name string) Logger {
	if cl == nil {
		return Discard()
	}

	root, _, _ := strings.Cut(name, ".")
	if r, ok := cl.routes[root]; ok {
		return &moduleLogger{module: name, logger: slog.New(r.handler), level: r.level}
	}
	return &moduleLogger{module: name, logger: slog.New(cl.base), level: cl.levelOf(name)}
}

// Close flushes, syncs and closes every log file. It is safe to call more
// than once.
func (cl *CentralLogger) Close() error {
	if cl == nil {
		return nil
	}
	cl.closeOnce.Do(func() {
		var errs []error
		for _, w := range cl.files {
			errs = append(errs, w.Close())
		}
		cl.closeErr = errors.Join(errs...)
	})
	return cl.closeErr
}

// parseLogLevel converts a configured level name. Unknown names mean info;
// conf.ValidateSettings rejects them before a logger is built.
func parseLogLevel(level string) slog.Level {
	switch LogLevel(level) {
	case LogLevelTrace:
		return traceLevelValue
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
