package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/op/go-logging"
)

type Level logging.Level

// The levels that can be passed to the SetLevel function.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levelNames = [...]string{"debug", "info", "notice", "warning", "error"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", int(l))
}

func (l Level) backendLevel() logging.Level {
	switch l {
	case Debug:
		return logging.DEBUG
	case Info:
		return logging.INFO
	case Warning:
		return logging.WARNING
	case Error:
		return logging.ERROR
	}
	return logging.NOTICE
}

var (
	colorFormat = logging.MustStringFormatter(
		`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
	)
	plainFormat = logging.MustStringFormatter(
		`[%{time:15:04:05.000}] [%{module}] [%{level}] %{message}`,
	)
)

// The logger interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// Backend state. Levels survive sink changes; the empty module name holds
// the default level.
var (
	mu             sync.Mutex
	formatted      logging.Backend
	leveledBackend logging.LeveledBackend
	levels         = map[string]Level{"": Notice}
)

// Create a new named logger. Modules use their package name.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// Override the backend output sink. Colors are only emitted when the sink
// is a terminal.
func SetSink(sink io.Writer) {
	format := plainFormat
	if f, ok := sink.(*os.File); ok && isTerminal(f) {
		format = colorFormat
	}
	setBackend(sink, format)
}

func setBackend(sink io.Writer, format logging.Formatter) {
	mu.Lock()
	defer mu.Unlock()

	formatted = logging.NewBackendFormatter(logging.NewLogBackend(sink, "", 0), format)
	installLeveled()
}

// Wrap the formatted backend with the current levels. Callers hold mu.
func installLeveled() {
	leveledBackend = logging.AddModuleLevel(formatted)
	for module, level := range levels {
		leveledBackend.SetLevel(level.backendLevel(), module)
	}
	logging.SetBackend(leveledBackend)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// Set the default logger verbosity. Module specific levels set via
// SetModuleLevel are kept.
func SetLevel(level Level) {
	SetModuleLevel("", level)
}

// Set the verbosity of a single module.
func SetModuleLevel(module string, level Level) {
	mu.Lock()
	defer mu.Unlock()
	levels[module] = level
	leveledBackend.SetLevel(level.backendLevel(), module)
}

// Get the effective level of a module.
func GetLevel(module string) Level {
	mu.Lock()
	defer mu.Unlock()
	if level, ok := levels[module]; ok {
		return level
	}
	return levels[""]
}

// Drop all module specific levels.
func ResetModuleLevels() {
	mu.Lock()
	defer mu.Unlock()
	for module := range levels {
		if module != "" {
			delete(levels, module)
		}
	}
	installLeveled()
}

// Parse a level name as used in configuration files.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "", "notice":
		return Notice, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Notice, fmt.Errorf("log: unknown level %q", name)
}

func init() {
	SetSink(os.Stdout)
}
