package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
)

// ErrNoEntry reports a scenario without the requested entry function.
var ErrNoEntry = errors.New("scripting: entry function not found")

// stopSkipLine is injected before the requested start line of a scenario.
const stopSkipLine = "adv.stop_start_skip()"

// Engine wraps a single gopher-lua VM and the coroutine running the
// scenario entry point. Single-goroutine access only (frame loop).
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	dir    string
	loaded map[string]bool

	co       *lua.LState
	coCancel context.CancelFunc
	entry    *lua.LFunction
	started  bool
	done     bool
	where    string
}

// NewEngine creates a Lua VM that resolves script names against dir.
func NewEngine(dir string, log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("reservedDeltaTime", lua.LNumber(0))
	return &Engine{
		vm:     vm,
		log:    log,
		dir:    dir,
		loaded: make(map[string]bool),
	}
}

// Boot loads the startup scripts in order.
func (e *Engine) Boot(names []string) error {
	for _, name := range names {
		if err := e.LoadScript(name); err != nil {
			return fmt.Errorf("boot: %w", err)
		}
	}
	return nil
}

// LoadScript runs a script once. Names already loaded are skipped and a
// missing file is only a warning.
func (e *Engine) LoadScript(name string) error {
	return e.load(e.vm, name, 0)
}

// LoadScriptWithSkip is LoadScript with a stop-start-skip command inserted
// before line (1-based). Line <= 0 loads the script unchanged.
func (e *Engine) LoadScriptWithSkip(name string, line int) error {
	return e.load(e.vm, name, line)
}

// load compiles and runs a script on L, which is the coroutine itself when
// a running scenario includes another script.
func (e *Engine) load(L *lua.LState, name string, skipLine int) error {
	if e.loaded[name] {
		e.log.Debug("lua script already loaded", zap.String("name", name))
		return nil
	}
	e.loaded[name] = true

	path := e.Path(name)
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			e.log.Warn("lua script not found", zap.String("file", path))
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	text := string(src)
	if skipLine > 0 {
		text = injectBefore(text, skipLine, stopSkipLine)
	}

	fn, err := L.Load(strings.NewReader(text), name)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	e.log.Debug("loaded lua script",
		zap.String("file", path),
		zap.Int("skip_line", skipLine),
	)
	return nil
}

// Path maps a script name to its file. Names without an extension get
// ".lua".
func (e *Engine) Path(name string) string {
	if filepath.Ext(name) == "" {
		name += ".lua"
	}
	return filepath.Join(e.dir, name)
}

// injectBefore inserts cmd as a new line before line n of src. Lines past
// the end leave src unchanged.
func injectBefore(src string, n int, cmd string) string {
	lines := strings.Split(src, "\n")
	if n > len(lines) {
		return src
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:n-1]...)
	out = append(out, cmd)
	out = append(out, lines[n-1:]...)
	return strings.Join(out, "\n")
}

// Start wraps the global function entry in a fresh coroutine. The first
// Resume runs it.
func (e *Engine) Start(entry string) error {
	fn, ok := e.vm.GetGlobal(entry).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoEntry, entry)
	}
	if e.coCancel != nil {
		e.coCancel()
	}
	e.co, e.coCancel = e.vm.NewThread()
	e.entry = fn
	e.started = true
	e.done = false
	return nil
}

// Resume runs the coroutine until its next yield. The frame delta is
// published as reservedDeltaTime in seconds first.
func (e *Engine) Resume(dt time.Duration) error {
	if !e.started {
		return ErrNoEntry
	}
	if e.done {
		return nil
	}
	e.vm.SetGlobal("reservedDeltaTime", lua.LNumber(dt.Seconds()))
	st, err, _ := e.vm.Resume(e.co, e.entry)
	switch st {
	case lua.ResumeOK:
		e.done = true
	case lua.ResumeError:
		e.done = true
		if e.where == "" {
			return fmt.Errorf("lua error: %w", err)
		}
		return fmt.Errorf("lua error after %s: %w", e.where, err)
	}
	return nil
}

// Finished reports whether the coroutine has returned or failed. A bridge
// that was never started counts as finished.
func (e *Engine) Finished() bool { return !e.started || e.done }

// Invoke calls a global function outside the coroutine.
func (e *Engine) Invoke(name string) error {
	fn, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoEntry, name)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}); err != nil {
		return fmt.Errorf("invoke %s: %w", name, err)
	}
	return nil
}

// GetGlobal returns a global as a Go value: float64, string, bool or nil.
// Tables and functions come back as their lua.LValue.
func (e *Engine) GetGlobal(name string) any {
	return fromLua(e.vm.GetGlobal(name))
}

func (e *Engine) SetGlobal(name string, v any) {
	e.vm.SetGlobal(name, toLua(v))
}

// Where returns the script location of the last command issued.
func (e *Engine) Where() string { return e.where }

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	if e.coCancel != nil {
		e.coCancel()
	}
	e.vm.Close()
}

// CompileFile parses and compiles a script without running it. It does not
// touch any VM, so it is safe to call from several goroutines.
func CompileFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	chunk, err := parse.Parse(f, name)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := lua.Compile(chunk, name); err != nil {
		return fmt.Errorf("compile %s: %w", path, err)
	}
	return nil
}

// --- Lua helpers ---

func fromLua(v lua.LValue) any {
	switch lv := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(lv)
	case lua.LNumber:
		return float64(lv)
	case lua.LString:
		return string(lv)
	}
	return v
}

func toLua(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case time.Duration:
		return lua.LNumber(x.Seconds())
	case lua.LValue:
		return x
	}
	return lua.LString(fmt.Sprint(v))
}
