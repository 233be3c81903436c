package scripting

import (
	"strings"
	"time"

	"github.com/murenne/ADVLite/internal/resource"
	lua "github.com/yuin/gopher-lua"
)

// Host receives the commands scripts issue through the adv table. Durations
// arrive already converted from script seconds.
type Host interface {
	SetText(textID, charaID int, text string)
	WaitKey()
	WaitTime(d time.Duration)
	WaitTask()
	SetAuto(on bool)

	CreateObject(id int, key resource.Key, p ObjectParam)
	DeleteObject(id int, p *ObjectParam)
	MoveX(id int, x float64, d time.Duration)
	MoveY(id int, dy float64, d time.Duration, ease int)
	SetOrder(id, order int)
	SetTarget(id int)
	UpdateView()
	Shake(id int, s ShakeParam)
	TextWindowShake(s ShakeParam)
	Flash(id int, wait, end time.Duration)

	FadeIn(d time.Duration)
	FadeOut(d time.Duration)
	TextWindow(open bool)

	Prepare(key resource.Key)
	PrepareChapterAudio(chapter string)
	ReleasePrepared()

	PlayBGM(file string)
	StopBGM()
	PlayVoice(file string)
	StopVoice()
	PlaySound(file string, p SoundParam) int64
	StopSound(id int64)

	FigureBreath(id int)
	FigureBody(id, motion int)
	FigureEye(id, motion int)
	FigureLip(id, motion int)

	StopStartSkip()
	Log(text string)
}

// yields marks the commands that suspend the coroutine after running.
var yields = map[string]bool{
	"wait_key":  true,
	"wait_time": true,
	"wait_task": true,
	"fade_in":   true,
	"fade_out":  true,
}

// Bind installs the adv command table backed by h.
func (e *Engine) Bind(h Host) {
	api := e.vm.NewTable()
	for name, fn := range e.commands(h) {
		api.RawSetString(name, e.vm.NewFunction(e.wrap(name, fn)))
	}
	e.vm.SetGlobal("adv", api)
}

// wrap records the calling script location and yields for wait commands.
func (e *Engine) wrap(name string, fn lua.LGFunction) lua.LGFunction {
	yield := yields[name]
	return func(L *lua.LState) int {
		e.where = strings.TrimSuffix(L.Where(1), ":")
		n := fn(L)
		if yield {
			return L.Yield()
		}
		return n
	}
}

func (e *Engine) commands(h Host) map[string]lua.LGFunction {
	create := func(kind resource.Kind) lua.LGFunction {
		return func(L *lua.LState) int {
			key := resource.Key{Kind: kind, Path: L.CheckString(2)}
			h.CreateObject(L.CheckInt(1), key, ParseObjectParam(L.OptTable(3, nil)))
			return 0
		}
	}
	prepare := func(kind resource.Kind) lua.LGFunction {
		return func(L *lua.LState) int {
			h.Prepare(resource.Key{Kind: kind, Path: L.CheckString(1)})
			return 0
		}
	}

	return map[string]lua.LGFunction{
		"text": func(L *lua.LState) int {
			h.SetText(L.CheckInt(1), L.CheckInt(2), L.CheckString(3))
			return 0
		},
		"wait_key": func(L *lua.LState) int {
			h.WaitKey()
			return 0
		},
		"wait_time": func(L *lua.LState) int {
			h.WaitTime(seconds(L.CheckNumber(1)))
			return 0
		},
		"wait_task": func(L *lua.LState) int {
			h.WaitTask()
			return 0
		},
		"set_auto": func(L *lua.LState) int {
			h.SetAuto(L.CheckBool(1))
			return 0
		},

		"object_create_sprite": create(resource.KindSprite),
		"object_create_prefab": create(resource.KindPrefab),
		"object_create_figure": create(resource.KindFigure),
		"object_delete": func(L *lua.LState) int {
			var p *ObjectParam
			if t := L.OptTable(2, nil); t != nil {
				v := ParseObjectParam(t)
				p = &v
			}
			h.DeleteObject(L.CheckInt(1), p)
			return 0
		},
		"object_move_x": func(L *lua.LState) int {
			h.MoveX(L.CheckInt(1), float64(L.CheckNumber(2)), seconds(L.CheckNumber(3)))
			return 0
		},
		"object_move_y": func(L *lua.LState) int {
			h.MoveY(L.CheckInt(1), float64(L.CheckNumber(2)), seconds(L.CheckNumber(3)), L.OptInt(4, 0))
			return 0
		},
		"object_set_order": func(L *lua.LState) int {
			h.SetOrder(L.CheckInt(1), L.CheckInt(2))
			return 0
		},
		"object_set_target": func(L *lua.LState) int {
			h.SetTarget(L.CheckInt(1))
			return 0
		},
		"update_view": func(L *lua.LState) int {
			h.UpdateView()
			return 0
		},
		"shake": func(L *lua.LState) int {
			h.Shake(L.CheckInt(1), parseShake(L, 2))
			return 0
		},
		"text_window_shake": func(L *lua.LState) int {
			h.TextWindowShake(parseShake(L, 1))
			return 0
		},
		"flash": func(L *lua.LState) int {
			h.Flash(L.CheckInt(1), seconds(L.CheckNumber(2)), seconds(L.CheckNumber(3)))
			return 0
		},

		"fade_in": func(L *lua.LState) int {
			h.FadeIn(seconds(L.CheckNumber(1)))
			return 0
		},
		"fade_out": func(L *lua.LState) int {
			h.FadeOut(seconds(L.CheckNumber(1)))
			return 0
		},
		"text_window_open": func(L *lua.LState) int {
			h.TextWindow(true)
			return 0
		},
		"text_window_close": func(L *lua.LState) int {
			h.TextWindow(false)
			return 0
		},

		"prepare_sprite": prepare(resource.KindSprite),
		"prepare_prefab": prepare(resource.KindPrefab),
		"prepare_figure": prepare(resource.KindFigure),
		"prepare_chapter_audio": func(L *lua.LState) int {
			h.PrepareChapterAudio(L.CheckString(1))
			return 0
		},
		"release_prepared": func(L *lua.LState) int {
			h.ReleasePrepared()
			return 0
		},

		"play_bgm": func(L *lua.LState) int {
			h.PlayBGM(L.CheckString(1))
			return 0
		},
		"stop_bgm": func(L *lua.LState) int {
			h.StopBGM()
			return 0
		},
		"play_voice": func(L *lua.LState) int {
			h.PlayVoice(L.CheckString(1))
			return 0
		},
		"stop_voice": func(L *lua.LState) int {
			h.StopVoice()
			return 0
		},
		"play_sound": func(L *lua.LState) int {
			id := h.PlaySound(L.CheckString(1), ParseSoundParam(L.OptTable(2, nil)))
			L.Push(lua.LNumber(id))
			return 1
		},
		"stop_sound": func(L *lua.LState) int {
			h.StopSound(int64(L.CheckNumber(1)))
			return 0
		},

		"figure_breath": func(L *lua.LState) int {
			h.FigureBreath(L.CheckInt(1))
			return 0
		},
		"figure_body": func(L *lua.LState) int {
			h.FigureBody(L.CheckInt(1), L.CheckInt(2))
			return 0
		},
		"figure_eye": func(L *lua.LState) int {
			h.FigureEye(L.CheckInt(1), L.CheckInt(2))
			return 0
		},
		"figure_lip": func(L *lua.LState) int {
			h.FigureLip(L.CheckInt(1), L.CheckInt(2))
			return 0
		},

		"stop_start_skip": func(L *lua.LState) int {
			h.StopStartSkip()
			return 0
		},
		"log": func(L *lua.LState) int {
			h.Log(L.CheckString(1))
			return 0
		},
		"include": func(L *lua.LState) int {
			if err := e.load(L, L.CheckString(1), 0); err != nil {
				L.RaiseError("include: %v", err)
			}
			return 0
		},
	}
}

func seconds(n lua.LNumber) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(float64(n) * float64(time.Second))
}
