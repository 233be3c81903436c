package scripting

import (
	"time"

	lua "github.com/yuin/gopher-lua"
)

// ObjectParam carries the optional table passed to object_create_* and
// object_delete. Keys are snake_case versions of the field names.
type ObjectParam struct {
	Show        int
	Level       int
	Order       int
	PosX        float64
	PosY        float64
	FadeTime    time.Duration
	RenderPosX  float64
	RenderPosY  float64
	RenderScale float64
	IsWipe      bool
	IsSafeView  bool
}

// DefaultObjectParam is the parameter set used when a script passes no
// table.
func DefaultObjectParam() ObjectParam {
	return ObjectParam{
		Show:        1,
		Level:       2,
		FadeTime:    500 * time.Millisecond,
		RenderScale: 1,
	}
}

// ParseObjectParam reads a parameter table over the defaults. A nil table
// yields the defaults.
func ParseObjectParam(t *lua.LTable) ObjectParam {
	p := DefaultObjectParam()
	if t == nil {
		return p
	}
	p.Show = lInt(t, "show", p.Show)
	p.Level = lInt(t, "level", p.Level)
	p.Order = lInt(t, "order", p.Order)
	p.PosX = lNum(t, "pos_x", p.PosX)
	p.PosY = lNum(t, "pos_y", p.PosY)
	p.FadeTime = seconds(lua.LNumber(lNum(t, "fade_time", p.FadeTime.Seconds())))
	p.RenderPosX = lNum(t, "render_pos_x", p.RenderPosX)
	p.RenderPosY = lNum(t, "render_pos_y", p.RenderPosY)
	p.RenderScale = lNum(t, "render_scale", p.RenderScale)
	p.IsWipe = lBool(t, "is_wipe", p.IsWipe)
	p.IsSafeView = lBool(t, "is_safe_view", p.IsSafeView)
	return p
}

// SoundParam is the optional table passed to play_sound.
type SoundParam struct {
	Loop   bool
	Volume float64
}

func ParseSoundParam(t *lua.LTable) SoundParam {
	p := SoundParam{Volume: 1}
	if t == nil {
		return p
	}
	p.Loop = lBool(t, "loop", p.Loop)
	p.Volume = lNum(t, "volume", p.Volume)
	return p
}

// ShakeParam describes a shake: Count round trips of Strength along Axis,
// each taking Duration, after an initial Delay.
type ShakeParam struct {
	Axis     string
	Strength float64
	Duration time.Duration
	Delay    time.Duration
	Count    int
	Ease     int
}

// parseShake reads (axis, strength[, duration[, delay[, count[, ease]]]])
// starting at stack index idx.
func parseShake(L *lua.LState, idx int) ShakeParam {
	return ShakeParam{
		Axis:     L.CheckString(idx),
		Strength: float64(L.CheckNumber(idx + 1)),
		Duration: seconds(L.OptNumber(idx+2, 0.5)),
		Delay:    seconds(L.OptNumber(idx+3, 0)),
		Count:    L.OptInt(idx+4, 1),
		Ease:     L.OptInt(idx+5, 0),
	}
}

// --- table helpers ---

// lInt reads an integer field, def when absent.
func lInt(t *lua.LTable, key string, def int) int {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return def
}

func lNum(t *lua.LTable, key string, def float64) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return def
}

func lBool(t *lua.LTable, key string, def bool) bool {
	switch v := t.RawGetString(key).(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return v != 0
	}
	return def
}
