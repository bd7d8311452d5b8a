// Package model defines shared data structures.
package model

// DrawMode is the number of stock cards moved to the waste per draw.
type DrawMode int

// Supported draw modes.
const (
	DrawOne   DrawMode = 1
	DrawThree DrawMode = 3
)

// DrawModeFromBool maps the persisted draw3 flag to a DrawMode.
func DrawModeFromBool(draw3 bool) DrawMode {
	if draw3 {
		return DrawThree
	}
	return DrawOne
}

// IsThree reports whether three cards are drawn at a time.
func (d DrawMode) IsThree() bool {
	return d == DrawThree
}

// Valid reports whether d is one of the supported modes.
func (d DrawMode) Valid() bool {
	return d == DrawOne || d == DrawThree
}

// Settings are the player's persisted preferences.
type Settings struct {
	MusicOn bool `json:"musicOn" yaml:"musicOn"`
	SoundOn bool `json:"soundOn" yaml:"soundOn"`
	Draw3   bool `json:"draw3" yaml:"draw3"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{MusicOn: true, SoundOn: true, Draw3: false}
}

// DrawMode returns the configured draw mode.
func (s Settings) DrawMode() DrawMode {
	return DrawModeFromBool(s.Draw3)
}

// SettingsPatch is a partial settings update. Nil fields are left untouched.
type SettingsPatch struct {
	MusicOn *bool `json:"musicOn,omitempty"`
	SoundOn *bool `json:"soundOn,omitempty"`
	Draw3   *bool `json:"draw3,omitempty"`
}

// Apply returns s with the non-nil fields of p applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.MusicOn != nil {
		s.MusicOn = *p.MusicOn
	}
	if p.SoundOn != nil {
		s.SoundOn = *p.SoundOn
	}
	if p.Draw3 != nil {
		s.Draw3 = *p.Draw3
	}
	return s
}

// EndState describes how a session finished.
type EndState string

// Session end states. The zero value means the session is still open.
const (
	EndNone    EndState = ""
	EndWin     EndState = "win"
	EndAbandon EndState = "abandon"
)

// Summary is the payload emitted for a session.
type Summary struct {
	ID            string   `json:"id"`
	Source        string   `json:"source"`
	EndState      EndState `json:"endState,omitempty"`
	AbandonReason string   `json:"abandonReason,omitempty"`
	DurationSec   int      `json:"durationSec"`
	Moves         int      `json:"moves"`
	Undos         int      `json:"undos"`
	DrawMode      DrawMode `json:"drawMode"`
}
