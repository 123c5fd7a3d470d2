package scene

import (
	"bytes"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/rendermatic/engine/core"
)

// Spritesheet is a region of a texture cut into equally sized frames.
type Spritesheet struct {
	Index int `toml:"index"`
	// Frames per row.
	Pitch     uint16     `toml:"pitch"`
	Position  mgl32.Vec2 `toml:"position"`
	Size      mgl32.Vec2 `toml:"size"`
	FrameSize mgl32.Vec2 `toml:"frame_size"`
}

// FrameOffset is the texel offset of frame inside the sheet.
func (s Spritesheet) FrameOffset(frame int) mgl32.Vec2 {
	pitch := int(s.Pitch)
	if pitch == 0 {
		pitch = 1
	}
	return mgl32.Vec2{
		float32(frame%pitch) * s.FrameSize.X(),
		float32(frame/pitch) * s.FrameSize.Y(),
	}
}

type AnimationType uint8

const (
	// 1 2 3 1 2 3
	AnimationLoop AnimationType = iota
	// 1 2 3 2 1 2 3
	AnimationBounce
	// 1 2 3 3 3
	AnimationOnce
)

func (t AnimationType) String() string {
	switch t {
	case AnimationLoop:
		return "loop"
	case AnimationBounce:
		return "bounce"
	case AnimationOnce:
		return "once"
	}
	return "unknown"
}

func (t *AnimationType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "loop":
		*t = AnimationLoop
	case "bounce":
		*t = AnimationBounce
	case "once":
		*t = AnimationOnce
	default:
		return errors.Newf("unknown animation type %q", text)
	}
	return nil
}

// Animation is a sequence of spritesheet frames of equal length. Repeat a
// frame to hold it longer.
type Animation struct {
	Frames []uint16      `toml:"frames"`
	Type   AnimationType `toml:"type"`
	// Milliseconds per frame.
	FrameLength uint32 `toml:"frame_length"`
}

// CalculateFrame is the position in a looping sequence of frameCount frames
// lasting frameLength milliseconds each, elapsed after it started.
func CalculateFrame(elapsed time.Duration, frameCount int, frameLength uint32) int {
	if frameCount <= 0 || frameLength == 0 || elapsed < 0 {
		return 0
	}
	ticks := elapsed.Milliseconds() / int64(frameLength)
	return int(ticks % int64(frameCount))
}

// Step is the position in Frames shown elapsed after the animation started.
func (a Animation) Step(elapsed time.Duration) int {
	n := len(a.Frames)
	if n == 0 || a.FrameLength == 0 || elapsed < 0 {
		return 0
	}
	switch a.Type {
	case AnimationBounce:
		if n == 1 {
			return 0
		}
		period := 2*n - 2
		i := CalculateFrame(elapsed, period, a.FrameLength)
		if i < n {
			return i
		}
		return period - i
	case AnimationOnce:
		ticks := elapsed.Milliseconds() / int64(a.FrameLength)
		if ticks >= int64(n) {
			return n - 1
		}
		return int(ticks)
	default:
		return CalculateFrame(elapsed, n, a.FrameLength)
	}
}

// Frame is the spritesheet frame shown elapsed after the animation started.
func (a Animation) Frame(elapsed time.Duration) int {
	if len(a.Frames) == 0 {
		return 0
	}
	return int(a.Frames[a.Step(elapsed)])
}

func (a Animation) validate() error {
	if len(a.Frames) == 0 {
		return core.Errorf(core.ErrIndex, "animation has no frames")
	}
	if a.FrameLength == 0 {
		return core.Errorf(core.ErrLogic, "animation has a zero frame length")
	}
	return nil
}

type spritesheetFile struct {
	Spritesheets []Spritesheet `toml:"spritesheets"`
}

func LoadSpritesheets(path string) ([]Spritesheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "reading spritesheets %s", path)
	}
	sheets, err := DecodeSpritesheets(data)
	if err != nil {
		return nil, errors.Wrapf(err, "spritesheets %s", path)
	}
	core.LogDebug("loaded %d spritesheets from %s", len(sheets), path)
	return sheets, nil
}

// DecodeSpritesheets parses spritesheets whose index must match their position.
func DecodeSpritesheets(data []byte) ([]Spritesheet, error) {
	var f spritesheetFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "decoding spritesheets")
	}
	for i, s := range f.Spritesheets {
		if s.Index != i {
			return nil, core.Errorf(core.ErrIndex, "spritesheet with index %d at position %d", s.Index, i)
		}
		if s.Pitch == 0 {
			return nil, core.Errorf(core.ErrLogic, "spritesheet %d has a zero pitch", i)
		}
		if s.FrameSize.X() <= 0 || s.FrameSize.Y() <= 0 {
			return nil, core.Errorf(core.ErrLogic, "spritesheet %d has an empty frame size", i)
		}
	}
	return f.Spritesheets, nil
}
