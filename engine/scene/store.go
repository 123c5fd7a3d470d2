package scene

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/rendermatic/engine/containers"
	"github.com/spaghettifunk/rendermatic/engine/core"
)

const defaultCapacity = 16

// ComponentStore owns every component. Components are addressed by the
// arena handle returned from Add.
type ComponentStore struct {
	mu         sync.RWMutex
	components *containers.Arena[ComponentData]
	// Insertion order, so draw order is stable across removals.
	order []containers.Handle
}

func NewComponentStore() *ComponentStore {
	return &ComponentStore{components: containers.NewArena[ComponentData](defaultCapacity)}
}

func (s *ComponentStore) Add(data ComponentData) containers.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.components.Insert(data)
	s.order = append(s.order, h)
	return h
}

func (s *ComponentStore) Get(h containers.Handle) (ComponentData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.components.Get(h)
	if !ok {
		return nil, core.Errorf(core.ErrIndex, "no component for handle %d/%d", h.Index, h.Generation)
	}
	return data, nil
}

func (s *ComponentStore) Remove(h containers.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.components.Remove(h); !ok {
		return core.Errorf(core.ErrIndex, "no component for handle %d/%d", h.Index, h.Generation)
	}
	for i, o := range s.order {
		if o == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *ComponentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.components.Len()
}

// OfType returns the handles of every component of type t in insertion order.
func (s *ComponentStore) OfType(t ComponentType) []containers.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []containers.Handle
	for _, h := range s.order {
		if data, ok := s.components.Get(h); ok && data.Type() == t {
			out = append(out, h)
		}
	}
	return out
}

// KeyboardResponse moves every Animation2D component along its Movement:
// forward on Right, backward on Left. Other keys are ignored.
func (s *ComponentStore) KeyboardResponse(key core.KeyCode) {
	var sign float32
	switch key {
	case core.KEY_RIGHT:
		sign = 1
	case core.KEY_LEFT:
		sign = -1
	default:
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.components.Each(func(_ containers.Handle, data ComponentData) bool {
		if a, ok := data.(*Animation2D); ok {
			a.Move(sign)
		}
		return true
	})
}

type componentRecord struct {
	Type             string      `toml:"type"`
	TextureIndex     int         `toml:"texture_index"`
	SpritesheetIndex int         `toml:"spritesheet_index"`
	Layer            uint16      `toml:"layer"`
	UVOffset         mgl32.Vec2  `toml:"uv_offset"`
	Transform        Transform   `toml:"transform"`
	Movement         Movement    `toml:"movement"`
	CurrentAnimation int         `toml:"current_animation"`
	Animations       []Animation `toml:"animations"`
}

type componentFile struct {
	Components []componentRecord `toml:"components"`
}

func (r componentRecord) data(start time.Duration) (ComponentData, error) {
	if r.TextureIndex < 0 {
		return nil, core.Errorf(core.ErrIndex, "negative texture index %d", r.TextureIndex)
	}
	switch strings.ToLower(r.Type) {
	case "quad":
		return &Quad{
			TextureIndex: r.TextureIndex,
			Transform:    r.Transform,
			UVOffset:     r.UVOffset,
			Layer:        r.Layer,
		}, nil
	case "animation2d":
		if r.SpritesheetIndex < 0 {
			return nil, core.Errorf(core.ErrIndex, "negative spritesheet index %d", r.SpritesheetIndex)
		}
		if r.CurrentAnimation < 0 || r.CurrentAnimation >= len(r.Animations) {
			return nil, core.Errorf(core.ErrIndex, "current animation %d of %d", r.CurrentAnimation, len(r.Animations))
		}
		for i, a := range r.Animations {
			if err := a.validate(); err != nil {
				return nil, errors.Wrapf(err, "animation %d", i)
			}
		}
		return &Animation2D{
			TextureIndex:     r.TextureIndex,
			SpritesheetIndex: r.SpritesheetIndex,
			Layer:            r.Layer,
			Animations:       r.Animations,
			CurrentAnimation: r.CurrentAnimation,
			Transform:        r.Transform,
			StartTime:        start,
			Movement:         r.Movement,
		}, nil
	}
	return nil, core.Errorf(core.ErrLogic, "unknown component type %q", r.Type)
}

// LoadComponents reads a components file. Animations start at start.
func LoadComponents(path string, start time.Duration) (*ComponentStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "reading components %s", path)
	}
	store, err := DecodeComponents(data, start)
	if err != nil {
		return nil, errors.Wrapf(err, "components %s", path)
	}
	core.LogDebug("loaded %d components from %s", store.Len(), path)
	return store, nil
}

func DecodeComponents(data []byte, start time.Duration) (*ComponentStore, error) {
	var f componentFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "decoding components")
	}

	store := NewComponentStore()
	for i, r := range f.Components {
		c, err := r.data(start)
		if err != nil {
			return nil, errors.Wrapf(err, "component %d", i)
		}
		store.Add(c)
	}
	return store, nil
}
