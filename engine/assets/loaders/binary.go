package loaders

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/rendermatic/engine/core"
)

const spirvMagic = 0x07230203

// BinaryLoader reads compiled SPIR-V shader modules.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string, params interface{}) (*Resource, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "reading shader %s", path)
	}
	if err := ValidateSPIRV(buf); err != nil {
		return nil, core.Wrapf(err, core.ErrCreation, "shader %s", path)
	}

	name := filepath.Base(path)
	if p, ok := params.(map[string]string); ok && p["name"] != "" {
		name = p["name"]
	}

	return &Resource{
		Name:     name,
		FullPath: path,
		Type:     ResourceTypeShader,
		DataSize: uint64(len(buf)),
		Data:     buf,
	}, nil
}

func (bl *BinaryLoader) Unload(res *Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

// ValidateSPIRV checks the word alignment and the magic number of a module.
func ValidateSPIRV(b []byte) error {
	if len(b) < 4 || len(b)%4 != 0 {
		return core.Errorf(core.ErrCreation, "spir-v length %d is not a positive multiple of 4", len(b))
	}
	if magic := binary.LittleEndian.Uint32(b); magic != spirvMagic {
		return core.Errorf(core.ErrCreation, "bad spir-v magic %#08x", magic)
	}
	return nil
}
