package assets

import "github.com/spaghettifunk/rendermatic/engine/assets/loaders"

// Loader turns a file into a Resource. params is loader specific and may be nil.
type Loader interface {
	Load(path string, params interface{}) (*loaders.Resource, error)
	Unload(*loaders.Resource) error
}
