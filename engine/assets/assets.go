package assets

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/rendermatic/engine/assets/loaders"
	"github.com/spaghettifunk/rendermatic/engine/core"
)

type AssetInfo struct {
	Path       string
	Type       loaders.ResourceType
	LastLoaded time.Time
	// Set when the file changed on disk after it was loaded.
	Stale bool
}

// AssetManager indexes the asset directory and keeps the index current with
// fsnotify. Changes are only recorded; loaded resources are never reloaded.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[loaders.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	started  bool
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "creating asset watcher")
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[loaders.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	am.registerLoader(loaders.ResourceTypeShader, &loaders.BinaryLoader{})
	am.registerLoader(loaders.ResourceTypeImage, &loaders.ImageLoader{})
	am.registerLoader(loaders.ResourceTypeFont, &loaders.SystemFontLoader{})
	am.registerLoader(loaders.ResourceTypeBitmapFont, &loaders.BitmapFontLoader{})
	return am, nil
}

func (am *AssetManager) Initialize(assetsDir string) error {
	am.mutex.RLock()
	closed := am.isClosed
	am.mutex.RUnlock()
	if closed {
		return errClosed
	}

	am.root = filepath.Clean(assetsDir)
	if err := am.watchRecursive(am.root, false); err != nil {
		return core.Wrapf(err, core.ErrIO, "watching %s", am.root)
	}
	am.started = true
	go am.start()

	core.LogInfo("asset manager watching %s (%d assets)", am.root, am.Len())
	return nil
}

func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	if !am.started {
		return am.fsnotify.Close()
	}
	<-am.stopped
	return nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType loaders.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Path resolves rel against the watched directory.
func (am *AssetManager) Path(rel string) string {
	if filepath.IsAbs(rel) || am.root == "" {
		return filepath.Clean(rel)
	}
	return filepath.Join(am.root, rel)
}

func (am *AssetManager) Len() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

func (am *AssetManager) Info(rel string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[am.Path(rel)]
	return info, ok
}

// LoadAsset loads an indexed asset with the loader registered for its type.
func (am *AssetManager) LoadAsset(rel string, params interface{}) (*loaders.Resource, error) {
	path := am.Path(rel)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if exists {
		asset.LastLoaded = time.Now()
		asset.Stale = false
		am.assets[path] = asset
	}
	am.mutex.Unlock()
	if !exists {
		return nil, core.Errorf(core.ErrIO, "asset not found: %s", path)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, core.Errorf(core.ErrLogic, "no loader registered for %s asset %s", asset.Type, path)
	}
	return loader.Load(path, params)
}

func (am *AssetManager) UnloadAsset(res *loaders.Resource) error {
	if res == nil {
		return nil
	}
	loader, ok := am.loaders[res.Type]
	if !ok {
		return core.Errorf(core.ErrLogic, "no loader registered for %s asset %s", res.Type, res.FullPath)
	}
	return loader.Unload(res)
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handle(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			if err := am.fsnotify.Close(); err != nil {
				core.LogWarn("closing asset watcher: %s", err)
			}
			return
		}
	}
}

func (am *AssetManager) handle(e fsnotify.Event) {
	if e.Has(fsnotify.Create) {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := am.watchRecursive(e.Name, false); err != nil {
				core.LogWarn("watching new directory %s: %s", e.Name, err)
			}
			return
		}
	}
	if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
		if am.handleFileEvent(e.Name) {
			core.LogInfo("asset %s changed on disk; restart to pick it up", e.Name)
		}
	}
	// Can't stat a deleted path, so it may have been a directory too.
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		am.removeAsset(e.Name)
		_ = am.fsnotify.Remove(e.Name)
	}
}

// watchRecursive adds or removes all directories under path and indexes the
// files it finds.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		if !unWatch {
			am.index(walkPath)
		}
		return nil
	})
}

func (am *AssetManager) index(path string) {
	assetType := DetermineAssetType(path)
	if assetType == loaders.ResourceTypeNone {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[filepath.Clean(path)] = AssetInfo{Path: path, Type: assetType}
}

// handleFileEvent indexes a created or modified file and reports whether an
// already loaded asset went stale.
func (am *AssetManager) handleFileEvent(path string) bool {
	assetType := DetermineAssetType(path)
	if assetType == loaders.ResourceTypeNone {
		return false
	}
	path = filepath.Clean(path)

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info, ok := am.assets[path]
	if !ok {
		am.assets[path] = AssetInfo{Path: path, Type: assetType}
		return false
	}
	if info.LastLoaded.IsZero() {
		return false
	}
	info.Stale = true
	am.assets[path] = info
	return true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, filepath.Clean(path))
}

func DetermineAssetType(path string) loaders.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".webp":
		return loaders.ResourceTypeImage
	case ".spv":
		return loaders.ResourceTypeShader
	case ".ttf", ".otf", ".ttc":
		return loaders.ResourceTypeFont
	case ".fnt":
		return loaders.ResourceTypeBitmapFont
	case ".toml":
		return loaders.ResourceTypeData
	default:
		return loaders.ResourceTypeNone
	}
}

var errClosed = errors.New("asset manager already closed")
