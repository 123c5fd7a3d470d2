// Package vulkan implements hal.Device on top of goki/vulkan.
package vulkan

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// Window is what the backend needs from the platform layer.
type Window interface {
	GetRequiredExtensionNames() []string
	CreateSurface(instance vk.Instance) (uintptr, error)
}

// Device is a logical device with a single graphics+present queue, bound to
// the surface of one window.
type Device struct {
	instance      vk.Instance
	surface       vk.Surface
	debugCallback vk.DebugReportCallback
	debug         bool

	physical    vk.PhysicalDevice
	logical     vk.Device
	queueFamily uint32
	queue       *Queue
	memoryTypes []hal.MemoryType
	limits      hal.Limits

	locks   *LockPool
	objects objects
}

var _ hal.Device = (*Device)(nil)

// New loads the Vulkan loader through glfw and creates the instance,
// surface, and logical device. With debug set the validation layer is
// required and its reports go to the engine log.
func New(window Window, appName string, debug bool) (*Device, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return nil, core.Errorf(core.ErrCreation, "GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return nil, core.Wrapf(err, core.ErrCreation, "failed to initialize vk")
	}

	d := &Device{
		debug:   debug,
		locks:   NewLockPool(),
		objects: newObjects(),
	}

	if err := d.createInstance(appName, window.GetRequiredExtensionNames()); err != nil {
		return nil, err
	}
	core.LogInfo("Vulkan Instance created.")

	if debug {
		if err := d.createDebugCallback(); err != nil {
			d.destroyInstance()
			return nil, err
		}
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := window.CreateSurface(d.instance)
	if err == nil && surface == 0 {
		err = errors.New("platform returned a nil surface")
	}
	if err != nil {
		d.destroyInstance()
		return nil, core.Wrapf(err, core.ErrCreation, "failed to create platform surface")
	}
	d.surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	if err := d.createDevice(); err != nil {
		d.destroyInstance()
		return nil, err
	}

	core.LogInfo("Vulkan device initialized successfully.")
	return d, nil
}

func (d *Device) createInstance(appName string, platformExtensions []string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("rendermatic"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	extensions := []string{"VK_KHR_surface"}
	extensions = append(extensions, platformExtensions...)

	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if d.debug {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
		core.LogDebug("Required extensions: %v", extensions)

		if err := requireLayer(validationLayer); err != nil {
			return err
		}
		layers = []string{validationLayer}
	}

	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	if err := check(vk.CreateInstance(&createInfo, nil, &d.instance), core.ErrCreation, "vkCreateInstance"); err != nil {
		return err
	}
	if err := vk.InitInstance(d.instance); err != nil {
		vk.DestroyInstance(d.instance, nil)
		return core.Wrapf(err, core.ErrCreation, "failed to initialize instance")
	}
	return nil
}

// requireLayer checks that the named instance layer is installed.
func requireLayer(name string) error {
	core.LogInfo("Validation layers enabled. Enumerating...")

	var count uint32
	if err := check(vk.EnumerateInstanceLayerProperties(&count, nil), core.ErrCreation, "vkEnumerateInstanceLayerProperties"); err != nil {
		return err
	}
	available := make([]vk.LayerProperties, count)
	if err := check(vk.EnumerateInstanceLayerProperties(&count, available), core.ErrCreation, "vkEnumerateInstanceLayerProperties"); err != nil {
		return err
	}

	for i := range available {
		available[i].Deref()
		end := FindFirstZeroInByteArray(available[i].LayerName[:])
		if vk.ToString(available[i].LayerName[:end+1]) == name {
			core.LogInfo("Found layer %s.", name)
			return nil
		}
	}
	return core.Errorf(core.ErrCreation, "required validation layer is missing: %s", name)
}

func (d *Device) createDebugCallback() error {
	core.LogDebug("Creating Vulkan debugger...")

	info := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: dbgCallbackFunc,
	}
	if err := check(vk.CreateDebugReportCallback(d.instance, &info, nil, &d.debugCallback), core.ErrCreation, "vkCreateDebugReportCallback"); err != nil {
		return err
	}

	core.LogDebug("Vulkan debugger created.")
	return nil
}

// Shutdown destroys the logical device, surface, and instance. Every object
// created through the device must have been destroyed first; survivors are
// reported and released with the device.
func (d *Device) Shutdown() error {
	if d.logical == nil {
		return nil
	}
	err := d.WaitIdle()

	if n := d.objects.leaked(); n > 0 {
		core.LogWarn("Destroying Vulkan device with %d live objects.", n)
	}

	core.LogDebug("Destroying Vulkan device...")
	vk.DestroyDevice(d.logical, nil)
	d.logical = nil

	d.destroyInstance()
	return err
}

func (d *Device) destroyInstance() {
	if d.surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(d.instance, d.surface, nil)
		d.surface = vk.NullSurface
	}
	if d.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(d.instance, d.debugCallback, nil)
		d.debugCallback = vk.NullDebugReportCallback
	}
	if d.instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(d.instance, nil)
		d.instance = nil
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogDebug("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
