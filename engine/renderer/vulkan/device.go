package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

const portabilitySubsetExtension = "VK_KHR_portability_subset"

// physicalDeviceCandidate is a device that can render to the surface.
type physicalDeviceCandidate struct {
	handle      vk.PhysicalDevice
	properties  vk.PhysicalDeviceProperties
	memory      vk.PhysicalDeviceMemoryProperties
	queueFamily uint32
	extensions  []string
}

func (d *Device) createDevice() error {
	candidate, err := d.selectPhysicalDevice()
	if err != nil {
		return err
	}
	d.physical = candidate.handle
	d.queueFamily = candidate.queueFamily

	core.LogInfo("Creating logical device...")

	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.queueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if contains(candidate.extensions, portabilitySubsetExtension) {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtension)
		extensionNames = append(extensionNames, portabilitySubsetExtension)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	if err := check(vk.CreateDevice(d.physical, &deviceCreateInfo, nil, &d.logical), core.ErrCreation, "vkCreateDevice"); err != nil {
		return err
	}
	core.LogInfo("Logical device created.")

	var queue vk.Queue
	vk.GetDeviceQueue(d.logical, d.queueFamily, 0, &queue)
	d.locks.SetQueueFamily(d.queueFamily)
	d.queue = &Queue{device: d, handle: queue}
	core.LogInfo("Queue obtained.")

	d.memoryTypes = memoryTypes(candidate.memory)
	limits := candidate.properties.Limits
	limits.Deref()
	d.limits = hal.Limits{
		OptimalBufferCopyOffsetAlignment:   uint64(limits.OptimalBufferCopyOffsetAlignment),
		OptimalBufferCopyRowPitchAlignment: uint64(limits.OptimalBufferCopyRowPitchAlignment),
	}
	return nil
}

// selectPhysicalDevice picks the first device with one queue family able to
// both draw and present, the swap chain extension, and at least one surface
// format and present mode. Discrete GPUs are preferred.
func (d *Device) selectPhysicalDevice() (*physicalDeviceCandidate, error) {
	var count uint32
	if err := check(vk.EnumeratePhysicalDevices(d.instance, &count, nil), core.ErrCreation, "vkEnumeratePhysicalDevices"); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, core.Errorf(core.ErrCreation, "no device with Vulkan support found")
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := check(vk.EnumeratePhysicalDevices(d.instance, &count, devices), core.ErrCreation, "vkEnumeratePhysicalDevices"); err != nil {
		return nil, err
	}

	var selected *physicalDeviceCandidate
	for _, device := range devices {
		candidate, ok := d.evaluatePhysicalDevice(device)
		if !ok {
			continue
		}
		if selected == nil || candidate.properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			selected = candidate
		}
		if candidate.properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			break
		}
	}
	if selected == nil {
		return nil, core.Errorf(core.ErrCreation, "no physical devices were found which meet the requirements")
	}

	logPhysicalDevice(selected)
	core.LogInfo("Physical device selected.")
	return selected, nil
}

func (d *Device) evaluatePhysicalDevice(device vk.PhysicalDevice) (*physicalDeviceCandidate, bool) {
	candidate := &physicalDeviceCandidate{handle: device}

	vk.GetPhysicalDeviceProperties(device, &candidate.properties)
	candidate.properties.Deref()
	vk.GetPhysicalDeviceMemoryProperties(device, &candidate.memory)
	candidate.memory.Deref()

	name := deviceName(&candidate.properties)

	family, ok := d.findQueueFamily(device)
	if !ok {
		core.LogInfo("Device '%s' has no queue that can draw and present, skipping.", name)
		return nil, false
	}
	candidate.queueFamily = family

	extensions, err := deviceExtensions(device)
	if err != nil {
		return nil, false
	}
	if !contains(extensions, vk.KhrSwapchainExtensionName) {
		core.LogInfo("Required extension not found: '%s', skipping device '%s'.", vk.KhrSwapchainExtensionName, name)
		return nil, false
	}
	candidate.extensions = extensions

	var formatCount, modeCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(device, d.surface, &formatCount, nil)
	vk.GetPhysicalDeviceSurfacePresentModes(device, d.surface, &modeCount, nil)
	if formatCount == 0 || modeCount == 0 {
		core.LogInfo("Required swapchain support not present, skipping device '%s'.", name)
		return nil, false
	}
	return candidate, true
}

func (d *Device) findQueueFamily(device vk.PhysicalDevice) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, families)

	for i := range families {
		families[i].Deref()
		if vk.QueueFlagBits(families[i].QueueFlags)&vk.QueueGraphicsBit == 0 {
			continue
		}
		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), d.surface, &supportsPresent); res != vk.Success {
			continue
		}
		if supportsPresent == vk.True {
			return uint32(i), true
		}
	}
	return 0, false
}

func deviceExtensions(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := check(vk.EnumerateDeviceExtensionProperties(device, "", &count, nil), core.ErrCreation, "vkEnumerateDeviceExtensionProperties"); err != nil {
		return nil, err
	}
	available := make([]vk.ExtensionProperties, count)
	if err := check(vk.EnumerateDeviceExtensionProperties(device, "", &count, available), core.ErrCreation, "vkEnumerateDeviceExtensionProperties"); err != nil {
		return nil, err
	}

	names := make([]string, 0, count)
	for i := range available {
		available[i].Deref()
		end := FindFirstZeroInByteArray(available[i].ExtensionName[:])
		names = append(names, string(available[i].ExtensionName[:end]))
	}
	return names, nil
}

func logPhysicalDevice(c *physicalDeviceCandidate) {
	core.LogInfo("Selected device: '%s'.", deviceName(&c.properties))
	switch c.properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}

	driver := vk.Version(c.properties.DriverVersion)
	core.LogInfo("GPU Driver version: %d.%d.%d", driver.Major(), driver.Minor(), driver.Patch())
	api := vk.Version(c.properties.ApiVersion)
	core.LogInfo("Vulkan API version: %d.%d.%d", api.Major(), api.Minor(), api.Patch())

	for i := 0; i < int(c.memory.MemoryHeapCount); i++ {
		heap := c.memory.MemoryHeaps[i]
		heap.Deref()
		sizeGiB := float64(heap.Size) / 1024 / 1024 / 1024
		if vk.MemoryHeapFlagBits(heap.Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			core.LogInfo("Local GPU memory: %.2f GiB", sizeGiB)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", sizeGiB)
		}
	}
}

func memoryTypes(props vk.PhysicalDeviceMemoryProperties) []hal.MemoryType {
	types := make([]hal.MemoryType, props.MemoryTypeCount)
	for i := range types {
		t := props.MemoryTypes[i]
		t.Deref()
		types[i] = hal.MemoryType{
			PropertyFlags: hal.MemoryPropertyFlags(t.PropertyFlags),
			HeapIndex:     t.HeapIndex,
		}
	}
	return types
}

func deviceName(p *vk.PhysicalDeviceProperties) string {
	end := FindFirstZeroInByteArray(p.DeviceName[:])
	return string(p.DeviceName[:end])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (d *Device) MemoryTypes() []hal.MemoryType {
	return d.memoryTypes
}

func (d *Device) Limits() hal.Limits {
	return d.limits
}

func (d *Device) SurfaceCapabilities() (hal.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := check(vk.GetPhysicalDeviceSurfaceCapabilities(d.physical, d.surface, &caps), core.ErrCreation, "vkGetPhysicalDeviceSurfaceCapabilities"); err != nil {
		return hal.SurfaceCapabilities{}, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	return hal.SurfaceCapabilities{
		MinImageCount:  caps.MinImageCount,
		MaxImageCount:  caps.MaxImageCount,
		CurrentExtent:  extent(caps.CurrentExtent),
		MinImageExtent: extent(caps.MinImageExtent),
		MaxImageExtent: extent(caps.MaxImageExtent),
	}, nil
}

func (d *Device) SurfaceFormats() ([]hal.SurfaceFormat, error) {
	var count uint32
	if err := check(vk.GetPhysicalDeviceSurfaceFormats(d.physical, d.surface, &count, nil), core.ErrCreation, "vkGetPhysicalDeviceSurfaceFormats"); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := check(vk.GetPhysicalDeviceSurfaceFormats(d.physical, d.surface, &count, formats), core.ErrCreation, "vkGetPhysicalDeviceSurfaceFormats"); err != nil {
		return nil, err
	}

	out := make([]hal.SurfaceFormat, len(formats))
	for i := range formats {
		formats[i].Deref()
		out[i] = hal.SurfaceFormat{
			Format:     hal.Format(formats[i].Format),
			ColorSpace: hal.ColorSpace(formats[i].ColorSpace),
		}
	}
	return out, nil
}

// presentModes lists the present modes the surface supports.
func (d *Device) presentModes() ([]vk.PresentMode, error) {
	var count uint32
	if err := check(vk.GetPhysicalDeviceSurfacePresentModes(d.physical, d.surface, &count, nil), core.ErrCreation, "vkGetPhysicalDeviceSurfacePresentModes"); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := check(vk.GetPhysicalDeviceSurfacePresentModes(d.physical, d.surface, &count, modes), core.ErrCreation, "vkGetPhysicalDeviceSurfacePresentModes"); err != nil {
		return nil, err
	}
	return modes, nil
}

func (d *Device) Queue() hal.Queue {
	return d.queue
}

func (d *Device) WaitIdle() error {
	return check(vk.DeviceWaitIdle(d.logical), core.ErrHostExecution, "vkDeviceWaitIdle")
}

func extent(e vk.Extent2D) hal.Extent2D {
	return hal.Extent2D{Width: e.Width, Height: e.Height}
}

func vkExtent(e hal.Extent2D) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}
