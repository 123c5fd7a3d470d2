package vulkan

import (
	"time"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

// CreateSwapchain creates a swap chain on the device surface. When the
// requested present mode is unsupported FIFO, which is always available, is
// used instead.
func (d *Device) CreateSwapchain(info hal.SwapchainInfo) (hal.Swapchain, error) {
	var caps vk.SurfaceCapabilities
	if err := check(vk.GetPhysicalDeviceSurfaceCapabilities(d.physical, d.surface, &caps), core.ErrCreation, "vkGetPhysicalDeviceSurfaceCapabilities"); err != nil {
		return hal.Swapchain{}, err
	}
	caps.Deref()

	modes, err := d.presentModes()
	if err != nil {
		return hal.Swapchain{}, err
	}
	presentMode := vk.PresentModeFifo
	for _, mode := range modes {
		if mode == vk.PresentMode(info.PresentMode) {
			presentMode = mode
			break
		}
	}

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.surface,
		MinImageCount:    info.MinImageCount,
		ImageFormat:      vk.Format(info.Format.Format),
		ImageColorSpace:  vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      vkExtent(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(info.Usage),
		// One queue family draws and presents.
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	var handle vk.Swapchain
	if err := check(vk.CreateSwapchain(d.logical, &swapchainCreateInfo, nil, &handle), core.ErrCreation, "vkCreateSwapchain"); err != nil {
		return hal.Swapchain{}, err
	}

	var count uint32
	if err := check(vk.GetSwapchainImages(d.logical, handle, &count, nil), core.ErrCreation, "vkGetSwapchainImages"); err != nil {
		vk.DestroySwapchain(d.logical, handle, nil)
		return hal.Swapchain{}, err
	}
	vkImages := make([]vk.Image, count)
	if err := check(vk.GetSwapchainImages(d.logical, handle, &count, vkImages), core.ErrCreation, "vkGetSwapchainImages"); err != nil {
		vk.DestroySwapchain(d.logical, handle, nil)
		return hal.Swapchain{}, err
	}

	chain := swapchain{handle: handle, images: make([]hal.Image, count)}
	for i, img := range vkImages {
		chain.images[i] = hal.Image{Handle: track(d.locks, SwapchainManagement, d.objects.images, image{handle: img})}
	}

	core.LogInfo("Swapchain created successfully with %d images.", count)
	return hal.Swapchain{Handle: track(d.locks, SwapchainManagement, d.objects.swapchains, chain)}, nil
}

// DestroySwapchain destroys the swap chain and invalidates the handles of
// its images. Views onto them must be destroyed first.
func (d *Device) DestroySwapchain(s hal.Swapchain) {
	sc, ok := untrack(d.locks, SwapchainManagement, d.objects.swapchains, s.Handle)
	if !ok {
		return
	}
	for _, img := range sc.images {
		untrack(d.locks, SwapchainManagement, d.objects.images, img.Handle)
	}
	vk.DestroySwapchain(d.logical, sc.handle, nil)
}

func (d *Device) SwapchainImages(s hal.Swapchain) ([]hal.Image, error) {
	sc, ok := d.objects.swapchains.Get(s.Handle)
	if !ok {
		return nil, core.Errorf(core.ErrLogic, "unknown swapchain %v", s)
	}
	images := make([]hal.Image, len(sc.images))
	copy(images, sc.images)
	return images, nil
}

// AcquireNextImage returns the index of the next presentable image and
// signals the semaphore once it can be written. A suboptimal swap chain is
// still usable and is not an error.
func (d *Device) AcquireNextImage(s hal.Swapchain, timeout time.Duration, signal hal.Semaphore) (uint32, error) {
	sc, ok := d.objects.swapchains.Get(s.Handle)
	if !ok {
		return 0, core.Errorf(core.ErrLogic, "unknown swapchain %v", s)
	}

	var imageIndex uint32
	result := vk.AcquireNextImage(d.logical, sc.handle, timeoutNanos(timeout),
		lookup(d.objects.semaphores, signal.Handle), vk.NullFence, &imageIndex)
	if result == vk.Suboptimal {
		core.LogWarn("Swapchain is suboptimal for the surface.")
		return imageIndex, nil
	}
	if err := check(result, core.ErrPresent, "vkAcquireNextImage"); err != nil {
		return 0, err
	}
	return imageIndex, nil
}
