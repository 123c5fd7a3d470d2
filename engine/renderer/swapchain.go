package renderer

import (
	"github.com/spaghettifunk/rendermatic/engine/containers"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

var fallbackSurfaceFormat = hal.SurfaceFormat{
	Format:     hal.FormatR8G8B8A8Srgb,
	ColorSpace: hal.ColorSpaceSrgbNonlinear,
}

// ChooseSurfaceFormat prefers the first sRGB format the surface offers.
func ChooseSurfaceFormat(formats []hal.SurfaceFormat) hal.SurfaceFormat {
	for _, f := range formats {
		if f.Format.IsSRGB() && f.ColorSpace == hal.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return fallbackSurfaceFormat
}

// ChooseImageCount asks for one image more than the minimum, capped by the
// maximum, and never fewer than two.
func ChooseImageCount(caps hal.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	if count < 2 {
		count = 2
	}
	return count
}

// ChooseExtent uses the surface's current extent, or the window size clamped
// to the supported range when the surface leaves it to the swap chain.
func ChooseExtent(caps hal.SurfaceCapabilities, window hal.Extent2D) hal.Extent2D {
	if caps.CurrentExtent.Width != hal.UndefinedExtent {
		return caps.CurrentExtent
	}
	return hal.Extent2D{
		Width:  containers.Clamp(window.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: containers.Clamp(window.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}
