//go:build cgo

package hyperscan

/*
#include <hs.h>
*/
import "C"

import "unsafe"

// HostPlatform describes the machine the process is running on.
func HostPlatform() (Platform, error) {
	var p C.hs_platform_info_t
	if code := C.hs_populate_platform(&p); code != C.HS_SUCCESS {
		return Platform{}, HsError(code)
	}
	return Platform{Tune: TuneFamily(p.tune), CPUFeatures: CPUFeature(p.cpu_features)}, nil
}

// ValidPlatform reports whether the host CPU can run the engine. The error
// matches ErrPlatformUnsupported when it cannot.
func ValidPlatform() error {
	if code := C.hs_valid_platform(); code != C.HS_SUCCESS {
		return HsError(code)
	}
	return nil
}

// Version returns the engine's version string.
func Version() string {
	return C.GoString(C.hs_version())
}

// cPlatform converts p for a compile call. The result is owned by the caller's
// C allocation arena.
func (p Platform) cPlatform(a *cArena) *C.hs_platform_info_t {
	cp := (*C.hs_platform_info_t)(a.calloc(unsafe.Sizeof(C.hs_platform_info_t{})))
	cp.tune = C.uint(p.Tune)
	cp.cpu_features = C.ulonglong(p.CPUFeatures)
	return cp
}
