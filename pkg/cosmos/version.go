package cosmos

import "fmt"

// VERSION REPLY:
// Older firmware answers with four bytes, current firmware prepends a
// test-mode flag:
//
//	| major | minor | patch | locked |
//	| test_mode | major | minor | patch | locked | ...
//
// Bytes after the fifth are ignored.

// AppVersion describes the app running on the device.
type AppVersion struct {
	TestMode     bool
	Major        uint8
	Minor        uint8
	Patch        uint8
	DeviceLocked bool
}

// DecodeVersion parses the data of a version reply.
func DecodeVersion(data []byte) (AppVersion, error) {
	switch {
	case len(data) < 4:
		return AppVersion{}, decodeErrorf(ErrInvalidVersion, "%d bytes, want at least 4", len(data))
	case len(data) == 4:
		return AppVersion{
			Major:        data[0],
			Minor:        data[1],
			Patch:        data[2],
			DeviceLocked: data[3] != 0,
		}, nil
	default:
		return AppVersion{
			TestMode:     data[0] != 0,
			Major:        data[1],
			Minor:        data[2],
			Patch:        data[3],
			DeviceLocked: data[4] != 0,
		}, nil
	}
}

func (v AppVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast compares major, minor and patch against min.
func (v AppVersion) AtLeast(min AppVersion) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	if v.Minor != min.Minor {
		return v.Minor > min.Minor
	}
	return v.Patch >= min.Patch
}
