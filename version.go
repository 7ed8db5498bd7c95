package learnvk

import "github.com/coreos/go-semver/semver"

// VersionFromPacked unpacks a VK_MAKE_API_VERSION value. The variant bits
// are dropped.
func VersionFromPacked(v uint32) semver.Version {
	return semver.Version{
		Major: int64(v >> 22 & 0x7f),
		Minor: int64(v >> 12 & 0x3ff),
		Patch: int64(v & 0xfff),
	}
}

// PackVersion is the inverse of VersionFromPacked.
func PackVersion(v semver.Version) uint32 {
	return uint32(v.Major&0x7f)<<22 | uint32(v.Minor&0x3ff)<<12 | uint32(v.Patch&0xfff)
}

var (
	APIVersion10 = semver.Version{Major: 1}
	APIVersion11 = semver.Version{Major: 1, Minor: 1}
	APIVersion12 = semver.Version{Major: 1, Minor: 2}
	APIVersion13 = semver.Version{Major: 1, Minor: 3}
)
