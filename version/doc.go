// Package version reports the build version of voiceid.
//
// Release builds set the version through -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/voiceid/version.Version=1.2.0" ./cmd/voiceid
//
// Commit and build time fall back to the VCS stamp Go embeds in the binary.
package version
