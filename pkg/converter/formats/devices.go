package formats

import (
	"bytes"
	_ "embed"
	"sync"

	"github.com/james-see/shaketool/pkg/props"
)

// defaultDevicesRaw is the headerless device container a fresh ShakeTracker
// 0.4 module carries: one null output device with the General MIDI bank.
//
//go:embed default_devices.bin
var defaultDevicesRaw []byte

var loadDefaultDevices = sync.OnceValues(func() (*props.Container, error) {
	return props.Decode(bytes.NewReader(defaultDevicesRaw), "")
})

// DefaultDevices returns the parsed device reference table. The result is
// shared and must not be modified.
func DefaultDevices() (*props.Container, error) {
	return loadDefaultDevices()
}
