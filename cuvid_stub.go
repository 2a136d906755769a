//go:build !linux

package nvd

import "errors"

// The hardware libraries only exist on Linux. Other platforms must supply
// DriverConfig.API.
func newNativeDecodeAPI() (DecodeAPI, error) {
	return nil, errors.New("hardware decode is only available on linux")
}
