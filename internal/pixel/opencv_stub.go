//go:build !opencv

package pixel

import "errors"

// newAcceleratedBackend reports the accelerated backend as unavailable when
// the binary is built without the "opencv" tag.
func newAcceleratedBackend() (Backend, error) {
	return nil, errors.New("built without opencv support")
}
