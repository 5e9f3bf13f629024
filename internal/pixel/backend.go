package pixel

import (
	"image"
	"sync"

	"github.com/sirupsen/logrus"
)

// Backend is the filter contract shared by the accelerated and CPU
// implementations. Every operation is a plain function from input buffer to
// output buffer; implementations never mutate their input.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Undistort applies radial barrel-distortion correction with coefficient
	// k1 (normalized by the half-diagonal) using backward mapping and
	// bilinear sampling. k1 == 0 returns a copy of the input.
	Undistort(src *image.NRGBA, k1 float64) (*image.NRGBA, error)

	// Bilateral applies edge-preserving bilateral smoothing.
	Bilateral(src *Gray, spatialSigma, rangeSigma float64) (*Gray, error)

	// Equalize applies tile-based contrast-limited adaptive histogram
	// equalization with a tiles x tiles grid.
	Equalize(src *Gray, tiles int, clipLimit float64) (*Gray, error)
}

var (
	selectOnce sync.Once
	selected   Backend
)

// Select resolves the process-wide backend: the accelerated implementation
// when it is compiled in and its probe succeeds, otherwise the CPU
// implementation. The accelerated backend is wrapped so that any per-operation
// failure falls back to the CPU path for that operation only.
func Select() Backend {
	selectOnce.Do(func() {
		cpu := newCPUBackend()
		accel, err := newAcceleratedBackend()
		if err != nil {
			logrus.WithError(err).Debug("accelerated pixel backend unavailable, using CPU")
			selected = cpu
			return
		}
		logrus.WithField("backend", accel.Name()).Info("accelerated pixel backend selected")
		selected = &fallbackBackend{primary: accel, fallback: cpu}
	})
	return selected
}

// fallbackBackend delegates to the primary backend and retries each failed
// operation on the fallback. The primary represents a single shared device
// queue, so its invocations are serialized.
type fallbackBackend struct {
	mu       sync.Mutex
	primary  Backend
	fallback Backend
}

func (b *fallbackBackend) Name() string {
	return b.primary.Name()
}

func (b *fallbackBackend) Undistort(src *image.NRGBA, k1 float64) (*image.NRGBA, error) {
	b.mu.Lock()
	out, err := b.primary.Undistort(src, k1)
	b.mu.Unlock()
	if err == nil {
		return out, nil
	}
	logrus.WithError(err).WithField("backend", b.primary.Name()).Warn("undistort failed, falling back to CPU")
	return b.fallback.Undistort(src, k1)
}

func (b *fallbackBackend) Bilateral(src *Gray, spatialSigma, rangeSigma float64) (*Gray, error) {
	b.mu.Lock()
	out, err := b.primary.Bilateral(src, spatialSigma, rangeSigma)
	b.mu.Unlock()
	if err == nil {
		return out, nil
	}
	logrus.WithError(err).WithField("backend", b.primary.Name()).Warn("bilateral filter failed, falling back to CPU")
	return b.fallback.Bilateral(src, spatialSigma, rangeSigma)
}

func (b *fallbackBackend) Equalize(src *Gray, tiles int, clipLimit float64) (*Gray, error) {
	b.mu.Lock()
	out, err := b.primary.Equalize(src, tiles, clipLimit)
	b.mu.Unlock()
	if err == nil {
		return out, nil
	}
	logrus.WithError(err).WithField("backend", b.primary.Name()).Warn("equalize failed, falling back to CPU")
	return b.fallback.Equalize(src, tiles, clipLimit)
}
