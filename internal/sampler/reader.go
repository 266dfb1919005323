package sampler

import (
	"context"

	"codeberg.org/mutker/runcat/internal/errors"
	"github.com/shirou/gopsutil/v3/cpu"
)

// HostReader reads CPU utilization of the local host through gopsutil.
type HostReader struct{}

func NewHostReader() *HostReader {
	return &HostReader{}
}

// Percent returns the aggregate utilization of all cores since the last call.
func (*HostReader) Percent(ctx context.Context) (float64, error) {
	errFactory := errors.New()

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, errFactory.Wrap(ErrReadFailed, err)
	}
	if len(percents) == 0 {
		return 0, errFactory.New(ErrEmptyReading)
	}

	return percents[0], nil
}
