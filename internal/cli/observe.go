package cli

import (
	"fmt"

	"healthetl/internal/config"
	"healthetl/internal/metrics"
	"healthetl/internal/metrics/datadog"
	"healthetl/internal/metrics/prompush"
)

// installMetrics installs the configured metrics backend. The returned flush
// function pushes or flushes buffered metrics and is safe to call when no
// backend is configured.
func installMetrics(job string, m config.Metrics) (func() error, error) {
	switch m.Backend {
	case "", "none":
		return func() error { return nil }, nil
	case "prompush":
		b, err := prompush.NewBackend(job, m.PushgatewayURL)
		if err != nil {
			return nil, err
		}
		metrics.SetBackend(b)
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  "healthetl.",
			GlobalTags: []string{"job:" + job},
		})
		if err != nil {
			return nil, err
		}
		metrics.SetBackend(b)
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", m.Backend)
	}
	return metrics.Flush, nil
}
