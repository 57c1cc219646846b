package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes the registry in the text exposition format to
// path, for pickup by node_exporter's textfile collector. The file is
// written atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
