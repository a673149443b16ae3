// Package metrics wraps the statsd calls made by the runtime. It keeps the
// datadog dependency in one place.
package metrics

import (
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Namespace prefixes every metric name.
const Namespace = "hako."

// Client is the statsd client interface accepted by the runtime.
type Client = ddstatsd.ClientInterface

// NoOp returns a client that discards everything.
func NoOp() Client { return &ddstatsd.NoOpClient{} }

// New dials a statsd agent at address.
func New(address string, tags []string) (Client, error) {
	if address == "" {
		return nil, eris.New("statsd address must not be empty")
	}
	opts := []ddstatsd.Option{ddstatsd.WithNamespace(Namespace)}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}
	c, err := ddstatsd.New(address, opts...)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to create statsd client for %q", address)
	}
	return c, nil
}

// Frame summarises one structural pass.
type Frame struct {
	Start      time.Time
	Applied    int
	Dropped    int
	Archetypes int
	Entities   int
}

// EmitFrame reports f. Failures are logged and otherwise ignored.
func EmitFrame(c Client, log zerolog.Logger, f Frame) {
	errs := []error{
		c.Timing("execute_commands", time.Since(f.Start), nil, 1),
		c.Count("commands.applied", int64(f.Applied), nil, 1),
		c.Count("commands.dropped", int64(f.Dropped), nil, 1),
		c.Gauge("archetypes", float64(f.Archetypes), nil, 1),
		c.Gauge("entities", float64(f.Entities), nil, 1),
	}
	for _, err := range errs {
		if err != nil {
			log.Warn().Err(err).Msg("failed to emit frame stat")
			return
		}
	}
}
