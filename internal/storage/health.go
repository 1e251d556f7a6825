package storage

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type HealthStatus struct {
	Relational bool `json:"relational"`
	KV         bool `json:"kv"`
	Blob       bool `json:"blob"`
	Vector     bool `json:"vector"`
}

func (h HealthStatus) Healthy() bool {
	return h.Relational && h.KV && h.Blob && h.Vector
}

// HealthCheck probes every store concurrently. Each probe has its own
// timeout and a failing probe never affects the others.
func (f *Facade) HealthCheck(ctx context.Context) HealthStatus {
	var out HealthStatus
	var g errgroup.Group

	probe := func(name string, dst *bool, ping func(context.Context) error) {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, f.probeTimeout)
			defer cancel()
			err := safePing(pctx, ping)
			if err != nil {
				f.log.Warn("Health probe failed", "store", name, "error", err)
			}
			*dst = err == nil
			return nil
		})
	}

	if f.relPing != nil {
		probe("relational", &out.Relational, f.relPing.Ping)
	}
	probe("kv", &out.KV, f.kv.Ping)
	probe("blob", &out.Blob, f.blob.Ping)
	probe("vector", &out.Vector, f.vec.Ping)

	_ = g.Wait()
	return out
}

func safePing(ctx context.Context, ping func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return ping(ctx)
}
