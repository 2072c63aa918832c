package smbprovider

import "time"

// Metrics receives per-operation measurements. Implementations must be
// safe for concurrent use. A nil Metrics in Config disables collection.
type Metrics interface {
	// ObserveOperation records one provider verb, its duration and outcome.
	ObserveOperation(op string, duration time.Duration, err error)
	// ObserveBytes records payload bytes moved by read or write.
	ObserveBytes(op string, n int64)
}

func (p *Provider) observe(op string, start time.Time, errp *error) {
	err := *errp
	if p.metrics != nil {
		p.metrics.ObserveOperation(op, time.Since(start), err)
	}
	if err != nil {
		p.log.Warn("smb operation failed", "op", op, "error", err)
	}
}

func (p *Provider) observeBytes(op string, n int64) {
	if p.metrics != nil && n > 0 {
		p.metrics.ObserveBytes(op, n)
	}
}
