package state

import (
	"errors"
	"time"

	"remtorpx/transform"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

// Processor returns stylesheet processor prepared from rewriting
// configuration. Platform set on environment (from command line) takes
// precedence over configured one. Processor is created once and reused.
func (e *LocalEnv) Processor() (*transform.Processor, error) {
	if e.processor != nil {
		return e.processor, nil
	}
	if e.Cfg == nil {
		return nil, errors.New("configuration is not loaded")
	}

	rc := e.Cfg.Rewrite
	if len(e.Platform) > 0 {
		rc.Platform = e.Platform
	}
	p, err := transform.New(&rc, e.Log)
	if err != nil {
		return nil, err
	}
	e.processor = p
	return p, nil
}
