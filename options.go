// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

// Option configures a RenderContext during creation.
//
// Example:
//
//	rc := combiner.NewRenderContext(compiler, combiner.WithLocking())
type Option func(*options)

type options struct {
	merge   bool
	locking bool
	state   State
}

func defaultOptions() options {
	return options{
		merge: true,
		state: DefaultState(),
	}
}

// WithoutMerge disables cycle fusion even for backends that request it.
// Useful when debugging a backend against unmerged pipelines.
func WithoutMerge() Option {
	return func(o *options) {
		o.merge = false
	}
}

// WithLocking guards the cache with a mutex so one RenderContext can be
// shared by several goroutines. The whole lookup-or-compile sequence runs
// under the lock, so each descriptor is still compiled at most once.
func WithLocking() Option {
	return func(o *options) {
		o.locking = true
	}
}

// WithState sets the initial dynamic state.
func WithState(s State) Option {
	return func(o *options) {
		o.state = s
	}
}
