// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package build

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Func is one unit of build work.
type Func func(ctx context.Context) error

// Task is a named build step listed by help.
type Task struct {
	Name string
	Doc  string
	Run  Func
}

// Series runs fns in order and stops at the first error.
func Series(fns ...Func) Func {
	return func(ctx context.Context) error {
		for _, fn := range fns {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// Parallel runs fns concurrently. The first error cancels the context
// passed to the others and is returned once all have finished.
func Parallel(fns ...Func) Func {
	return func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		for _, fn := range fns {
			g.Go(func() error { return fn(ctx) })
		}
		return g.Wait()
	}
}
