// Copyright 2023 Tessera DB
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package worker owns the shared goroutine pool used by the parallel
// histogram/scatter phases.  Workers always operate on disjoint input and
// output ranges, so the pool carries no synchronization beyond the join.
package worker

import (
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

var (
	initOnce sync.Once
	pool     *ants.Pool
)

func getPool() *ants.Pool {
	initOnce.Do(func() {
		p, err := ants.NewPool(runtime.NumCPU()*2, ants.WithPreAlloc(true))
		if err != nil {
			panic(err)
		}
		pool = p
	})
	return pool
}

// Run executes all tasks, possibly in parallel, and returns after the last
// one finishes.  If the pool cannot take a task it runs inline; callers
// only rely on completion, not on placement.
func Run(tasks ...func()) {
	if len(tasks) == 1 {
		tasks[0]()
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, task := range tasks {
		task := task
		if err := getPool().Submit(func() {
			defer wg.Done()
			task()
		}); err != nil {
			task()
			wg.Done()
		}
	}
	wg.Wait()
}
