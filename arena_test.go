/*
 * Copyright 2025 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package jealloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaAllocate(t *testing.T) {
	tr, h := newTracked()
	a := NewArena(h, 1024)

	require.Equal(t, 0, len(a.Allocate(0)))
	require.Equal(t, 1, len(a.Allocate(1)))
	require.Equal(t, 1<<20+1, len(a.Allocate(1<<20+1)))
	require.Equal(t, uint64(1<<20+2), a.Size())
	require.Panics(t, func() { a.Allocate(maxAlloc + 1) })
	t.Logf("%s", a)

	a.Release()
	require.Equal(t, 0, tr.NumLive())
	require.NoError(t, tr.AssertNoLeaks())
}

func TestArenaCopy(t *testing.T) {
	tr, h := newTracked()
	a := NewArena(h, 16)
	defer func() {
		a.Release()
		require.NoError(t, tr.AssertNoLeaks())
	}()

	buf := make([]byte, 128)
	rand.Read(buf)
	var copies [][]byte
	for i := 0; i < 1000; i++ {
		copies = append(copies, a.Copy(buf))
	}
	// Arena memory never moves, so earlier copies stay intact.
	for _, c := range copies {
		require.Equal(t, buf, c)
	}
	require.Equal(t, uint64(1000*128), a.Size())
}

func TestArenaReuseAfterRelease(t *testing.T) {
	_, h := newTracked()
	a := NewArena(h, 1024)

	a.Allocate(512)
	a.Release()
	require.Equal(t, uint64(0), a.Size())

	out := a.Allocate(512)
	require.Equal(t, 512, len(out))
	a.Release()
}
