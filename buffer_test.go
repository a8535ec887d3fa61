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
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferWrite(t *testing.T) {
	tr, h := newTracked()

	var ref bytes.Buffer
	b := NewBuffer(h, 32)
	defer func() {
		b.Release()
		require.NoError(t, tr.AssertNoLeaks())
	}()

	require.True(t, b.IsEmpty())
	chunk := make([]byte, 128)
	for i := 0; i < 200; i++ {
		n := rand.Intn(len(chunk)) + 1
		rand.Read(chunk[:n])
		ref.Write(chunk[:n])
		m, err := b.Write(chunk[:n])
		require.NoError(t, err)
		require.Equal(t, n, m)
	}
	require.Equal(t, ref.Len(), b.Len())
	require.Equal(t, ref.Bytes(), b.Bytes())
}

func TestBufferWriteString(t *testing.T) {
	_, h := newTracked()
	b := NewBuffer(h, 0)
	defer b.Release()

	b.WriteString("hello")
	b.WriteString(" world")
	require.Equal(t, "hello world", string(b.Bytes()))

	b.Reset()
	require.True(t, b.IsEmpty())
	b.WriteString("again")
	require.Equal(t, "again", string(b.Bytes()))
}

func TestBufferAllocate(t *testing.T) {
	_, h := newTracked()
	b := NewBuffer(h, 16)
	defer b.Release()

	out := b.Allocate(8)
	copy(out, "12345678")
	// Growth must not lose what was already written.
	for i := 0; i < 100; i++ {
		b.Allocate(64)
	}
	require.Equal(t, []byte("12345678"), b.Bytes()[:8])
}

func TestBufferMaxSize(t *testing.T) {
	_, h := newTracked()

	_, err := NewBufferWith(h, 128, 64)
	require.Error(t, err)

	b, err := NewBufferWith(h, 16, 64)
	require.NoError(t, err)
	defer b.Release()

	b.Allocate(60)
	require.Panics(t, func() { b.Allocate(16) })
}

func TestBufferDumpStats(t *testing.T) {
	_, h := newTracked()
	b := NewBuffer(h, 512)
	defer b.Release()

	report := b.Allocate(8 << 10)
	n := h.DumpStats(report)
	require.Greater(t, n, 0)
	t.Logf("%s", report[:n])
}
