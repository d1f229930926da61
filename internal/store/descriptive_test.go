package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderEmitsInsteadOfApplying(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	require.NoError(t, inner.Set(ctx, "existing", "v"))

	var out bytes.Buffer
	r := NewRecorder(inner, &out)

	require.NoError(t, r.Set(ctx, "k", "v"))
	require.NoError(t, r.SAdd(ctx, "s", "a", "b"))
	require.NoError(t, r.SRem(ctx, "s", "a"))
	require.NoError(t, r.Del(ctx, "existing"))

	// The wrapped store is untouched.
	v, ok, err := inner.Get(ctx, "existing")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	_, ok, _ = inner.Get(ctx, "k")
	assert.False(t, ok)

	assert.Equal(t, 4, r.Recorded())

	var muts []Mutation
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var m Mutation
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		muts = append(muts, m)
	}
	require.Len(t, muts, 4)
	assert.Equal(t, Mutation{Op: "set", Key: "k", Value: "v"}, muts[0])
	assert.Equal(t, Mutation{Op: "sadd", Key: "s", Members: []string{"a", "b"}}, muts[1])
	assert.Equal(t, Mutation{Op: "srem", Key: "s", Members: []string{"a"}}, muts[2])
	assert.Equal(t, Mutation{Op: "del", Key: "existing"}, muts[3])
}

func TestRecorderReadsPassThrough(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	require.NoError(t, inner.Set(ctx, "k", "v"))
	require.NoError(t, inner.SAdd(ctx, "s", "m"))

	r := NewRecorder(inner, &bytes.Buffer{})

	v, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	members, err := r.SMembers(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"m"}, members)

	keys, err := r.Scan(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	assert.Equal(t, 0, r.Recorded())
}
