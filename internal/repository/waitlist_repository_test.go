package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitlistKeys(t *testing.T) {
	assert.Equal(t, "class:100:waitlist", classWaitlistKey(100))
	assert.Equal(t, "student:7:waitlists", studentWaitlistsKey(7))
}

func TestToRank(t *testing.T) {
	rank, err := toRank(1)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	rank, err = toRank(15)
	require.NoError(t, err)
	assert.Equal(t, 15, rank)

	_, err = toRank(0)
	require.ErrorIs(t, err, ErrCorruptQueue)

	_, err = toRank(2.5)
	require.ErrorIs(t, err, ErrCorruptQueue)

	_, err = toRank(-3)
	require.ErrorIs(t, err, ErrCorruptQueue)
}

func TestMemberID(t *testing.T) {
	id, err := memberID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = memberID("not-a-number")
	require.Error(t, err)

	_, err = memberID(42)
	require.Error(t, err)
}
