package models_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/models"
)

func TestBinaryBlob(t *testing.T) {
	blob := models.BinaryBlob{0x00, 0xde, 0xad, 0xbe, 0xef}
	require.False(t, blob.IsEmpty())
	require.True(t, models.BinaryBlob(nil).IsEmpty())
	require.True(t, models.BinaryBlob{}.IsEmpty())

	value, err := blob.Value()
	require.NoError(t, err)
	require.Equal(t, "00deadbeef", value)

	nilValue, err := models.BinaryBlob(nil).Value()
	require.NoError(t, err)
	require.Nil(t, nilValue)

	// sqlite hands back a string, postgres a byte slice
	for _, src := range []interface{}{"00deadbeef", []byte("00deadbeef")} {
		var scanned models.BinaryBlob
		require.NoError(t, scanned.Scan(src))
		require.Equal(t, blob, scanned)
	}

	var scanned models.BinaryBlob
	require.NoError(t, scanned.Scan(nil))
	require.True(t, scanned.IsEmpty())
	require.Error(t, scanned.Scan("not hex"))
	require.Error(t, scanned.Scan(42))
}
