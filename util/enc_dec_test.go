package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJsonEncoderDecoder(t *testing.T) {
	encdec := NewJsonEncoderDecoder[sample]()

	data, err := encdec.Encode(sample{Name: "ada", Count: 2})
	require.NoError(t, err)

	decoded, err := encdec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, "ada", decoded.Name)
	require.Equal(t, 2, decoded.Count)

	_, err = encdec.Decode([]byte("not json"))
	require.Error(t, err)
}

func TestConvertMap(t *testing.T) {
	out, err := ConvertMap[sample](map[string]any{"name": "ada", "count": float64(3)})
	require.NoError(t, err)
	require.Equal(t, "ada", out.Name)
	require.Equal(t, 3, out.Count)

	_, err = ConvertMap[sample](map[string]any{"count": "four"})
	require.Error(t, err)
}
