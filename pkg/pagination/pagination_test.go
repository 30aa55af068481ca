package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	p := Params{}.Normalize(0)
	require.Equal(t, Params{Page: 1, Limit: DefaultLimit}, p)

	p = Params{Page: 3, Limit: 500}.Normalize(10)
	require.Equal(t, Params{Page: 3, Limit: MaxLimit}, p)

	p = Params{Page: -1}.Normalize(10)
	require.Equal(t, Params{Page: 1, Limit: 10}, p)
}

func TestOffsetAndTotalPages(t *testing.T) {
	require.Equal(t, 0, Params{Page: 1, Limit: 2}.Offset())
	require.Equal(t, 4, Params{Page: 3, Limit: 2}.Offset())
	require.Equal(t, 0, Params{}.Offset())

	require.Equal(t, 0, TotalPages(0, 2))
	require.Equal(t, 1, TotalPages(2, 2))
	require.Equal(t, 3, TotalPages(5, 2))
	require.Equal(t, 0, TotalPages(5, 0))
}

func TestParsePage(t *testing.T) {
	require.Equal(t, 1, ParsePage(""))
	require.Equal(t, 1, ParsePage("abc"))
	require.Equal(t, 1, ParsePage("0"))
	require.Equal(t, 4, ParsePage(" 4 "))
}

func TestNewNeverReturnsNilData(t *testing.T) {
	page := New[string](nil, 0, 2)
	require.NotNil(t, page.Data)
	require.Equal(t, 0, page.TotalPages)

	page = New([]string{"a", "b"}, 3, 2)
	require.Len(t, page.Data, 2)
	require.Equal(t, 2, page.TotalPages)
}
