package types_test

import (
	"math"
	"testing"

	"github.com/yeisme/creativevault/pkg/internal/types"
)

func TestListQueryNormalize(t *testing.T) {
	q := types.ListQuery{}
	q.Normalize()

	if q.Page != 1 || q.Limit != 20 {
		t.Errorf("defaults = page %d limit %d", q.Page, q.Limit)
	}

	q = types.ListQuery{Page: 3, Limit: 500}
	q.Normalize()

	if q.Limit != types.MaxLimit {
		t.Errorf("limit not capped: %d", q.Limit)
	}

	if q.Offset() != 200 {
		t.Errorf("offset = %d", q.Offset())
	}

	q = types.ListQuery{Page: math.MaxInt, Limit: types.MaxLimit}
	q.Normalize()

	if q.Page != types.MaxPage || q.Offset() != (types.MaxPage-1)*types.MaxLimit {
		t.Errorf("page not capped: page %d offset %d", q.Page, q.Offset())
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 7, 15},
	}
	for _, c := range cases {
		if got := types.TotalPages(c.total, c.limit); got != c.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", c.total, c.limit, got, c.want)
		}
	}
}
