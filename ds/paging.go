package ds

import (
	"github.com/chainctl/actioneer/model"
	"github.com/oliveagle/jsonpath"
)

const defaultPageSize = 50

// NextPageParam computes the next page number for a page-strategy leaf. It
// prefers an explicit next-page field in the response, then a total-pages
// field compared against the current page, and absent both continues
// heuristically while the current page came back full. The second return is
// false when there are no further pages.
func NextPageParam(paging *model.PagingSpec, page int, itemCount int, resp any) (int, bool) {
	if field := paging.NextPageField; field != "" {
		if next, ok := numericField(resp, field); ok {
			if int(next) <= page {
				return 0, false
			}
			return int(next), true
		}
	}
	if field := paging.TotalPagesField; field != "" {
		if total, ok := numericField(resp, field); ok {
			if page >= int(total) {
				return 0, false
			}
			return page + 1, true
		}
	}
	size := paging.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if itemCount >= size {
		return page + 1, true
	}
	return 0, false
}

// NextCursorParam reads the next cursor from a cursor-strategy response,
// trying the declared field then the conventional next/nextCursor names. An
// absent or empty cursor means no further pages.
func NextCursorParam(paging *model.PagingSpec, resp any) (string, bool) {
	fields := []string{paging.NextCursorField, "next", "nextCursor"}
	for _, field := range fields {
		if field == "" {
			continue
		}
		value, err := jsonpath.JsonPathLookup(resp, "$."+field)
		if err != nil || value == nil {
			continue
		}
		if s, ok := value.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func numericField(resp any, field string) (float64, bool) {
	value, err := jsonpath.JsonPathLookup(resp, "$."+field)
	if err != nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
