package model

type BodyEncoding string

const ENCODING_JSON BodyEncoding = "json"
const ENCODING_TEXT BodyEncoding = "text"

type PagingStrategy string

const PAGING_PAGE PagingStrategy = "page"
const PAGING_CURSOR PagingStrategy = "cursor"

// DsLeaf is a data-source descriptor resolved by a dotted key against the
// network's data-source tree. A tree node qualifies as a leaf only if it
// declares a Source.
type DsLeaf struct {
	Source       *DsSource   `json:"source"`
	Selector     string      `json:"selector,omitempty"`
	SelectorEach string      `json:"selectorEach,omitempty"`
	Coerce       *CoerceSpec `json:"coerce,omitempty"`
	Cache        *CacheSpec  `json:"cache,omitempty"`
	Paging       *PagingSpec `json:"paging,omitempty"`
}

type DsSource struct {
	Host     string            `json:"host,omitempty"` // "rpc" (default) or "admin"
	Path     string            `json:"path"`
	Method   string            `json:"method,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Body     any               `json:"body,omitempty"` // template map or raw string template
	Encoding BodyEncoding      `json:"encoding,omitempty"`
}

// CoerceSpec maps dotted paths to coercion kinds applied at each stage of a
// fetch: the caller context before body templating, the templated body before
// serialization, and the parsed response before selection.
type CoerceSpec struct {
	Ctx      map[string]string `json:"ctx,omitempty"`
	Body     map[string]string `json:"body,omitempty"`
	Response map[string]string `json:"response,omitempty"`
}

type CacheSpec struct {
	StaleSeconds   int `json:"staleSeconds,omitempty"`
	RefetchSeconds int `json:"refetchSeconds,omitempty"`
}

type PagingSpec struct {
	Strategy        PagingStrategy `json:"strategy"`
	PageParam       string         `json:"pageParam,omitempty"`
	SizeParam       string         `json:"sizeParam,omitempty"`
	CursorParam     string         `json:"cursorParam,omitempty"`
	PageSize        int            `json:"pageSize,omitempty"`
	ItemsField      string         `json:"itemsField,omitempty"`
	NextPageField   string         `json:"nextPageField,omitempty"`
	TotalPagesField string         `json:"totalPagesField,omitempty"`
	NextCursorField string         `json:"nextCursorField,omitempty"`
}

// RemoteCall is the wire-level request handed to the transport.
type RemoteCall struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}
