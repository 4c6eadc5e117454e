package ds

import "fmt"

// ResolutionError indicates a manifest/configuration defect: an unknown
// data-source key or a leaf with no usable endpoint. Fatal to the fetch.
type ResolutionError struct {
	Key    string
	Reason string
}

func (e ResolutionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("data source %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("data source %q not found", e.Key)
}

// TransportError carries the HTTP status of a failed remote call.
type TransportError struct {
	URL    string
	Status int
}

func (e TransportError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.Status)
}
