package persistence

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	if e.Message == "" {
		return "error in storage layer"
	}
	return e.Message
}
