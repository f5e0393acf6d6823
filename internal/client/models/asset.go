package models

// Asset is a binary file picked by the user, usually a cover image.
type Asset struct {
	Name        string
	ContentType string
	Data        []byte
}

func (a *Asset) Size() int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.Data))
}
