package domain

// GridDecoder reads named fields from a gridded forecast file. Requested
// fields the file does not carry are left out of the returned grid.
type GridDecoder interface {
	Decode(path string, fields []string) (*Grid, error)
}
