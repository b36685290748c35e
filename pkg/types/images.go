package types

// ImageList is an ordered sequence of image references (paths or URLs)
// stored as a jsonb column.
type ImageList []string
