package domain

// SearchResult is one catalog entry produced by the search pipeline.
// Image is nil when the upstream item carries no cover, or on the
// placeholder half of the two-phase emission.
type SearchResult struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Image *string `json:"image"`
}

// SuggestItem is one raw item from the upstream suggestion API.
// All fields are optional on the wire; the service layer fills gaps.
type SuggestItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Pic   string `json:"pic"`
	Img   string `json:"img"`
	URL   string `json:"url"`
}

// ImagePath returns the first available cover path, or "".
func (i SuggestItem) ImagePath() string {
	if i.Pic != "" {
		return i.Pic
	}
	return i.Img
}
