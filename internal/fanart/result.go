package fanart

// Status classifies the outcome of an artist image lookup.
type Status string

// Lookup outcomes.
const (
	// StatusFound means the lookup succeeded and at least one image URL
	// was selected.
	StatusFound Status = "found"
	// StatusNotFound means the lookup succeeded but the API has no
	// usable images for the artist. Never a failure.
	StatusNotFound Status = "not_found"
	// StatusTemporary means the lookup failed in a way that may resolve
	// itself; the caller may try again later.
	StatusTemporary Status = "temporary_error"
	// StatusPermanent means the lookup cannot succeed again within this
	// client's lifetime; the caller should stop trying.
	StatusPermanent Status = "permanent_error"
)

// ArtistImages holds the image URLs selected for an artist. An empty
// field means the API had no image of that kind. The value is complete
// once returned and is never mutated by the client.
type ArtistImages struct {
	Background string `json:"background,omitempty"`
	Logo       string `json:"logo,omitempty"`
	Banner     string `json:"banner,omitempty"`
	Thumb      string `json:"thumb,omitempty"`
}

// Empty reports whether no image of any kind was selected.
func (a ArtistImages) Empty() bool {
	return a.Background == "" && a.Logo == "" && a.Banner == "" && a.Thumb == ""
}

// Result is the outcome of a single lookup. Images is meaningful only
// when Status is StatusFound; Message carries a diagnostic on the two
// error statuses.
type Result struct {
	Status  Status       `json:"status"`
	Images  ArtistImages `json:"images,omitempty"`
	Message string       `json:"message,omitempty"`
}

func found(images ArtistImages) Result {
	return Result{Status: StatusFound, Images: images}
}

func notFound() Result {
	return Result{Status: StatusNotFound}
}

func temporary(msg string) Result {
	return Result{Status: StatusTemporary, Message: msg}
}

func permanent(msg string) Result {
	return Result{Status: StatusPermanent, Message: msg}
}
