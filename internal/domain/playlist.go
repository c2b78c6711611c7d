package domain

type MediaOption struct {
	Src        string `json:"src"`
	Resolution string `json:"resolution"`
}

type Subtitle struct {
	Src  string `json:"src"`
	Lang string `json:"lang"`
}

type MediaElement struct {
	Src   []MediaOption `json:"src"`
	Sub   []Subtitle    `json:"sub"`
	Title string        `json:"title,omitempty"`
}

// NewMediaElement wraps a raw URL into a media element with a single
// source and no subtitles.
func NewMediaElement(url string) MediaElement {
	return MediaElement{
		Src: []MediaOption{{Src: url, Resolution: ""}},
		Sub: []Subtitle{},
	}
}

// FirstSrc returns the URL of the first source, or "" when there is none.
func (m MediaElement) FirstSrc() string {
	if len(m.Src) == 0 {
		return ""
	}

	return m.Src[0].Src
}

type Playlist struct {
	Items        []MediaElement `json:"items"`
	CurrentIndex int            `json:"currentIndex"`
}

// IndexValid reports whether CurrentIndex is within bounds. -1 is allowed
// only for an empty playlist.
func (p Playlist) IndexValid() bool {
	if p.CurrentIndex == -1 {
		return len(p.Items) == 0
	}

	return p.CurrentIndex >= 0 && p.CurrentIndex < len(p.Items)
}
