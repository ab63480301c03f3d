package metadata

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// Picture is cover art embedded in a source file.
type Picture struct {
	Ext      string // file extension without dot, e.g. "jpg"
	MIMEType string
	Data     []byte
}

// ReadTags reads the tags of an audio file into a Book. Source files of an
// audiobook usually carry the book title in the album tag, so album wins over
// the track title. The embedded picture is returned when present.
func ReadTags(path string) (Book, *Picture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Book{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Book{}, nil, fmt.Errorf("%w: %s: %v", ErrNoTags, path, err)
	}

	b := Book{
		Title:       firstNonEmpty(m.Album(), m.Title()),
		Author:      firstNonEmpty(m.AlbumArtist(), m.Artist()),
		Narrator:    m.Composer(),
		Genre:       m.Genre(),
		Description: m.Comment(),
	}
	if y := m.Year(); y > 0 {
		b.Year = strconv.Itoa(y)
	}

	var pic *Picture
	if p := m.Picture(); p != nil && len(p.Data) > 0 {
		pic = &Picture{Ext: strings.ToLower(p.Ext), MIMEType: p.MIMEType, Data: p.Data}
	}

	return Normalize(b), pic, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
