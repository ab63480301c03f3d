// Package metadata renders book metadata and chapters into ffmpeg's
// FFMETADATA text format and the equivalent -metadata arguments.
package metadata

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/alnah/go-audiobook/internal/chapter"
)

// Header is the first line of every FFMETADATA document.
const Header = ";FFMETADATA1"

// Book holds the descriptive fields written to the output container.
// Title and Author are expected; every other field is optional.
type Book struct {
	Title       string `toml:"title"`
	Author      string `toml:"author"`
	Series      string `toml:"series,omitempty"`
	Narrator    string `toml:"narrator,omitempty"`
	Genre       string `toml:"genre,omitempty"`
	Publisher   string `toml:"publisher,omitempty"`
	Year        string `toml:"year,omitempty"`
	Description string `toml:"description,omitempty"`
	ISBN        string `toml:"isbn,omitempty"`
	ASIN        string `toml:"asin,omitempty"`
	Language    string `toml:"language,omitempty"`
}

// Tag is one key=value pair in the order it is written.
type Tag struct {
	Key   string
	Value string
}

// Tags maps the present book fields to container keys. Standard fields use
// the keys ffmpeg's mp4 muxer understands; the rest are custom keys.
func (b Book) Tags() []Tag {
	fields := []Tag{
		{"title", b.Title},
		{"artist", b.Author},
		{"album_artist", b.Author},
		{"album", b.Series},
		{"genre", b.Genre},
		{"date", b.Year},
		{"publisher", b.Publisher},
		{"description", b.Description},
		{"narrator", b.Narrator},
		{"isbn", b.ISBN},
		{"asin", b.ASIN},
		{"language", b.Language},
	}

	tags := make([]Tag, 0, len(fields))
	for _, f := range fields {
		if f.Value != "" {
			tags = append(tags, f)
		}
	}
	return tags
}

// Merge fills b's empty fields from other.
func (b Book) Merge(other Book) Book {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&b.Title, other.Title)
	fill(&b.Author, other.Author)
	fill(&b.Series, other.Series)
	fill(&b.Narrator, other.Narrator)
	fill(&b.Genre, other.Genre)
	fill(&b.Publisher, other.Publisher)
	fill(&b.Year, other.Year)
	fill(&b.Description, other.Description)
	fill(&b.ISBN, other.ISBN)
	fill(&b.ASIN, other.ASIN)
	fill(&b.Language, other.Language)
	return b
}

// Normalize trims every field and converts it to Unicode NFC, so that titles
// typed on different systems compare and display the same.
func Normalize(b Book) Book {
	for _, f := range []*string{
		&b.Title, &b.Author, &b.Series, &b.Narrator, &b.Genre, &b.Publisher,
		&b.Year, &b.Description, &b.ISBN, &b.ASIN, &b.Language,
	} {
		*f = norm.NFC.String(strings.TrimSpace(*f))
	}
	return b
}

// ChapterFile renders book tags and chapters as an FFMETADATA document with
// a millisecond time base.
func ChapterFile(b Book, chapters []chapter.Chapter) string {
	var sb strings.Builder
	sb.WriteString(Header)
	sb.WriteByte('\n')

	for _, t := range b.Tags() {
		fmt.Fprintf(&sb, "%s=%s\n", t.Key, Escape(t.Value))
	}
	sb.WriteByte('\n')

	for _, c := range chapters {
		sb.WriteString("[CHAPTER]\n")
		sb.WriteString("TIMEBASE=1/1000\n")
		fmt.Fprintf(&sb, "START=%d\n", c.StartMs)
		fmt.Fprintf(&sb, "END=%d\n", c.EndMs())
		fmt.Fprintf(&sb, "title=%s\n", Escape(c.Title))
		sb.WriteByte('\n')
	}

	return sb.String()
}

// TagArgs renders the book tags as "-metadata key=value" arguments.
// Values are passed verbatim: no shell or FFMETADATA escaping applies.
func TagArgs(b Book) []string {
	tags := b.Tags()
	args := make([]string, 0, 2*len(tags))
	for _, t := range tags {
		args = append(args, "-metadata", t.Key+"="+t.Value)
	}
	return args
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"=", `\=`,
	";", `\;`,
	"#", `\#`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

// Escape makes s safe as an FFMETADATA value: backslash, '=', ';' and '#'
// are backslash-escaped and line breaks become the two characters `\n`.
func Escape(s string) string {
	return escaper.Replace(s)
}
