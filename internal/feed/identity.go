package feed

import (
	"strings"
	"unicode"
)

const DefaultAuthor = "You"

// Identity is how the local user appears on messages they send.
type Identity struct {
	Author string `yaml:"author" json:"author"`
	Avatar string `yaml:"avatar" json:"avatar"`
}

// Normalize fills a blank author with DefaultAuthor and a blank avatar with
// the author's initials.
func (i Identity) Normalize() Identity {
	author := strings.TrimSpace(i.Author)
	if author == "" {
		author = DefaultAuthor
	}
	avatar := strings.TrimSpace(i.Avatar)
	if avatar == "" {
		avatar = Initials(author)
	}
	return Identity{Author: author, Avatar: avatar}
}

// Initials takes the first letter of the first two words, or the first two
// letters of a single word.
func Initials(name string) string {
	words := strings.Fields(name)
	var out []rune
	switch len(words) {
	case 0:
		return ""
	case 1:
		for _, r := range words[0] {
			if len(out) == 2 {
				break
			}
			out = append(out, unicode.ToUpper(r))
		}
	default:
		for _, w := range words[:2] {
			r := []rune(w)[0]
			out = append(out, unicode.ToUpper(r))
		}
	}
	return string(out)
}
