package model

import (
	"strconv"
	"strings"
)

// Tag represents parsed jorm tags
type Tag struct {
	Column     string
	PrimaryKey bool
	AutoInc    bool
	Size       int
	Unique     bool
	NotNull    bool
	Default    string
	Type       string
}

// ParseTag parses the "jorm" tag string. Space, semicolon and comma all
// separate options; commas inside parentheses are kept.
func ParseTag(tagStr string) *Tag {
	tag := &Tag{}
	if tagStr == "" {
		return tag
	}

	var sb strings.Builder
	inParen := false
	for _, r := range tagStr {
		switch r {
		case '(':
			inParen = true
			sb.WriteRune(r)
		case ')':
			inParen = false
			sb.WriteRune(r)
		case ';', ',':
			if inParen {
				sb.WriteRune(r)
			} else {
				sb.WriteRune(' ')
			}
		default:
			sb.WriteRune(r)
		}
	}

	for _, part := range strings.Fields(sb.String()) {
		key, val, _ := strings.Cut(part, ":")
		val = strings.TrimSpace(val)

		switch strings.ToLower(key) {
		case "column":
			tag.Column = val
		case "pk":
			tag.PrimaryKey = true
		case "auto":
			tag.AutoInc = true
		case "unique":
			tag.Unique = true
		case "notnull":
			tag.NotNull = true
		case "size":
			if n, err := strconv.Atoi(val); err == nil {
				tag.Size = n
			}
		case "default":
			tag.Default = val
		case "type":
			tag.Type = strings.ToLower(val)
		}
	}
	return tag
}
