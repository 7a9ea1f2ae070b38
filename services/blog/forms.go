package blog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
)

const (
	maxTitleLength = 255

	msgRequired = "This field is required."
)

// ValidatePostForm returns the trimmed form with the slug derived from its
// title, or the rejected fields with their messages.
func ValidatePostForm(form PostForm) (PostForm, string, map[string][]string) {
	fieldErrors := map[string][]string{}

	form.Title = strings.TrimSpace(form.Title)
	form.Content = strings.TrimSpace(form.Content)

	postSlug := ""
	if form.Title == "" {
		fieldErrors["title"] = append(fieldErrors["title"], msgRequired)
	} else if length := utf8.RuneCountInString(form.Title); length > maxTitleLength {
		fieldErrors["title"] = append(fieldErrors["title"],
			fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", maxTitleLength, length))
	} else {
		postSlug = slug.Make(form.Title)
		if postSlug == "" {
			fieldErrors["title"] = append(fieldErrors["title"], "Title must contain at least one letter or digit.")
		}
	}

	if form.Content == "" {
		fieldErrors["content"] = append(fieldErrors["content"], msgRequired)
	}

	if len(fieldErrors) > 0 {
		return PostForm{}, "", fieldErrors
	}

	return form, postSlug, nil
}
