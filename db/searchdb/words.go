package searchdb

import "unicode"

// Word is a run of letters, digits or underscores in page content, with its
// byte span. Word offsets used by fragments and results index into the
// slice returned by Words.
type Word struct {
	Text  string
	Start int
	End   int
}

func Words(content string) []Word {
	var words []Word
	start := -1
	for i, r := range content {
		if IsWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, Word{Text: content[start:i], Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, Word{Text: content[start:], Start: start, End: len(content)})
	}
	return words
}

func CountWords(content string) int {
	return len(Words(content))
}

// IsWordRune reports whether r belongs to a word.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
