package recall

import (
	"fmt"
	"strings"

	"github.com/go-ego/gse"
)

// Tokenizer segments Chinese text into search keywords. Stop words and
// punctuation are dropped, duplicates removed with first occurrence kept.
type Tokenizer struct {
	seg gse.Segmenter
}

func NewTokenizer() (*Tokenizer, error) {
	t := &Tokenizer{}
	if err := t.seg.LoadDict(); err != nil {
		return nil, fmt.Errorf("load segmenter dict: %w", err)
	}
	if err := t.seg.LoadStop(); err != nil {
		return nil, fmt.Errorf("load stop words: %w", err)
	}
	return t, nil
}

func (t *Tokenizer) Keywords(text string) []string {
	words := t.seg.CutSearch(text, true)

	seen := make(map[string]struct{}, len(words))
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || t.seg.IsStop(w) || isPunct(w) {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	return keywords
}

func isPunct(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("，。！？、；：“”‘’（）【】《》,.!?;:'\"()[]<>-_", r) {
			return false
		}
	}
	return true
}
