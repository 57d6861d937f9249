package search

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pders01/pixa/internal/storage"
)

// MinQueryLength is the shortest query that is searched at all.
const MinQueryLength = 2

// Engine scans the download ledger directly. It serves as the fallback
// when the bleve index cannot be opened.
type Engine struct {
	store *storage.Store
	now   func() time.Time
}

func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// Search scores every download and returns the best matches first.
func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len([]rune(strings.TrimSpace(query))) < MinQueryLength {
		return []*Result{}, nil
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	downloads, err := e.store.GetAllDownloads()
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, d := range downloads {
		if r := e.searchDownload(d, terms); r != nil {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) searchDownload(d *storage.Download, terms []string) *Result {
	fields := []struct {
		name   string
		text   string
		weight float64
	}{
		{"tags", d.Image.Tags, 4.0},
		{"user", d.Image.User, 2.0},
		{"type", d.Image.Type, 1.0},
		{"url", d.Image.PageURL, 0.5},
		{"id", strconv.Itoa(d.Image.ID), 0.5},
	}

	var matches []Match
	var total float64
	for _, f := range fields {
		if s := scoreField(f.text, terms, f.weight); s > 0 {
			matches = append(matches, Match{Field: f.name, Text: f.text, Weight: s})
			total += s
		}
	}
	if total == 0 {
		return nil
	}
	total *= 1.0 + recencyBoost(d.DownloadedAt, e.now())
	return &Result{Download: d, Score: total, Matches: matches}
}

func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matched++
		}
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matched++
			case strings.HasPrefix(word, term):
				score += 1.0
				matched++
			}
		}
	}

	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}
	tf := float64(matched) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit. Single characters are dropped.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return terms
}

// recencyBoost gives up to 10% to downloads from the last week.
func recencyBoost(at, now time.Time) float64 {
	if at.IsZero() {
		return 0
	}
	age := now.Sub(at)
	week := 7 * 24 * time.Hour
	if age < 0 || age >= week {
		return 0
	}
	return 0.1 * (1 - float64(age)/float64(week))
}
