// Package keywords provides the stateless distress and objection matchers
// applied to customer messages
package keywords

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/kode4food/renewal/pkg/api"
)

// Matcher performs case-insensitive substring matching against a fixed
// phrase list
type Matcher struct {
	phrases []string
}

var (
	// DistressPhrases are monitored in interaction history and trigger
	// human handling
	DistressPhrases = []string{
		"lost job", "husband passed", "wife passed", "death", "funeral",
		"can't pay", "cannot pay", "no money", "bankrupt", "hospital",
		"accident", "hardship", "financial crisis", "naukri gayi",
		"पैसे नहीं", "नौकरी गई", "मृत्यु", "बीमार",
	}

	// InboundDistressPhrases are checked against a single inbound reply
	InboundDistressPhrases = []string{
		"lost job", "husband passed", "death", "can't pay", "hardship",
		"hospital",
	}

	// ObjectionPhrases mark an inbound reply as a renewal objection
	ObjectionPhrases = []string{
		"not interested", "too expensive", "cancel", "can't afford", "later",
	}
)

var (
	distress        = NewMatcher(DistressPhrases...)
	inboundDistress = NewMatcher(InboundDistressPhrases...)
	objection       = NewMatcher(ObjectionPhrases...)
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

// NewMatcher creates a Matcher over the given phrases
func NewMatcher(phrases ...string) *Matcher {
	res := &Matcher{phrases: make([]string, 0, len(phrases))}
	for _, p := range phrases {
		if p = Normalize(p); p != "" {
			res.phrases = append(res.phrases, p)
		}
	}
	return res
}

// Match reports whether any phrase occurs in text
func (m *Matcher) Match(text string) bool {
	_, ok := m.First(text)
	return ok
}

// First returns the first phrase found in text
func (m *Matcher) First(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	folded := Normalize(text)
	for _, p := range m.phrases {
		if strings.Contains(folded, p) {
			return p, true
		}
	}
	return "", false
}

// Normalize composes, case-folds and unifies apostrophes so phrases match
// regardless of how the text was typed
func Normalize(text string) string {
	s := norm.NFC.String(text)
	s = cases.Fold().String(s)
	return apostrophes.Replace(s)
}

// DetectDistress reports whether any interaction in history contains a
// distress phrase
func DetectDistress(history []api.Interaction) bool {
	for _, h := range history {
		if distress.Match(h.Content) {
			return true
		}
	}
	return false
}

// ContainsDistress reports whether a single text contains a distress phrase
func ContainsDistress(text string) bool {
	return distress.Match(text)
}

// DetectInboundDistress applies the inbound distress list to a single
// customer reply
func DetectInboundDistress(text string) bool {
	return inboundDistress.Match(text)
}

// DetectObjection reports whether a single inbound message is an objection
func DetectObjection(text string) bool {
	return objection.Match(text)
}
