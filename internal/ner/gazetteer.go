// Package ner tags skills and certifications with a phrase gazetteer.
package ner

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// DefaultSkills bootstraps the gazetteer when no skills are configured.
var DefaultSkills = []string{
	"Go", "Golang", "Python", "Java", "JavaScript", "TypeScript", "C++", "C#", "Rust", "SQL",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "Kafka", "Docker", "Kubernetes", "Terraform",
	"AWS", "Azure", "GCP", "React", "Angular", "Vue.js", "Node.js", "GraphQL", "gRPC",
	"Machine Learning", "Deep Learning", "Natural Language Processing", "PyTorch", "TensorFlow",
	"Data Structures", "Algorithms", "CI/CD", "Linux", "Git", "REST", "Microservices",
	"Communication", "Leadership", "Teamwork", "Problem Solving",
}

// DefaultCaseSensitive lists skills that are also common English words.
// They only match with their configured capitalization, so "Go" is tagged
// but "go the extra mile" is not.
var DefaultCaseSensitive = []string{"Go", "Rust", "REST", "React"}

// DefaultCertifications bootstraps the certification gazetteer.
var DefaultCertifications = []string{
	"AWS Certified Solutions Architect", "AWS Certified Developer",
	"Certified Kubernetes Administrator", "CKA", "CKAD",
	"Google Professional Cloud Architect", "Azure Fundamentals",
	"PMP", "CISSP", "Scrum Master", "CompTIA Security+",
}

type pattern struct {
	canonical string
	label     string
	tokens    []string
	// exact holds the unfolded tokens of a case-sensitive phrase.
	exact []string
}

type token struct {
	raw        string
	folded     string
	start, end int
}

// Gazetteer is a rule-based domain.EntityExtractor. Matching is on whole
// tokens and case-insensitive unless a phrase is registered with
// WithCaseSensitive; at each position the longest phrase wins.
type Gazetteer struct {
	// byFirst lists patterns by their first folded token, longest first.
	byFirst map[string][]pattern
}

// Option configures a Gazetteer.
type Option func(*options)

type options struct {
	caseSensitive map[string]struct{}
}

// WithCaseSensitive makes the listed phrases match only with their exact
// capitalization. Comparison against the phrase lists ignores case.
func WithCaseSensitive(phrases ...string) Option {
	return func(o *options) {
		for _, p := range phrases {
			o.caseSensitive[foldKey(p)] = struct{}{}
		}
	}
}

// New builds a gazetteer. Empty phrases are ignored; a phrase listed as both
// a skill and a certification is tagged as a certification.
func New(skills, certifications []string, opts ...Option) (*Gazetteer, error) {
	o := options{caseSensitive: make(map[string]struct{})}
	for _, opt := range opts {
		opt(&o)
	}
	g := &Gazetteer{byFirst: make(map[string][]pattern)}
	seen := make(map[string]int)

	add := func(phrase, label string) {
		toks := tokenize(phrase)
		if len(toks) == 0 {
			return
		}
		p := pattern{canonical: strings.TrimSpace(phrase), label: label}
		for _, t := range toks {
			p.tokens = append(p.tokens, t.folded)
		}
		key := strings.Join(p.tokens, " ")
		if _, ok := o.caseSensitive[key]; ok {
			for _, t := range toks {
				p.exact = append(p.exact, t.raw)
			}
		}
		if i, ok := seen[key]; ok {
			g.byFirst[p.tokens[0]][i] = p
			return
		}
		seen[key] = len(g.byFirst[p.tokens[0]])
		g.byFirst[p.tokens[0]] = append(g.byFirst[p.tokens[0]], p)
	}
	for _, s := range skills {
		add(s, domain.LabelSkill)
	}
	for _, c := range certifications {
		add(c, domain.LabelCertification)
	}
	if len(g.byFirst) == 0 {
		return nil, fmt.Errorf("gazetteer has no phrases: %w", domain.ErrInvalidArgument)
	}

	for first, ps := range g.byFirst {
		slices.SortStableFunc(ps, func(a, b pattern) int { return len(b.tokens) - len(a.tokens) })
		g.byFirst[first] = ps
	}
	return g, nil
}

// NewDefault builds a gazetteer from DefaultSkills and DefaultCertifications,
// with DefaultCaseSensitive matched case-sensitively.
func NewDefault() *Gazetteer {
	g, _ := New(DefaultSkills, DefaultCertifications, WithCaseSensitive(DefaultCaseSensitive...))
	return g
}

// Extract implements domain.EntityExtractor. Skills and certifications are
// reported by their configured spelling; entity spans keep the input's spelling.
func (g *Gazetteer) Extract(ctx context.Context, text string) (domain.Entities, error) {
	if err := ctx.Err(); err != nil {
		return domain.Entities{}, fmt.Errorf("extract entities: %w", err)
	}

	toks := tokenize(text)
	out := domain.Entities{Skills: []string{}, Certifications: []string{}, Entities: []domain.Entity{}}
	skills := make(map[string]struct{})
	certs := make(map[string]struct{})

	for i := 0; i < len(toks); {
		p, ok := g.match(toks[i:])
		if !ok {
			i++
			continue
		}
		span := text[toks[i].start:toks[i+len(p.tokens)-1].end]
		out.Entities = append(out.Entities, domain.Entity{Text: span, Label: p.label})
		if p.label == domain.LabelCertification {
			certs[p.canonical] = struct{}{}
		} else {
			skills[p.canonical] = struct{}{}
		}
		i += len(p.tokens)
	}

	out.Skills = sortedKeys(skills)
	out.Certifications = sortedKeys(certs)
	return out, nil
}

func (g *Gazetteer) match(toks []token) (pattern, bool) {
	for _, p := range g.byFirst[toks[0].folded] {
		if len(p.tokens) > len(toks) {
			continue
		}
		ok := true
		for j, pt := range p.tokens {
			if toks[j].folded != pt || (p.exact != nil && toks[j].raw != p.exact[j]) {
				ok = false
				break
			}
		}
		if ok {
			return p, true
		}
	}
	return pattern{}, false
}

// tokenize splits on anything that is not a letter, digit or one of the
// symbols that occur inside skill names (C++, C#, Node.js, CI/CD).
func tokenize(text string) []token {
	// Casers are stateful and must not be shared across goroutines.
	fold := cases.Fold()
	var toks []token
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			toks = appendToken(toks, fold, text, start, i)
			start = -1
		}
	}
	if start >= 0 {
		toks = appendToken(toks, fold, text, start, len(text))
	}
	return toks
}

func appendToken(toks []token, fold cases.Caser, text string, start, end int) []token {
	// Sentence punctuation glued to the end of a word is not part of it.
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if r != '.' && r != '/' {
			break
		}
		end -= size
	}
	if end == start {
		return toks
	}
	raw := text[start:end]
	return append(toks, token{raw: raw, folded: fold.String(raw), start: start, end: end})
}

func foldKey(phrase string) string {
	toks := tokenize(phrase)
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.folded
	}
	return strings.Join(parts, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("+#./", r)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Gap returns the skills in want that have is missing, sorted.
func Gap(have, want []string) []string {
	h := make(map[string]struct{}, len(have))
	for _, s := range have {
		h[s] = struct{}{}
	}
	gap := make([]string, 0)
	for _, s := range want {
		if _, ok := h[s]; !ok {
			gap = append(gap, s)
		}
	}
	slices.Sort(gap)
	return slices.Compact(gap)
}
