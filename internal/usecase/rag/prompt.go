package rag

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/talentmatch/internal/domain/search/result"
)

// Enrichment is the optional entity summary rendered into the prompt.
type Enrichment struct {
	CandidateSkills         []string
	PostingSkills           []string
	MissingSkills           []string
	CandidateCertifications []string
	PostingCertifications   []string
}

// AssemblePrompt renders the grounded generation prompt. The output depends
// only on its arguments: contexts appear in the given order and relevance is
// printed with four decimals.
func AssemblePrompt(req Request, contexts []result.Context, enrich *Enrichment) string {
	var b strings.Builder

	b.WriteString("Context:\n")
	if len(contexts) == 0 {
		b.WriteString("(no relevant context found)\n")
	}
	for i := range contexts {
		c := &contexts[i]
		b.WriteString("[")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("] source=")
		b.WriteString(c.SourceID())
		b.WriteString(" relevance=")
		b.WriteString(strconv.FormatFloat(c.RelevanceScore(), 'f', 4, 64))
		b.WriteString("\n")
		b.WriteString(c.Text())
		b.WriteString("\n")
	}

	b.WriteString("\nQuery:\n")
	if req.CandidateText != "" {
		b.WriteString("Candidate:\n")
		b.WriteString(req.CandidateText)
		b.WriteString("\n")
	}
	if req.PostingText != "" {
		if req.CandidateText != "" {
			b.WriteString("\n")
		}
		b.WriteString("Job posting:\n")
		b.WriteString(req.PostingText)
		b.WriteString("\n")
	}

	if enrich != nil {
		b.WriteString("\nSkills:\n")
		writeList(&b, "Candidate skills", enrich.CandidateSkills)
		writeList(&b, "Posting skills", enrich.PostingSkills)
		writeList(&b, "Missing skills", enrich.MissingSkills)
		if len(enrich.CandidateCertifications) > 0 || len(enrich.PostingCertifications) > 0 {
			writeList(&b, "Candidate certifications", enrich.CandidateCertifications)
			writeList(&b, "Posting certifications", enrich.PostingCertifications)
		}
	}

	b.WriteString("\nAnswer based on context:")
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	b.WriteString(label)
	b.WriteString(": ")
	if len(items) == 0 {
		b.WriteString("none")
	} else {
		b.WriteString(strings.Join(items, ", "))
	}
	b.WriteString("\n")
}
