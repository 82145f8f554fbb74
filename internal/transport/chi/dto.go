package chi

import (
	"github.com/kailas-cloud/talentmatch/internal/domain/batch"
	"github.com/kailas-cloud/talentmatch/internal/domain/search/result"
	"github.com/kailas-cloud/talentmatch/internal/usecase/contrastive"
	"github.com/kailas-cloud/talentmatch/internal/usecase/rag"
)

type documentItem struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

type indexRequest struct {
	Documents []documentItem `json:"documents"`
}

type batchItem struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"` // error code, as in errorResponse
}

type indexResponse struct {
	Indexed int         `json:"indexed"`
	Items   []batchItem `json:"items"`
}

type indexErrorResponse struct {
	errorResponse
	Items []batchItem `json:"items,omitempty"`
}

type searchRequest struct {
	Query  string    `json:"query,omitempty"`
	Vector []float32 `json:"vector,omitempty"`
	K      *int      `json:"k,omitempty"`
}

type contextItem struct {
	SourceID       string  `json:"source_id"`
	Text           string  `json:"text"`
	RelevanceScore float64 `json:"relevance_score"`
}

type searchResponse struct {
	Results []contextItem `json:"results"`
}

type scoreRequest struct {
	CandidateText   string    `json:"candidate_text,omitempty"`
	PostingText     string    `json:"posting_text,omitempty"`
	CandidateVector []float32 `json:"candidate_vector,omitempty"`
	PostingVector   []float32 `json:"posting_vector,omitempty"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

type feedbackRequest struct {
	CandidateText string `json:"candidate_text"`
	PostingText   string `json:"posting_text"`
}

type entitiesItem struct {
	CandidateSkills         []string `json:"candidate_skills"`
	PostingSkills           []string `json:"posting_skills"`
	MissingSkills           []string `json:"missing_skills"`
	CandidateCertifications []string `json:"candidate_certifications"`
	PostingCertifications   []string `json:"posting_certifications"`
}

type feedbackResponse struct {
	Feedback string        `json:"feedback"`
	Prompt   string        `json:"prompt"`
	Contexts []contextItem `json:"contexts"`
	Entities *entitiesItem `json:"entities,omitempty"`
}

type interviewQuestionRequest struct {
	ResumeText  string `json:"resume_text"`
	PostingText string `json:"posting_text"`
}

type interviewQuestionResponse struct {
	Question string `json:"question"`
}

type interviewAnswerRequest struct {
	PostingText string `json:"posting_text"`
	Question    string `json:"question"`
}

type interviewAnswerResponse struct {
	Answer string `json:"answer"`
}

type interviewCritiqueRequest struct {
	PostingText string `json:"posting_text"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
}

type interviewCritiqueResponse struct {
	Critique string `json:"critique"`
}

type interviewMatchRequest struct {
	ResumeText  string `json:"resume_text"`
	PostingText string `json:"posting_text"`
}

type interviewMatchResponse struct {
	Score      int      `json:"score"`
	Highlights []string `json:"highlights"`
}

type lossRequest struct {
	Batches []contrastive.Batch `json:"batches"`
}

type lossResponse struct {
	Losses []float64 `json:"losses"`
	Mean   float64   `json:"mean"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func batchItemsFrom(rs []batch.Result) []batchItem {
	items := make([]batchItem, len(rs))
	for i, r := range rs {
		items[i] = batchItem{Position: r.Position(), ID: r.ID(), Status: string(r.Status())}
		if r.Err() != nil {
			items[i].Error = codeFor(r.Err())
		}
	}
	return items
}

func contextItemsFrom(cs []result.Context) []contextItem {
	items := make([]contextItem, len(cs))
	for i := range cs {
		c := &cs[i]
		items[i] = contextItem{SourceID: c.SourceID(), Text: c.Text(), RelevanceScore: c.RelevanceScore()}
	}
	return items
}

func entitiesFrom(e *rag.Enrichment) *entitiesItem {
	if e == nil {
		return nil
	}
	return &entitiesItem{
		CandidateSkills:         e.CandidateSkills,
		PostingSkills:           e.PostingSkills,
		MissingSkills:           e.MissingSkills,
		CandidateCertifications: e.CandidateCertifications,
		PostingCertifications:   e.PostingCertifications,
	}
}
