package chi

import (
	"net/http"

	"github.com/kailas-cloud/talentmatch/internal/usecase/interview"
)

// InterviewQuestion handles POST /v1/interview/questions.
func (s *Server) InterviewQuestion(w http.ResponseWriter, r *http.Request) {
	if s.svc.Interview == nil {
		notConfigured(w, "interview")
		return
	}
	var req interviewQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	q, err := s.svc.Interview.Question(r.Context(), interview.QuestionRequest{
		ResumeText:  req.ResumeText,
		PostingText: req.PostingText,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, interviewQuestionResponse{Question: q})
}

// InterviewAnswer handles POST /v1/interview/answers.
func (s *Server) InterviewAnswer(w http.ResponseWriter, r *http.Request) {
	if s.svc.Interview == nil {
		notConfigured(w, "interview")
		return
	}
	var req interviewAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := s.svc.Interview.SuggestAnswer(r.Context(), interview.AnswerRequest{
		PostingText: req.PostingText,
		Question:    req.Question,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, interviewAnswerResponse{Answer: a})
}

// InterviewCritique handles POST /v1/interview/critiques.
func (s *Server) InterviewCritique(w http.ResponseWriter, r *http.Request) {
	if s.svc.Interview == nil {
		notConfigured(w, "interview")
		return
	}
	var req interviewCritiqueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := s.svc.Interview.Critique(r.Context(), interview.CritiqueRequest{
		PostingText: req.PostingText,
		Question:    req.Question,
		Answer:      req.Answer,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, interviewCritiqueResponse{Critique: c})
}

// InterviewMatch handles POST /v1/interview/matches.
func (s *Server) InterviewMatch(w http.ResponseWriter, r *http.Request) {
	if s.svc.Interview == nil {
		notConfigured(w, "interview")
		return
	}
	var req interviewMatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := s.svc.Interview.Match(r.Context(), interview.MatchRequest{
		ResumeText:  req.ResumeText,
		PostingText: req.PostingText,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, interviewMatchResponse{Score: m.Score, Highlights: m.Highlights})
}
