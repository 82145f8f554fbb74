package interview

import "strings"

const coachRole = "You are an expert career coach who prepares candidates for job interviews."

const questionTask = `Write a single interview question tailored to this candidate and this role.
The question must assess the candidate's suitability and come from where the resume and the job description overlap.`

const answerTask = `Write a suggested answer to the interview question, grounded in the job description.
Return clean plain text. Do not use markdown such as **, * or #.`

const critiqueTask = `Review the candidate's answer to the interview question in the context of the job description.
Format the critique as markdown with these sections:
## Strengths
Bullet points on what worked.
## Areas for Improvement
A numbered list of specific, actionable suggestions, with sub-bullets for details.
## Overall Assessment
A short summary.`

const matchTask = `Rate how well the resume matches the job description with a score from 0 to 100.
Then list 4 to 6 highlights: areas of the resume that fit the job requirements.
Each highlight is one clear sentence in markdown. Use **bold** for key skills and technologies
and *italics* for project names or accomplishments. Focus on concrete skills, experience and achievements.`

func questionPrompt(req QuestionRequest) string {
	return render(questionTask,
		[]section{{"Resume", req.ResumeText}, {"Job Description", req.PostingText}},
		`{"interviewQuestion": "Your question here."}`)
}

func answerPrompt(req AnswerRequest) string {
	return render(answerTask,
		[]section{{"Job Description", req.PostingText}, {"Interview Question", req.Question}},
		`{"suggestedAnswer": "Your suggested answer here."}`)
}

func critiquePrompt(req CritiqueRequest) string {
	return render(critiqueTask,
		[]section{
			{"Job Description", req.PostingText},
			{"Interview Question", req.Question},
			{"Candidate's Answer", req.Answer},
		},
		`{"critique": "## Strengths\n\n- ...\n\n## Areas for Improvement\n\n1. ...\n\n## Overall Assessment\n\n..."}`)
}

func matchPrompt(req MatchRequest) string {
	return render(matchTask,
		[]section{{"Resume", req.ResumeText}, {"Job Description", req.PostingText}},
		`{"matchScore": 85, "highlights": ["Strong **Go** background shown in *Payments API*.", "..."]}`)
}

type section struct {
	title string
	body  string
}

// render is deterministic: same request, same prompt.
func render(task string, sections []section, shape string) string {
	var b strings.Builder
	b.WriteString(coachRole)
	b.WriteString("\n\n")
	b.WriteString(task)
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(s.title)
		b.WriteString(":\n")
		b.WriteString(strings.TrimSpace(s.body))
		b.WriteString("\n")
	}
	b.WriteString("\nRespond with a single JSON object of this shape and nothing else:\n")
	b.WriteString(shape)
	b.WriteString("\n")
	return b.String()
}
