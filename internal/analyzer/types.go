package analyzer

import "time"

// Focus values accepted by the analysis backend.
const (
	FocusAll       = "all"
	FocusResume    = "resume"
	FocusInterview = "interview"
	FocusViva      = "viva"
)

// Focuses lists the focus values in display order.
var Focuses = []string{FocusAll, FocusResume, FocusInterview, FocusViva}

// Result is the analysis payload returned by the backend. Fields are read
// optimistically; anything missing decodes to its zero value.
type Result struct {
	RepoName      string         `json:"repo_name"`
	RepoOwner     string         `json:"repo_owner"`
	Explanation   Explanation    `json:"explanation"`
	ResumeBullets []ResumeBullet `json:"resume_bullets"`
	VivaQuestions []VivaQuestion `json:"viva_questions"`
	InterviewQA   []InterviewQA  `json:"interview_qa"`
}

// Explanation is the project overview section of a Result.
type Explanation struct {
	Overview         string   `json:"overview"`
	KeyFeatures      []string `json:"key_features"`
	TechStack        []string `json:"tech_stack"`
	Architecture     string   `json:"architecture"`
	ChallengesSolved []string `json:"challenges_solved"`
	Impact           string   `json:"impact"`
}

type ResumeBullet struct {
	Point string `json:"point"`
}

type VivaQuestion struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

type InterviewQA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

// FullName returns "owner/name", or whichever part is known.
func (r Result) FullName() string {
	switch {
	case r.RepoOwner != "" && r.RepoName != "":
		return r.RepoOwner + "/" + r.RepoName
	case r.RepoName != "":
		return r.RepoName
	default:
		return r.RepoOwner
	}
}

// FileStem is the base name used for downloads: "<owner>-<repo>-analysis".
func (r Result) FileStem() string {
	owner := r.RepoOwner
	if owner == "" {
		owner = "repo"
	}
	name := r.RepoName
	if name == "" {
		name = "project"
	}
	return owner + "-" + name + "-analysis"
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of a chat transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Blob is a binary export returned by the backend.
type Blob struct {
	Data        []byte
	ContentType string
	FileName    string
}

// HealthStatus mirrors the backend health payload.
type HealthStatus struct {
	Status     string            `json:"status"`
	Service    string            `json:"service,omitempty"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}
