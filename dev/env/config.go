package devenv

// SiteTestConfig holds credentials for the live site tests, read from dev/.state/sites.json5.
type SiteTestConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// Slug is a problem that is known to exist and have at least one accepted submission.
	Slug string `json:"slug"`
}

type LiveTestConfig struct {
	GeeksforGeeks SiteTestConfig `json:"geeksforgeeks"`
	CodeChef      SiteTestConfig `json:"codechef"`
	InterviewBit  SiteTestConfig `json:"interviewbit"`
}
