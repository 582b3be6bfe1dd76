package github

// PullRequest is the subset of the pull request resource the agent reads.
type PullRequest struct {
	Number  int    `json:"number"`
	State   string `json:"state"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	Merged  bool   `json:"merged"`

	// Mergeable is null while GitHub is still computing it.
	Mergeable      *bool  `json:"mergeable"`
	MergeableState string `json:"mergeable_state"`

	Head PullRequestBranch `json:"head"`
	Base PullRequestBranch `json:"base"`
}

// PullRequestBranch is the head or base side of a pull request.
type PullRequestBranch struct {
	Ref  string      `json:"ref"`
	SHA  string      `json:"sha"`
	Repo *Repository `json:"repo"`
}

// Repository is the subset of the repository resource the agent reads.
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// Review is a submitted pull request review.
type Review struct {
	ID    int64  `json:"id"`
	State string `json:"state"`
	Body  string `json:"body"`
}

// MergeResult is the response of the merge endpoint.
type MergeResult struct {
	SHA     string `json:"sha"`
	Merged  bool   `json:"merged"`
	Message string `json:"message"`
}

// Comment is an issue comment.
type Comment struct {
	ID      int64  `json:"id"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

// Branch is a repository branch with its head commit.
type Branch struct {
	Name   string       `json:"name"`
	Commit BranchCommit `json:"commit"`
}

// BranchCommit identifies a branch's head commit.
type BranchCommit struct {
	SHA string `json:"sha"`
}
