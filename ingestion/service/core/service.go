package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"daomerge/internal/codec"
	"daomerge/internal/github"
)

// ErrInvalidPullURL is returned for URLs that are not of the form
// https://github.com/<owner>/<repo>/pull/<number>.
var ErrInvalidPullURL = errors.New("invalid pull request url")

// CommitReader is the subset of the GitHub client the hash service calls.
type CommitReader interface {
	GetBranch(ctx context.Context, owner, repo, branch string) (*github.Branch, error)
	GetPullRequest(ctx context.Context, owner, repo, number string) (*github.PullRequest, error)
}

// CommitResult is the ciphertext handed to proposal authors.
type CommitResult struct {
	SHA string
}

// Service issues encrypted commit hashes for DAO proposals
type Service struct {
	reader CommitReader
	codec  codec.Codec
	logger *log.Logger
}

// NewService creates a new Service instance
func NewService(r CommitReader, c codec.Codec, l *log.Logger) *Service {
	return &Service{reader: r, codec: c, logger: l}
}

// LatestCommit encrypts the head commit of owner/repo@branch.
func (s *Service) LatestCommit(ctx context.Context, owner, repo, branch string) (*CommitResult, error) {
	b, err := s.reader.GetBranch(ctx, owner, repo, branch)
	if err != nil {
		return nil, fmt.Errorf("fetching branch %s/%s@%s: %w", owner, repo, branch, err)
	}
	if b == nil || b.Commit.SHA == "" {
		return nil, fmt.Errorf("branch %s/%s@%s has no head commit", owner, repo, branch)
	}
	return s.encrypt(b.Commit.SHA)
}

// FromPullURL encrypts the current head commit of the pull request at rawURL.
func (s *Service) FromPullURL(ctx context.Context, rawURL string) (*CommitResult, error) {
	owner, repo, number, err := ParsePullURL(rawURL)
	if err != nil {
		return nil, err
	}
	pr, err := s.reader.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request %s/%s#%s: %w", owner, repo, number, err)
	}
	if pr == nil || pr.Head.SHA == "" {
		return nil, fmt.Errorf("pull request %s/%s#%s has no head commit", owner, repo, number)
	}
	return s.encrypt(pr.Head.SHA)
}

func (s *Service) encrypt(sha string) (*CommitResult, error) {
	ciphertext, err := s.codec.Encrypt(sha)
	if err != nil {
		return nil, fmt.Errorf("encrypting commit hash: %w", err)
	}
	return &CommitResult{SHA: ciphertext}, nil
}

// ParsePullURL splits a github.com pull request URL into its parts.
func ParsePullURL(rawURL string) (owner, repo, number string, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme != "https" || u.Host != "github.com" {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidPullURL, rawURL)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 4 || parts[2] != "pull" || parts[0] == "" || parts[1] == "" || parts[3] == "" {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidPullURL, rawURL)
	}
	return parts[0], parts[1], parts[3], nil
}
