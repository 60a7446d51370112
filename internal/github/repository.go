// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package github

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/go-github/v66/github"
)

// ErrInvalidRepository is returned when a repository reference cannot be resolved to an API path
var ErrInvalidRepository = errors.New("invalid repository")

// repoSegment matches the characters GitHub allows in owner and repository names
var repoSegment = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Repository identifies a repository either by numeric ID or by owner and name.
// When both forms are set the owner/name form wins.
type Repository struct {
	ID    int64
	Owner string
	Name  string
}

// RepoID returns a reference to the repository with the given numeric ID
func RepoID(id int64) Repository {
	return Repository{ID: id}
}

// ParseRepository parses "owner/name", a github.com URL, or a decimal repository ID.
func ParseRepository(s string) (Repository, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Repository{}, fmt.Errorf("%w: empty reference", ErrInvalidRepository)
	}

	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		if id <= 0 {
			return Repository{}, fmt.Errorf("%w: non-positive id %d", ErrInvalidRepository, id)
		}
		return RepoID(id), nil
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return Repository{}, fmt.Errorf("%w: %v", ErrInvalidRepository, err)
		}
		s = strings.Trim(u.Path, "/")
		s = strings.TrimSuffix(s, ".git")
	}

	owner, name, ok := strings.Cut(s, "/")
	if !ok {
		return Repository{}, fmt.Errorf("%w: %q is not owner/name", ErrInvalidRepository, s)
	}

	repo := Repository{Owner: owner, Name: name}
	if err := repo.validate(); err != nil {
		return Repository{}, err
	}
	return repo, nil
}

// RepositoryOf converts a go-github repository into a reference
func RepositoryOf(r *github.Repository) Repository {
	if r == nil {
		return Repository{}
	}
	return Repository{
		ID:    r.GetID(),
		Owner: r.GetOwner().GetLogin(),
		Name:  r.GetName(),
	}
}

// NewRepository resolves any supported repository reference: an integer ID,
// an "owner/name" string, a Repository, or a go-github Repository.
func NewRepository(ref any) (Repository, error) {
	switch v := ref.(type) {
	case Repository:
		return v, v.validate()
	case *Repository:
		if v == nil {
			return Repository{}, fmt.Errorf("%w: nil reference", ErrInvalidRepository)
		}
		return *v, v.validate()
	case *github.Repository:
		repo := RepositoryOf(v)
		return repo, repo.validate()
	case int:
		return NewRepository(int64(v))
	case int64:
		if v <= 0 {
			return Repository{}, fmt.Errorf("%w: non-positive id %d", ErrInvalidRepository, v)
		}
		return RepoID(v), nil
	case string:
		return ParseRepository(v)
	default:
		return Repository{}, fmt.Errorf("%w: unsupported reference type %T", ErrInvalidRepository, ref)
	}
}

// Slug returns "owner/name", or the ID as a string for ID-only references
func (r Repository) Slug() string {
	if r.Owner != "" && r.Name != "" {
		return r.Owner + "/" + r.Name
	}
	if r.ID != 0 {
		return strconv.FormatInt(r.ID, 10)
	}
	return ""
}

// String implements fmt.Stringer
func (r Repository) String() string {
	return r.Slug()
}

// Path returns the API path prefix for the repository
func (r Repository) Path() (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	if r.Owner != "" {
		return fmt.Sprintf("repos/%s/%s", r.Owner, r.Name), nil
	}
	return fmt.Sprintf("repositories/%d", r.ID), nil
}

func (r Repository) validate() error {
	if r.Owner == "" && r.Name == "" {
		if r.ID > 0 {
			return nil
		}
		return fmt.Errorf("%w: no id or owner/name", ErrInvalidRepository)
	}
	for _, part := range []string{r.Owner, r.Name} {
		if !repoSegment.MatchString(part) || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidRepository, r.Owner+"/"+r.Name)
		}
	}
	return nil
}
