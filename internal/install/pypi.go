package install

import (
	"context"
	"net/url"
	"sort"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
)

// ReleaseIndex lists the published stable versions of a package on a PyPI
// compatible JSON API.
type ReleaseIndex struct {
	fetcher *Fetcher
	baseURL string
	pkg     string
}

// NewReleaseIndex returns an index for pkg served under baseURL
// (e.g. https://pypi.org/pypi).
func NewReleaseIndex(fetcher *Fetcher, baseURL, pkg string) *ReleaseIndex {
	return &ReleaseIndex{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/"), pkg: pkg}
}

// URL returns the JSON endpoint queried for the package.
func (r *ReleaseIndex) URL() string {
	return r.baseURL + "/" + url.PathEscape(r.pkg) + "/json"
}

type pypiProject struct {
	Releases map[string][]struct {
		Yanked bool `json:"yanked"`
	} `json:"releases"`
}

// Versions returns every non-yanked release, newest first.
func (r *ReleaseIndex) Versions(ctx context.Context) ([]string, error) {
	var project pypiProject
	if err := r.fetcher.GetJSON(ctx, r.URL(), &project); err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(project.Releases))
	for v, files := range project.Releases {
		if len(files) > 0 && allYanked(files) {
			continue
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) > 0
	})
	return versions, nil
}

func allYanked(files []struct {
	Yanked bool `json:"yanked"`
}) bool {
	for _, f := range files {
		if !f.Yanked {
			return false
		}
	}
	return true
}

// compareVersions orders release strings by PEP 440, so pre-releases and
// dev releases sort below their final release. Strings that do not parse
// sort below every valid version and among themselves lexically.
func compareVersions(a, b string) int {
	av, aerr := pep440.Parse(a)
	bv, berr := pep440.Parse(b)
	switch {
	case aerr == nil && berr == nil:
		return av.Compare(bv)
	case aerr == nil:
		return 1
	case berr == nil:
		return -1
	}
	return strings.Compare(a, b)
}
