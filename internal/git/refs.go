package git

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/daveschumaker/gbm/internal/models"
)

// ShortHashLen is the abbreviation length used for commit hashes.
const ShortHashLen = 12

var refMetaFormat = strings.Join([]string{
	"%(refname)",
	fmt.Sprintf("%%(objectname:short=%d)", ShortHashLen),
	"%(committerdate:unix)",
	"%(authoremail)",
	"%(contents:subject)",
}, "%1f")

// BatchRefMetadata returns tip commit metadata for refs using a single git
// invocation. Refs that no longer exist are left out of the result.
func (r *Repo) BatchRefMetadata(ctx context.Context, refs []string) ([]models.RefMeta, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	wanted := make(map[string]bool, len(refs))
	for _, ref := range refs {
		wanted[ref] = true
	}

	args := append([]string{"for-each-ref", "--format=" + refMetaFormat}, refNamespaces(refs)...)
	lines, err := r.runner.Lines(ctx, args...)
	if err != nil {
		return nil, err
	}

	metas := make([]models.RefMeta, 0, len(refs))
	for _, line := range lines {
		meta, err := parseRefMeta(line)
		if err != nil {
			return nil, err
		}
		if wanted[meta.Ref] {
			metas = append(metas, meta)
		}
	}
	return metas, nil
}

// refNamespaces collapses refs into the namespaces that contain them so the
// argument list stays short for repositories with many branches.
func refNamespaces(refs []string) []string {
	set := map[string]bool{}
	for _, ref := range refs {
		switch {
		case strings.HasPrefix(ref, headsPrefix):
			set["refs/heads"] = true
		case strings.HasPrefix(ref, remotesPrefix):
			set["refs/remotes"] = true
		default:
			set[ref] = true
		}
	}
	out := make([]string, 0, len(set))
	for ns := range set {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

func parseRefMeta(line string) (models.RefMeta, error) {
	parts := strings.SplitN(line, fieldSep, 5)
	if len(parts) != 5 {
		return models.RefMeta{}, fmt.Errorf("malformed ref metadata %q: want 5 fields, got %d", line, len(parts))
	}
	if parts[0] == "" {
		return models.RefMeta{}, fmt.Errorf("malformed ref metadata %q: empty refname", line)
	}
	if parts[1] == "" {
		return models.RefMeta{}, fmt.Errorf("malformed ref metadata for %s: empty hash", parts[0])
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		return models.RefMeta{}, fmt.Errorf("malformed ref metadata for %s: bad timestamp %q", parts[0], parts[2])
	}
	return models.RefMeta{
		Ref:         parts[0],
		Hash:        parts[1],
		CommitTime:  time.Unix(ts, 0),
		AuthorEmail: strings.Trim(strings.TrimSpace(parts[3]), "<>"),
		Summary:     parts[4],
	}, nil
}
