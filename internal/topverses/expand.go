package topverses

import (
	"context"
	"fmt"
	"sort"

	"github.com/yungbote/logosgraph-export/internal/domain/scripture"
	"github.com/yungbote/logosgraph-export/internal/platform/logger"
	"github.com/yungbote/logosgraph-export/internal/positions"
)

type MemberLookup interface {
	PassageMembers(ctx context.Context, sourceVerseID, group string) ([]scripture.PassageMember, error)
}

type groupKey struct {
	source string
	group  string
}

type ExpandReport struct {
	Groups  int
	Fetched int
	Empty   int
}

// Expander resolves passage groups once per (source verse, group) pair and
// reuses the result for every target sharing that pair. Keep one Expander
// per export run; it is not safe for concurrent use.
type Expander struct {
	lookup MemberLookup
	index  *positions.VerseIndex
	log    *logger.Logger
	cache  map[groupKey][]scripture.PassageMember
}

func NewExpander(lookup MemberLookup, index *positions.VerseIndex, log *logger.Logger) *Expander {
	if log == nil {
		log = logger.Nop()
	}
	return &Expander{
		lookup: lookup,
		index:  index,
		log:    log.With("component", "PassageGroupExpander"),
		cache:  make(map[groupKey][]scripture.PassageMember),
	}
}

// Expand attaches members to every grouped target in ranked. A group with
// no members leaves its targets without passage_members. Lookup failures
// abort the expansion.
func (x *Expander) Expand(ctx context.Context, ranked Ranked) (ExpandReport, error) {
	var report ExpandReport

	books := make([]string, 0, len(ranked))
	for b := range ranked {
		books = append(books, b)
	}
	sort.Strings(books)

	var keys []groupKey
	seen := map[groupKey]bool{}
	for _, b := range books {
		for _, v := range ranked[b] {
			for _, t := range v.Targets {
				if t.PassageGroup == nil {
					continue
				}
				k := groupKey{source: v.FromID, group: *t.PassageGroup}
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
		}
	}
	report.Groups = len(keys)
	if len(keys) == 0 {
		return report, nil
	}

	x.log.Info("Expanding passage groups", "groups", len(keys))
	for _, k := range keys {
		if _, ok := x.cache[k]; ok {
			continue
		}
		members, err := x.lookup.PassageMembers(ctx, k.source, k.group)
		if err != nil {
			return report, fmt.Errorf("topverses: passage group %s/%s: %w", k.source, k.group, err)
		}
		report.Fetched++
		x.cache[k] = x.order(members)
	}

	for _, b := range books {
		vs := ranked[b]
		for i := range vs {
			for j := range vs[i].Targets {
				t := &vs[i].Targets[j]
				if t.PassageGroup == nil {
					continue
				}
				members := x.cache[groupKey{source: vs[i].FromID, group: *t.PassageGroup}]
				if len(members) == 0 {
					t.PassageMembers = nil
					continue
				}
				t.PassageMembers = append([]scripture.PassageMember(nil), members...)
			}
		}
	}
	for _, k := range keys {
		if len(x.cache[k]) == 0 {
			report.Empty++
			x.log.Debug("Passage group has no members", "source", scripture.FormatReference(k.source), "group", k.group)
		}
	}
	return report, nil
}

// order sorts members by global position; members outside the index
// follow in id order.
func (x *Expander) order(members []scripture.PassageMember) []scripture.PassageMember {
	out := append([]scripture.PassageMember(nil), members...)
	if x.index == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, oki := x.index.Position(out[i].ID)
		pj, okj := x.index.Position(out[j].ID)
		switch {
		case oki && okj:
			return pi < pj
		case oki != okj:
			return oki
		default:
			return out[i].ID < out[j].ID
		}
	})
	return out
}
