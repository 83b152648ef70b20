package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"github.com/sells-group/calcdata/internal/extract"
	"github.com/sells-group/calcdata/internal/model"
	"github.com/sells-group/calcdata/internal/resolve"
	"github.com/sells-group/calcdata/internal/wiki"
)

// Pages looks up reference pages by loose title key.
type Pages interface {
	Lookup(key string) (*wiki.Page, bool)
}

// Result summarizes one reconciliation run.
type Result struct {
	Changes []model.Change

	// Renamed counts entities whose name changed.
	Renamed int
	// Matched counts skills whose name found a reference page.
	Matched int
	// Enriched counts skills with at least one changed field.
	Enriched int
}

// Count returns the number of changed entity fields.
func (r Result) Count() int { return len(r.Changes) }

// Summary renders the one-line operator report.
func (r Result) Summary() string {
	if r.Count() == 0 {
		return "reconcile: no changes; store unchanged"
	}
	return fmt.Sprintf("reconcile: %d changes (%d renamed, %d skills enriched, %d skills matched a page)",
		r.Count(), r.Renamed, r.Enriched, r.Matched)
}

// MethodExtract marks field changes read from a reference page.
const MethodExtract = "extract"

var equal = cmpopts.EquateEmpty()

// Run reconciles a copy of ds against the reference corpus and returns the
// updated copy. ds itself is never modified. Fields are only overwritten when
// the extracted value differs from the stored one, and an extractor that
// finds nothing leaves the stored field alone, so a second run over the same
// inputs reports no changes.
func Run(ds *model.Dataset, pages Pages, r *resolve.Resolver, opts Options) (*model.Dataset, Result) {
	opts = opts.withDefaults()
	out := ds.Clone()
	if out == nil {
		out = &model.Dataset{}
	}

	var res Result
	if opts.Only.names() && r != nil {
		renameAll(out, r, opts, &res)
	}
	if opts.Only.fields() && pages != nil {
		enrichAll(out, pages, opts, &res)
	}

	zap.L().Info("reconcile: pass complete",
		zap.String("scope", string(opts.Only)),
		zap.Int("changes", res.Count()),
		zap.Int("renamed", res.Renamed),
		zap.Int("enriched", res.Enriched),
	)
	return out, res
}

func renameAll(ds *model.Dataset, r *resolve.Resolver, opts Options, res *Result) {
	for _, gid := range sortedKeys(ds.Jobs) {
		jobs := ds.Jobs[gid]
		for i := range jobs {
			rename(&jobs[i].Name, r, opts.jobMode(), model.EntityJob, gid, jobs[i].ID, res)
			specs := jobs[i].Specs
			for k := range specs {
				rename(&specs[k].Name, r, opts.specMode(), model.EntitySpec, jobs[i].ID, specs[k].ID, res)
			}
		}
	}
	for _, sid := range sortedKeys(ds.Skills) {
		skills := ds.Skills[sid]
		for i := range skills {
			rename(&skills[i].Name, r, opts.skillMode(), model.EntitySkill, sid, skills[i].ID, res)
		}
	}
	for _, sid := range sortedKeys(ds.DNA) {
		entries := ds.DNA[sid]
		for i := range entries {
			rename(&entries[i].Name, r, opts.dnaMode(), model.EntityDNA, sid, entries[i].ID, res)
		}
	}
}

func rename(name *string, r *resolve.Resolver, mode resolve.Mode, kind model.EntityKind, parent, id string, res *Result) {
	got := r.Resolve(*name, mode)
	if !got.Matched() || got.Name == *name {
		return
	}
	zap.L().Debug("reconcile: rename",
		zap.String("kind", string(kind)),
		zap.String("id", id),
		zap.String("from", *name),
		zap.String("to", got.Name),
		zap.String("method", string(got.Method)),
		zap.Float64("confidence", got.Confidence),
	)
	res.Changes = append(res.Changes, model.Change{
		Kind:       kind,
		ParentID:   parent,
		EntityID:   id,
		Field:      "name",
		Old:        encode(*name),
		New:        encode(got.Name),
		Method:     string(got.Method),
		Confidence: got.Confidence,
	})
	res.Renamed++
	*name = got.Name
}

func enrichAll(ds *model.Dataset, pages Pages, opts Options, res *Result) {
	ids := buildIDIndex(ds)
	for _, sid := range sortedKeys(ds.Skills) {
		skills := ds.Skills[sid]
		for i := range skills {
			key := resolve.Loose(skills[i].Name)
			if key == "" {
				continue
			}
			page, ok := pages.Lookup(key)
			if !ok {
				continue
			}
			res.Matched++
			before := res.Count()
			enrich(&skills[i], sid, page, ids, opts, res)
			if res.Count() > before {
				res.Enriched++
			}
		}
	}
}

// enrich applies every extractor to one skill. Order matters: info may
// update maxLevel, which the level curve is padded to.
func enrich(s *model.Skill, specID string, page *wiki.Page, ids *idIndex, opts Options, res *Result) {
	ch := func(field string, before, after any) {
		res.Changes = append(res.Changes, model.Change{
			Kind:     model.EntitySkill,
			ParentID: specID,
			EntityID: s.ID,
			Field:    field,
			Old:      encode(before),
			New:      encode(after),
			Method:   MethodExtract,
			Source:   page.Key,
		})
	}

	if info, ok := extract.BasicInfo(page.Doc); ok {
		if !cmp.Equal(s.Info, info, equal) {
			ch("info", s.Info, info)
			s.Info = info
		}
		if info.Levels != nil && *info.Levels > 0 && *info.Levels != s.MaxLevel {
			ch("maxLevel", s.MaxLevel, *info.Levels)
			s.MaxLevel = *info.Levels
		}
	}

	if reqs, ok := extract.Prerequisites(page.Doc); ok {
		ids.resolve(reqs, specID)
		if !cmp.Equal(s.Requires, reqs, equal) {
			ch("requires", s.Requires, reqs)
			s.Requires = reqs
		}
	}

	if lvl, ok := extract.LevelNeeded(page.Doc, max(opts.RankCount, s.MaxLevel)); ok {
		if !cmp.Equal(s.LvlReq, lvl, equal) {
			ch("lvlReq", s.LvlReq, lvl)
			s.LvlReq = lvl
		}
	}

	if prog, ok := extract.Progression(page.Doc); ok {
		if !cmp.Equal(s.Progression, prog, equal) {
			ch("progression", s.Progression, prog)
			s.Progression = prog
		}
	}
}

// idIndex maps loose names to entity ids for prerequisite linking.
type idIndex struct {
	jobs   map[string]string
	skills map[string]string
	local  map[string]map[string]string
}

func buildIDIndex(ds *model.Dataset) *idIndex {
	idx := &idIndex{
		jobs:   make(map[string]string),
		skills: make(map[string]string),
		local:  make(map[string]map[string]string),
	}
	put := func(m map[string]string, name, id string) {
		if key := resolve.Loose(name); key != "" && id != "" {
			if _, ok := m[key]; !ok {
				m[key] = id
			}
		}
	}
	for _, gid := range sortedKeys(ds.Jobs) {
		for _, j := range ds.Jobs[gid] {
			put(idx.jobs, j.Name, j.ID)
		}
	}
	for _, gid := range sortedKeys(ds.Jobs) {
		for _, j := range ds.Jobs[gid] {
			for _, sp := range j.Specs {
				put(idx.jobs, sp.Name, sp.ID)
			}
		}
	}
	for _, sid := range sortedKeys(ds.Skills) {
		local := make(map[string]string)
		for _, s := range ds.Skills[sid] {
			put(idx.skills, s.Name, s.ID)
			put(local, s.Name, s.ID)
		}
		idx.local[sid] = local
	}
	return idx
}

// resolve fills requirement ids in place. Rows labelled with "job" link to
// jobs and specs; other rows link to skills, preferring the requiring
// skill's own spec.
func (idx *idIndex) resolve(reqs model.Requirements, specID string) {
	for label, req := range reqs {
		if req.Name == "" {
			continue
		}
		key := resolve.Loose(req.Name)
		var id string
		var ok bool
		if strings.Contains(label, "job") {
			id, ok = idx.jobs[key]
		} else if id, ok = idx.local[specID][key]; !ok {
			id, ok = idx.skills[key]
		}
		if ok {
			req.ID = id
			reqs[label] = req
		}
	}
}

// encode renders a field value for the journal. Absent values encode as "".
func encode(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case *model.SkillInfo:
		if t == nil {
			return ""
		}
	case model.Requirements:
		if t == nil {
			return ""
		}
	case []int:
		if t == nil {
			return ""
		}
	case map[string][]model.StatValue:
		if t == nil {
			return ""
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
