package catalog

import (
	"regexp"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/errs"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

// serverHardExcludes are ids known to be incompatible with the server deploy
// type regardless of user filters.
var serverHardExcludes = []string{`^web-app-oauth2-proxy$`}

// ResolveInput is CR's input: deploy type, lifecycle allow-list, optional
// include/exclude regexes, an optional final exclude applied after the
// storage gate, an optional whitelist, and the storage budget available to
// the target host.
type ResolveInput struct {
	DeployType        model.DeployType
	Lifecycles        []model.Lifecycle
	IncludeRegex      string
	ExcludeRegex      string
	FinalExcludeRegex string
	Whitelist         []model.AppId
	StorageAvailableMB int
}

// Result is CR's output: the kept catalog in original order, plus a
// separate warning list of apps dropped for insufficient storage.
type Result struct {
	Kept             model.Catalog
	StorageWarnings  []model.AppId
}

// Resolve runs the CR algorithm from SPEC_FULL.md §4.3 over manifests,
// returning the ordered, de-duplicated, filtered application list. An empty
// result is a valid, non-error outcome.
func Resolve(manifests []Manifest, in ResolveInput) (*Result, error) {
	if !in.DeployType.Valid() {
		return nil, errs.New(errs.InvalidInput, "deploy type must be one of: server, workstation, universal")
	}

	include, err := compile(in.IncludeRegex)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, "invalid include regex", err)
	}
	exclude, err := compile(in.ExcludeRegex)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, "invalid exclude regex", err)
	}
	finalExclude, err := compile(in.FinalExcludeRegex)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, "invalid final exclude regex", err)
	}

	lifecycles := make(map[model.Lifecycle]bool, len(in.Lifecycles))
	for _, l := range in.Lifecycles {
		lifecycles[l] = true
	}

	whitelist := make(map[model.AppId]bool, len(in.Whitelist))
	for _, id := range in.Whitelist {
		whitelist[id] = true
	}

	defaultInclude, hardExcludes, err := defaultIncludeFor(in.DeployType, manifests)
	if err != nil {
		return nil, err
	}

	seen := make(map[model.AppId]bool, len(manifests))
	var (
		kept     model.Catalog
		warnings model.Catalog
	)

	for _, m := range manifests {
		id := model.AppId(m.ID)
		if seen[id] {
			continue
		}

		// Step 2: lifecycle filter.
		if len(lifecycles) > 0 && !lifecycles[model.Lifecycle(m.Lifecycle)] {
			continue
		}

		// Step 3: deploy-type default include mapping.
		if defaultInclude != nil && !defaultInclude.MatchString(string(id)) {
			continue
		}
		excludedByHardRule := false
		for _, he := range hardExcludes {
			if he.MatchString(string(id)) {
				excludedByHardRule = true
				break
			}
		}
		if excludedByHardRule {
			continue
		}

		// Step 4: user-provided include/exclude, in that order.
		if include != nil && !include.MatchString(string(id)) {
			continue
		}
		if exclude != nil && exclude.MatchString(string(id)) {
			continue
		}

		// Step 5: storage-sufficiency gate. Kept separately from the main
		// list as a warning; zero StorageAvailableMB means "no gate".
		if in.StorageAvailableMB > 0 && m.StorageRequiredMB > in.StorageAvailableMB {
			warnings = append(warnings, id)
			continue
		}

		// Step 6: final exclude, applied after the storage gate.
		if finalExclude != nil && finalExclude.MatchString(string(id)) {
			continue
		}

		// Step 7: whitelist, if non-empty, is the final filter.
		if len(whitelist) > 0 && !whitelist[id] {
			continue
		}

		seen[id] = true
		kept = append(kept, id)
	}

	// Step 8: survivors are already in original catalog order because the
	// input manifests were loaded in that order and we iterated in place.
	return &Result{Kept: kept, StorageWarnings: warnings}, nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

// matcher is the subset of *regexp.Regexp's surface Resolve needs; it lets
// the universal deploy type use a literal-set matcher instead of a
// synthesized, escaped alternation regex.
type matcher interface {
	MatchString(string) bool
}

// defaultIncludeFor returns the default include matcher and any hard
// excludes for deployType. For "universal" there is no single include
// regex — it is a pure set-difference over the materialized
// server/workstation sets — so defaultIncludeFor instead returns a matcher
// over exactly the complement of (server ∪ workstation) among the given
// manifests.
func defaultIncludeFor(deployType model.DeployType, manifests []Manifest) (matcher, []*regexp.Regexp, error) {
	serverInclude := regexp.MustCompile(`^(web-app-|web-svc-)`)
	workstationInclude := regexp.MustCompile(`^(desk-|util-desk-)`)

	switch deployType {
	case model.DeployTypeServer:
		hard := make([]*regexp.Regexp, 0, len(serverHardExcludes))
		for _, p := range serverHardExcludes {
			hard = append(hard, regexp.MustCompile(p))
		}
		return serverInclude, hard, nil
	case model.DeployTypeWorkstation:
		return workstationInclude, nil, nil
	case model.DeployTypeUniversal:
		// universal = all − (server ∪ workstation), computed as a pure set
		// operation over the already-materialized manifest id sequence.
		universalIDs := make(map[string]bool, len(manifests))
		for _, m := range manifests {
			if serverInclude.MatchString(m.ID) || workstationInclude.MatchString(m.ID) {
				continue
			}
			universalIDs[m.ID] = true
		}
		return &literalSetMatcher{ids: universalIDs}, nil, nil
	default:
		return nil, nil, errs.New(errs.InvalidInput, "unreachable: deploy type already validated")
	}
}

// literalSetMatcher satisfies the same MatchString surface as *regexp.Regexp
// (the subset Resolve actually calls) without forcing the universal set
// difference through a synthesized, escaped alternation regex.
type literalSetMatcher struct {
	ids map[string]bool
}

func (m *literalSetMatcher) MatchString(s string) bool { return m.ids[s] }
