// Package branch holds the fixed capability matrix of the supported source
// branches.
package branch

import "sort"

// ID identifies a source branch of the engine.
type ID string

const (
	Mozilla192     ID = "192"
	MozillaCentral ID = "mc"
	TraceMonkey    ID = "tm"
	JaegerMonkey   ID = "jm"
	IonMonkey      ID = "im"
	MozillaInbound ID = "mi"
	Larch          ID = "larch"
)

// Info is the static record of one branch.
type Info struct {
	ID ID
	// Tree is the checkout directory name under the trees root.
	Tree string
	// KnownIssues is the js-known directory name in the fuzzing repository.
	KnownIssues string
	// RepoFlag reports whether the harness takes --repo=<root> for this branch.
	RepoFlag bool
	// CompareJIT reports whether the branch can run compareJIT at all.
	CompareJIT bool
	// Ion marks the newest branch, which has the Ion tier.
	Ion bool
	// DebugJIT reports whether the shell's -d flag applies.
	DebugJIT bool
}

const centralKnown = "mozilla-central"

var table = map[ID]Info{
	Mozilla192: {
		ID:          Mozilla192,
		Tree:        "mozilla-1.9.2",
		KnownIssues: "mozilla-1.9.2",
		DebugJIT:    true,
	},
	MozillaCentral: {ID: MozillaCentral, Tree: "mozilla-central", KnownIssues: centralKnown, RepoFlag: true, CompareJIT: true, DebugJIT: true},
	TraceMonkey:    {ID: TraceMonkey, Tree: "tracemonkey", KnownIssues: centralKnown, RepoFlag: true, CompareJIT: true, DebugJIT: true},
	JaegerMonkey:   {ID: JaegerMonkey, Tree: "jaegermonkey", KnownIssues: centralKnown, RepoFlag: true, CompareJIT: true, DebugJIT: true},
	IonMonkey:      {ID: IonMonkey, Tree: "ionmonkey", KnownIssues: centralKnown, RepoFlag: true, CompareJIT: true, Ion: true},
	MozillaInbound: {ID: MozillaInbound, Tree: "mozilla-inbound", KnownIssues: centralKnown, RepoFlag: true, CompareJIT: true, DebugJIT: true},
	Larch:          {ID: Larch, Tree: "larch", KnownIssues: centralKnown, RepoFlag: true, CompareJIT: true, DebugJIT: true},
}

// Lookup returns the record for id.
func Lookup(id ID) (Info, bool) {
	info, ok := table[id]
	return info, ok
}

// All returns every branch record ordered by identifier.
func All() []Info {
	out := make([]Info, 0, len(table))
	for _, info := range table {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
