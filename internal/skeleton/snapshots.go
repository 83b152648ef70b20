package skeleton

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// SnapshotHost is the directory under the snapshot root holding the
// calculator captures.
const SnapshotHost = "requiem.isnet.ru"

// Snapshots indexes the newest capture of each calculator page.
type Snapshots struct {
	// Index is the newest calculator.html.
	Index string
	// Specs maps a spec id to its newest calculator/<id>.html.
	Specs map[string]string
}

type capture struct {
	ts   int64
	path string
}

func newer(a, b capture) bool {
	if a.ts != b.ts {
		return a.ts > b.ts
	}
	return a.path > b.path
}

// FindSnapshots walks root/requiem.isnet.ru for calculator captures. The
// capture timestamp is the name of the directory holding calculator.html,
// or holding the calculator/ directory for spec pages; non-numeric names
// sort oldest.
func FindSnapshots(root string) (*Snapshots, error) {
	dir := filepath.Join(root, SnapshotHost)
	if _, err := os.Stat(dir); err != nil {
		return nil, eris.Wrapf(err, "skeleton: open snapshots %s", dir)
	}

	var index []capture
	specs := map[string][]capture{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".html" {
			return nil
		}
		parent := filepath.Dir(path)
		switch name := d.Name(); {
		case name == "calculator.html":
			index = append(index, capture{ts: timestamp(filepath.Base(parent)), path: path})
		case filepath.Base(parent) == "calculator":
			id := strings.TrimSuffix(name, ".html")
			if _, err := strconv.Atoi(id); err != nil {
				return nil
			}
			specs[id] = append(specs[id], capture{ts: timestamp(filepath.Base(filepath.Dir(parent))), path: path})
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "skeleton: walk %s", dir)
	}
	if len(index) == 0 {
		return nil, eris.Errorf("skeleton: calculator.html not found under %s", dir)
	}

	out := &Snapshots{Index: latest(index), Specs: make(map[string]string, len(specs))}
	for id, caps := range specs {
		out.Specs[id] = latest(caps)
	}
	return out, nil
}

func latest(caps []capture) string {
	sort.Slice(caps, func(i, j int) bool { return newer(caps[i], caps[j]) })
	return caps[0].path
}

func timestamp(name string) int64 {
	n, err := strconv.ParseInt(name, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
