package session

import (
	"reflect"
	"testing"

	"github.com/pubgraph/pubmed-sync/internal/baseline"
)

// drainedSession simulates a run where every file resolved.
func drainedSession(names []string) *Session {
	sess := NewSession(names)
	sess.Pending = make(map[string]struct{})
	return sess
}

func TestReconcile(t *testing.T) {
	col := baseline.Collection{Year: 2025}
	allNames := []string{
		"pubmed25n0001.xml.gz",
		"pubmed25n0002.xml.gz",
		"pubmed25n0003.xml.gz",
	}

	tests := []struct {
		name      string
		session   func() *Session
		onDisk    []string
		want      Report
		wantClean bool
	}{
		{
			name:      "everything present",
			session:   func() *Session { return drainedSession(allNames) },
			onDisk:    allNames,
			want:      Report{Missing: []string{}, StillFailing: []string{}},
			wantClean: true,
		},
		{
			name:    "file removed externally after a clean run",
			session: func() *Session { return drainedSession(allNames) },
			onDisk:  []string{"pubmed25n0001.xml.gz", "pubmed25n0003.xml.gz"},
			want: Report{
				Missing:      []string{"pubmed25n0002.xml.gz"},
				StillFailing: []string{},
			},
		},
		{
			name: "confirmed-absent files are expected to be absent",
			session: func() *Session {
				sess := drainedSession(allNames)
				sess.ConfirmedAbsent["pubmed25n0002.xml.gz"] = struct{}{}
				return sess
			},
			onDisk:    []string{"pubmed25n0001.xml.gz", "pubmed25n0003.xml.gz"},
			want:      Report{Missing: []string{}, StillFailing: []string{}},
			wantClean: true,
		},
		{
			name: "exhausted retries appear in both lists when not on disk",
			session: func() *Session {
				sess := drainedSession(allNames)
				sess.Pending["pubmed25n0003.xml.gz"] = struct{}{}
				return sess
			},
			onDisk: []string{"pubmed25n0001.xml.gz", "pubmed25n0002.xml.gz"},
			want: Report{
				Missing:      []string{"pubmed25n0003.xml.gz"},
				StillFailing: []string{"pubmed25n0003.xml.gz"},
			},
		},
		{
			name:    "unrelated files in the directory are ignored",
			session: func() *Session { return drainedSession(allNames) },
			onDisk:  append([]string{"notes.txt", ".DS_Store"}, allNames...),
			want:      Report{Missing: []string{}, StillFailing: []string{}},
			wantClean: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(col, len(allNames), tt.session(), tt.onDisk)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reconcile() = %+v, want %+v", got, tt.want)
			}
			if got.Clean() != tt.wantClean {
				t.Errorf("Clean() = %v, want %v", got.Clean(), tt.wantClean)
			}
		})
	}
}
