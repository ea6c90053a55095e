package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectTaskLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"kanban"},
			want: []string{"kanban"},
		},
		{
			name: "direct task id first token",
			in:   []string{"kanban", "K-012"},
			want: []string{"kanban", "tasks", "show", "K-012"},
		},
		{
			name: "direct task id after value flag",
			in:   []string{"kanban", "--config-dir", "./tmp-test-cfg", "K-012"},
			want: []string{"kanban", "--config-dir", "./tmp-test-cfg", "tasks", "show", "K-012"},
		},
		{
			name: "direct task id after equals flag",
			in:   []string{"kanban", "--config-dir=./tmp-test-cfg", "K-012"},
			want: []string{"kanban", "--config-dir=./tmp-test-cfg", "tasks", "show", "K-012"},
		},
		{
			name: "direct task id after bool flag",
			in:   []string{"kanban", "--pretty", "K-012"},
			want: []string{"kanban", "--pretty", "tasks", "show", "K-012"},
		},
		{
			name: "direct task id after double dash",
			in:   []string{"kanban", "--config-dir", "./tmp-test-cfg", "--", "K-012"},
			want: []string{"kanban", "--config-dir", "./tmp-test-cfg", "--", "tasks", "show", "K-012"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"kanban", "tasks", "show", "K-012"},
			want: []string{"kanban", "tasks", "show", "K-012"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"kanban", "wat"},
			want: []string{"kanban", "wat"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectTaskLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectTaskLookupArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
