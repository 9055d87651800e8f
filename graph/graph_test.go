package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type testState struct {
	trail []string
	val   int
}

func appendNode(name string) NodeFunc[testState] {
	return func(ctx context.Context, s testState) (testState, error) {
		s.trail = append(s.trail, name)
		return s, nil
	}
}

func TestExecuteLinear(t *testing.T) {
	g := NewBuilder[testState]().
		AddNode("a", appendNode("a")).
		AddNode("b", appendNode("b")).
		AddNode("c", appendNode("c")).
		AddEdge("a", "b").
		AddEdge("b", "c").
		SetStart("a").
		SetEnd("c").
		Build()

	out, err := g.Execute(context.Background(), testState{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, out.trail); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteConditionBranch(t *testing.T) {
	build := func(val int) *Graph[testState] {
		return NewBuilder[testState]().
			AddNode("start", func(ctx context.Context, s testState) (testState, error) {
				s.val = val
				s.trail = append(s.trail, "start")
				return s, nil
			}).
			AddConditionNode("fork", func(ctx context.Context, s testState) (string, error) {
				if s.val > 0 {
					return "high", nil
				}
				return "low", nil
			}, map[string]string{"high": "high", "low": "low"}).
			AddNode("high", appendNode("high")).
			AddNode("low", appendNode("low")).
			AddNode("end", appendNode("end")).
			AddEdge("start", "fork").
			AddEdge("high", "end").
			AddEdge("low", "end").
			SetStart("start").
			SetEnd("end").
			Build()
	}

	tests := []struct {
		name string
		val  int
		want []string
	}{
		{"positive takes high branch", 1, []string{"start", "high", "end"}},
		{"zero takes low branch", 0, []string{"start", "low", "end"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := build(tt.val).Execute(context.Background(), testState{})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, out.trail); diff != "" {
				t.Errorf("trail mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecuteMissingBranch(t *testing.T) {
	g := NewBuilder[testState]().
		AddNode("start", appendNode("start")).
		AddConditionNode("fork", func(ctx context.Context, s testState) (string, error) {
			return "elsewhere", nil
		}, map[string]string{"known": "end"}).
		AddNode("end", appendNode("end")).
		AddEdge("start", "fork").
		SetStart("start").
		SetEnd("end").
		Build()

	_, err := g.Execute(context.Background(), testState{})
	if err == nil {
		t.Fatal("Execute() expected error for unmapped branch result")
	}
	if !strings.Contains(err.Error(), "no branch") {
		t.Errorf("Execute() error = %v, want branch error", err)
	}
}

func TestExecuteNodeError(t *testing.T) {
	boom := errors.New("boom")
	g := NewBuilder[testState]().
		AddNode("a", appendNode("a")).
		AddNode("b", func(ctx context.Context, s testState) (testState, error) {
			return s, boom
		}).
		AddEdge("a", "b").
		SetStart("a").
		SetEnd("b").
		Build()

	_, err := g.Execute(context.Background(), testState{})
	if !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want wrapped %v", err, boom)
	}
}

func TestExecuteDetectsLoop(t *testing.T) {
	b := NewBuilder[testState]().
		AddNode("a", appendNode("a")).
		AddNode("b", appendNode("b")).
		AddNode("end", appendNode("end")).
		AddEdge("a", "b").
		AddEdge("b", "a").
		SetStart("a").
		SetEnd("end").
		SetMaxVisits(3)

	_, err := b.Build().Execute(context.Background(), testState{})
	if err == nil || !strings.Contains(err.Error(), "infinite loop") {
		t.Errorf("Execute() error = %v, want loop detection", err)
	}
}

func TestRoutes(t *testing.T) {
	g := NewBuilder[testState]().
		AddNode("start", appendNode("start")).
		AddConditionNode("fork", func(ctx context.Context, s testState) (string, error) {
			return "left", nil
		}, map[string]string{"left": "left", "right": "right"}).
		AddNode("left", appendNode("left")).
		AddNode("right", appendNode("right")).
		AddNode("end", appendNode("end")).
		AddEdge("start", "fork").
		AddEdge("left", "end").
		AddEdge("right", "end").
		SetStart("start").
		SetEnd("end").
		Build()

	routes := g.Routes()
	if got := routes["start"]; len(got) != 1 || got[0] != "fork" {
		t.Errorf("routes[start] = %v, want [fork]", got)
	}
	forkTargets := make(map[string]bool)
	for _, target := range routes["fork"] {
		forkTargets[target] = true
	}
	if !forkTargets["left"] || !forkTargets["right"] || len(forkTargets) != 2 {
		t.Errorf("routes[fork] = %v, want left and right", routes["fork"])
	}
	if got := routes["end"]; got != nil {
		t.Errorf("routes[end] = %v, want nil", got)
	}
}

func TestBuilderPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"duplicate node", func() {
			NewBuilder[testState]().
				AddNode("a", appendNode("a")).
				AddNode("a", appendNode("a"))
		}},
		{"empty name", func() {
			NewBuilder[testState]().AddNode("", appendNode(""))
		}},
		{"edge from missing node", func() {
			NewBuilder[testState]().AddEdge("ghost", "a")
		}},
		{"edge from condition node", func() {
			NewBuilder[testState]().
				AddConditionNode("fork", func(ctx context.Context, s testState) (string, error) {
					return "", nil
				}, map[string]string{"x": "y"}).
				AddEdge("fork", "y")
		}},
		{"condition without branches", func() {
			NewBuilder[testState]().
				AddConditionNode("fork", func(ctx context.Context, s testState) (string, error) {
					return "", nil
				}, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("expected panic")
				}
			}()
			tt.fn()
		})
	}
}
