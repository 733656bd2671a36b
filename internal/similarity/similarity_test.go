package similarity

import (
	"math"
	"testing"

	"github.com/mcp-eval/engine/pkg/types"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func domainCall(name string, input map[string]types.Value) types.ToolCallRecord {
	return types.ToolCallRecord{ToolName: name, ToolInput: input}
}

func TestTokenSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		s1, s2 string
		want   float64
	}{
		{"identical", "hello world", "hello world", 1.0},
		{"reordered tokens", "hello world", "world hello", 1.0},
		{"case insensitive", "Hello World", "hello world", 1.0},
		{"one shared of three", "hello world", "hello there", 1.0 / 3.0},
		{"disjoint", "alpha beta", "gamma delta", 0.0},
		{"both empty", "", "", 1.0},
		{"both whitespace", "   ", "\t\n", 1.0},
		{"one empty", "hello", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenSimilarity(tt.s1, tt.s2); !almostEqual(got, tt.want) {
				t.Errorf("TokenSimilarity(%q, %q) = %v, want %v", tt.s1, tt.s2, got, tt.want)
			}
		})
	}
}

func TestScorerValue(t *testing.T) {
	s := NewScorer(0, "")

	tests := []struct {
		name string
		a, b types.Value
		want float64
	}{
		{"equal strings", types.String("x"), types.String("x"), 1.0},
		{"equal numbers", types.Number(5), types.Number(5), 1.0},
		{"both null", types.Null(), types.Null(), 1.0},
		{"null vs value", types.Null(), types.Number(5), 0.0},
		{"absent vs value", types.Value{}, types.String("x"), 0.0},
		{"numbers within falloff", types.Number(100), types.Number(110), 0.99},
		{"numbers at falloff edge", types.Number(0), types.Number(1000), 0.0},
		{"numbers beyond falloff", types.Number(0), types.Number(5000), 0.0},
		{"bools compare as 0 and 1", types.Bool(true), types.Bool(false), 1.0 - 1.0/1000.0},
		{"mixed kinds via string forms", types.String("5"), types.Number(5), 1.0},
		{"string token overlap", types.String("read main.go"), types.String("read util.go"), 1.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Value(tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("Value() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompositeSimilarity(t *testing.T) {
	t.Run("identical composites", func(t *testing.T) {
		a := types.Object(map[string]types.Value{"k": types.Number(1)})
		b := types.Object(map[string]types.Value{"k": types.Number(1)})
		if got := CompositeSimilarity(a, b); got != 1.0 {
			t.Errorf("identical composites = %v, want 1.0", got)
		}
	})

	t.Run("key order does not matter", func(t *testing.T) {
		a := types.Object(map[string]types.Value{"a": types.Number(1), "b": types.Number(2)})
		b := types.Object(map[string]types.Value{"b": types.Number(2), "a": types.Number(1)})
		if got := CompositeSimilarity(a, b); got != 1.0 {
			t.Errorf("reordered keys = %v, want 1.0", got)
		}
	})

	t.Run("similar structure scores high", func(t *testing.T) {
		a := types.Object(map[string]types.Value{"name": types.String("server-a"), "port": types.Number(8080)})
		b := types.Object(map[string]types.Value{"name": types.String("server-b"), "port": types.Number(8081)})
		got := CompositeSimilarity(a, b)
		if got <= 0.8 || got >= 1.0 {
			t.Errorf("similar composites = %v, want in (0.8, 1.0)", got)
		}
	})

	t.Run("disjoint alphabets score low", func(t *testing.T) {
		a := types.Array(types.String("aaaa"))
		b := types.Array(types.Number(7777))
		got := CompositeSimilarity(a, b)
		if got >= 0.5 {
			t.Errorf("dissimilar composites = %v, want < 0.5", got)
		}
	})
}

func TestScorerArgs(t *testing.T) {
	s := NewScorer(0, "")

	tests := []struct {
		name         string
		args1, args2 map[string]types.Value
		want         float64
	}{
		{"both empty", nil, map[string]types.Value{}, 1.0},
		{
			"identical",
			map[string]types.Value{"path": types.String("a.go")},
			map[string]types.Value{"path": types.String("a.go")},
			1.0,
		},
		{
			"disjoint keys",
			map[string]types.Value{"a": types.Number(1)},
			map[string]types.Value{"b": types.Number(1)},
			0.0,
		},
		{
			"one empty",
			map[string]types.Value{"a": types.Number(1)},
			nil,
			0.0,
		},
		{
			// keys identical (keySim 1.0), values 0.99 apart on the falloff:
			// 1.0*0.3 + 0.99*0.7
			"shared key with close numbers",
			map[string]types.Value{"n": types.Number(100)},
			map[string]types.Value{"n": types.Number(110)},
			0.3 + 0.99*0.7,
		},
		{
			// key Jaccard 1/3, single common key with equal value:
			// (1/3)*0.3 + 1.0*0.7
			"partial key overlap",
			map[string]types.Value{"a": types.Number(1), "b": types.Number(2)},
			map[string]types.Value{"a": types.Number(1), "c": types.Number(3)},
			(1.0/3.0)*0.3 + 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Args(tt.args1, tt.args2); !almostEqual(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorerToolCall(t *testing.T) {
	s := NewScorer(0, "")

	t.Run("different names score zero", func(t *testing.T) {
		a := domainCall("mcp__kg__read", map[string]types.Value{"k": types.Number(1)})
		b := domainCall("mcp__kg__write", map[string]types.Value{"k": types.Number(1)})
		if got := s.ToolCall(&a, &b); got != 0.0 {
			t.Errorf("name mismatch = %v, want 0.0", got)
		}
	})

	t.Run("equal names score args", func(t *testing.T) {
		a := domainCall("mcp__kg__read", map[string]types.Value{"k": types.Number(1)})
		b := domainCall("mcp__kg__read", map[string]types.Value{"k": types.Number(1)})
		if got := s.ToolCall(&a, &b); got != 1.0 {
			t.Errorf("identical calls = %v, want 1.0", got)
		}
	})

	t.Run("nil records behave as empty", func(t *testing.T) {
		if got := s.ToolCall(nil, nil); got != 1.0 {
			t.Errorf("two nil calls = %v, want 1.0", got)
		}
		a := domainCall("mcp__kg__read", nil)
		if got := s.ToolCall(&a, nil); got != 0.0 {
			t.Errorf("nil vs named call = %v, want 0.0", got)
		}
	})
}

func TestScorerTrajectory(t *testing.T) {
	s := NewScorer(0, "")
	read := domainCall("mcp__fs__read", map[string]types.Value{"path": types.String("a.go")})
	write := domainCall("mcp__fs__write", map[string]types.Value{"path": types.String("a.go")})

	t.Run("identical trajectories", func(t *testing.T) {
		cur := []types.ToolCallRecord{read, write}
		base := []types.ToolCallRecord{read, write}
		if got := s.Trajectory(cur, base); got != 1.0 {
			t.Errorf("identical = %v, want 1.0", got)
		}
	})

	t.Run("both empty after filtering", func(t *testing.T) {
		cur := []types.ToolCallRecord{domainCall("TodoWrite", nil)}
		base := []types.ToolCallRecord{domainCall("Bash", nil)}
		if got := s.Trajectory(cur, base); got != 1.0 {
			t.Errorf("no domain calls on either side = %v, want 1.0", got)
		}
	})

	t.Run("one side empty", func(t *testing.T) {
		if got := s.Trajectory([]types.ToolCallRecord{read}, nil); got != 0.0 {
			t.Errorf("one empty = %v, want 0.0", got)
		}
	})

	t.Run("truncated run scores the missing tail zero", func(t *testing.T) {
		cur := []types.ToolCallRecord{read}
		base := []types.ToolCallRecord{read, write}
		if got := s.Trajectory(cur, base); !almostEqual(got, 0.5) {
			t.Errorf("truncated = %v, want 0.5", got)
		}
	})

	t.Run("swapped order degrades every position", func(t *testing.T) {
		cur := []types.ToolCallRecord{write, read}
		base := []types.ToolCallRecord{read, write}
		if got := s.Trajectory(cur, base); got != 0.0 {
			t.Errorf("swapped = %v, want 0.0 under positional alignment", got)
		}
	})

	t.Run("non-domain calls are ignored", func(t *testing.T) {
		cur := []types.ToolCallRecord{domainCall("Bash", nil), read, domainCall("TodoWrite", nil), write}
		base := []types.ToolCallRecord{read, write}
		if got := s.Trajectory(cur, base); got != 1.0 {
			t.Errorf("with scratch tools interleaved = %v, want 1.0", got)
		}
	})
}

func TestFilterDomain(t *testing.T) {
	s := NewScorer(0, "mcp__kg__")
	calls := []types.ToolCallRecord{
		domainCall("mcp__kg__read", nil),
		domainCall("mcp__fs__read", nil),
		domainCall("Bash", nil),
	}
	got := s.FilterDomain(calls)
	if len(got) != 1 || got[0].ToolName != "mcp__kg__read" {
		t.Errorf("FilterDomain kept %d calls, want only the configured prefix", len(got))
	}
}

func TestNewScorerDefaults(t *testing.T) {
	s := NewScorer(-1, "")
	if s.maxNumericDiff != DefaultMaxNumericDiff {
		t.Errorf("maxNumericDiff = %v, want default", s.maxNumericDiff)
	}
	if s.DomainPrefix() != DefaultDomainPrefix {
		t.Errorf("DomainPrefix() = %q, want default", s.DomainPrefix())
	}
}
