package pgstore

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSMathematics/student-management-sub000/core"
)

func TestWhere(t *testing.T) {
	tests := []struct {
		name     string
		filters  []core.Filter
		wantCond string
		wantArgs []interface{}
	}{
		{
			name:     "collection only",
			wantCond: "collection = $1",
			wantArgs: []interface{}{"grades"},
		},
		{
			name:     "equality",
			filters:  []core.Filter{core.Eq("studentId", "s1"), core.Eq("seenByUser", false)},
			wantCond: "collection = $1 AND data->$2::text = $3::jsonb AND data->$4::text = $5::jsonb",
			wantArgs: []interface{}{"grades", "studentId", `"s1"`, "seenByUser", "false"},
		},
		{
			name:     "document ids",
			filters:  []core.Filter{core.In(core.FieldID, "a", "b"), core.Eq(core.FieldID, "a")},
			wantCond: "collection = $1 AND id = ANY($2::text[]) AND id = $3",
			wantArgs: []interface{}{"grades", pq.Array([]string{"a", "b"}), "a"},
		},
		{
			name:     "membership",
			filters:  []core.Filter{core.In("subject", "Math")},
			wantCond: "collection = $1 AND data->>$2::text = ANY($3::text[])",
			wantArgs: []interface{}{"grades", "subject", pq.Array([]string{"Math"})},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cond, args, err := where(tc.filters, []interface{}{"grades"})
			require.NoError(t, err)
			assert.Equal(t, tc.wantCond, cond)
			assert.Equal(t, tc.wantArgs, args)
		})
	}

	t.Run("too many values", func(t *testing.T) {
		ids := make([]string, core.MaxInValues+1)
		for i := range ids {
			ids[i] = string(rune('a' + i))
		}
		_, _, err := where([]core.Filter{core.In(core.FieldID, ids...)}, []interface{}{"grades"})
		assert.Equal(t, core.ErrTooManyValues, err)
	})
}
