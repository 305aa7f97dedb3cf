package core

import (
	"reflect"
	"testing"
)

func TestCombine_Scenario(t *testing.T) {
	a := Table{Columns: []string{"name", "age"}, Rows: []Row{{"Al", "30"}}}
	b := Table{Columns: []string{"name", "city"}, Rows: []Row{{"Bo", "NY"}}}

	got := Combine([]Table{a, b})

	wantCols := []string{"name", "age", "city"}
	if !reflect.DeepEqual(got.Columns, wantCols) {
		t.Fatalf("Columns = %q, want %q", got.Columns, wantCols)
	}

	wantRows := []map[string]string{
		{"name": "Al", "age": "30", "city": ""},
		{"name": "Bo", "age": "", "city": "NY"},
	}
	for i, want := range wantRows {
		if row := got.RowMap(i); !reflect.DeepEqual(row, want) {
			t.Errorf("row %d = %v, want %v", i, row, want)
		}
	}
}

func TestCombine_Empty(t *testing.T) {
	for _, in := range [][]Table{nil, {}} {
		got := Combine(in)
		if len(got.Columns) != 0 || len(got.Rows) != 0 {
			t.Errorf("Combine(%v) = %+v, want empty table", in, got)
		}
	}
}

func TestCombine_Properties(t *testing.T) {
	tests := []struct {
		name   string
		tables []Table
	}{
		{
			name: "disjoint columns",
			tables: []Table{
				Parse("a,b\n1,2\n3,4"),
				Parse("c,d\n5,6"),
			},
		},
		{
			name: "overlapping in different order",
			tables: []Table{
				Parse("x,y,z\n1,2,3"),
				Parse("z,x\n4,5\n6,7"),
				Parse("w,y\n8,9"),
			},
		},
		{
			name: "zero row table contributes columns",
			tables: []Table{
				Parse("a,b\n1,2"),
				Parse("b,c\n"),
			},
		},
		{
			name: "zero column table",
			tables: []Table{
				{},
				Parse("a\n1"),
				{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combine(tt.tables)

			wantRows := 0
			var wantCols []string
			seen := map[string]bool{}
			for _, tbl := range tt.tables {
				wantRows += len(tbl.Rows)
				for _, c := range tbl.Columns {
					if !seen[c] {
						seen[c] = true
						wantCols = append(wantCols, c)
					}
				}
			}

			if got.Len() != wantRows {
				t.Errorf("row count = %d, want %d", got.Len(), wantRows)
			}
			if !reflect.DeepEqual(got.Columns, wantCols) {
				t.Errorf("Columns = %q, want %q", got.Columns, wantCols)
			}

			// Row order and values survive reshaping.
			i := 0
			for _, tbl := range tt.tables {
				for r := range tbl.Rows {
					row := got.RowMap(i)
					if len(row) != len(wantCols) {
						t.Errorf("row %d has %d keys, want %d", i, len(row), len(wantCols))
					}
					for _, c := range wantCols {
						src, ok := tbl.Value(r, c)
						if !ok {
							src = ""
						}
						if row[c] != src {
							t.Errorf("row %d column %q = %q, want %q", i, c, row[c], src)
						}
					}
					i++
				}
			}
		})
	}
}

func TestCombine_DoesNotModifyInputs(t *testing.T) {
	a := Parse("a,b\n1,2")
	b := Parse("b,c\n3,4")

	Combine([]Table{a, b})

	if !reflect.DeepEqual(a.Rows, []Row{{"1", "2"}}) || !reflect.DeepEqual(b.Rows, []Row{{"3", "4"}}) {
		t.Errorf("inputs modified: %v %v", a.Rows, b.Rows)
	}
}
