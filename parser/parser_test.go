package parser

import (
	"reflect"
	"testing"

	"github.com/qkvdb/qkvdb/ast"
	"github.com/qkvdb/qkvdb/format"
)

func TestParseCreateDatabase(t *testing.T) {
	cmd, err := New("CREATE DATABASE db WITH qkv_vec_size = 4;").Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	cd, ok := cmd.(*ast.CreateDatabase)
	if !ok {
		t.Fatalf("expected *ast.CreateDatabase, got %T", cmd)
	}
	if cd.Name != "db" {
		t.Errorf("Name = %q, want db", cd.Name)
	}
	prop, ok := cd.Properties.Find("qkv_vec_size")
	if !ok {
		t.Fatalf("expected qkv_vec_size property")
	}
	if prop.Value.Kind != ast.PropertyInteger || prop.Value.Int != 4 {
		t.Errorf("qkv_vec_size = %+v, want Integer(4)", prop.Value)
	}
}

func TestParseCreateDatabaseRejectsInside(t *testing.T) {
	_, err := New("CREATE DATABASE b INSIDE db;").Parse()
	if err == nil {
		t.Fatalf("expected error, CREATE DATABASE must not take INSIDE")
	}
}

func TestParseCreateBucket(t *testing.T) {
	cmd, err := New("CREATE BUCKET b INSIDE db;").Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	cb, ok := cmd.(*ast.CreateBucket)
	if !ok {
		t.Fatalf("expected *ast.CreateBucket, got %T", cmd)
	}
	if cb.Name != "b" || cb.Database != "db" {
		t.Errorf("got name=%q db=%q", cb.Name, cb.Database)
	}
}

func TestParseInsert(t *testing.T) {
	cmd, err := New("INSERT INTO b INSIDE db KEYS ([1,2,3,4],[5,6,7,8]) VALUES ([0,0,0,0],[1,1,1,1]);").Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ins, ok := cmd.(*ast.Insert)
	if !ok {
		t.Fatalf("expected *ast.Insert, got %T", cmd)
	}
	if len(ins.Entries) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(ins.Entries))
	}
	if !reflect.DeepEqual(ins.Entries[0].Key, []float32{1, 2, 3, 4}) {
		t.Errorf("row 0 key = %v", ins.Entries[0].Key)
	}
	if !reflect.DeepEqual(ins.Entries[1].Value, []float32{1, 1, 1, 1}) {
		t.Errorf("row 1 value = %v", ins.Entries[1].Value)
	}
}

func TestParseInsertWithoutBucketFails(t *testing.T) {
	_, err := New("INSERT INTO db KEYS ([1]) VALUES ([1]);").Parse()
	if _, ok := err.(*NoBucketInInsertError); !ok {
		t.Fatalf("expected NoBucketInInsertError, got %v (%T)", err, err)
	}
}

func TestParseInsertUnequalKeyValueLengthsRejected(t *testing.T) {
	_, err := New("INSERT INTO b INSIDE db KEYS ([1],[2]) VALUES ([1]);").Parse()
	if _, ok := err.(*KeyValueCountMismatchError); !ok {
		t.Fatalf("expected KeyValueCountMismatchError, got %v (%T)", err, err)
	}
}

func TestParseInsertEmptyVecListIsNoOp(t *testing.T) {
	cmd, err := New("INSERT INTO b INSIDE db KEYS () VALUES ();").Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ins := cmd.(*ast.Insert)
	if len(ins.Entries) != 0 {
		t.Errorf("expected 0 rows, got %d", len(ins.Entries))
	}
}

func TestParseScanTargets(t *testing.T) {
	tests := []struct {
		input      string
		wantKind   ast.ScanTargetKind
		wantName   string
		wantDBName string
	}{
		{"SCAN b INSIDE db QUERIES ([1,0,0,0]);", ast.ScanPhysical, "b", "db"},
		{"SCAN ALL INSIDE db QUERIES ([1]);", ast.ScanAll, "", "db"},
		{"SCAN HOT INSIDE db QUERIES ([1]);", ast.ScanHot, "", "db"},
		{"SCAN all INSIDE db QUERIES ([1]);", ast.ScanPhysical, "all", "db"}, // lower-case is NOT the virtual target
		{"SCAN db QUERIES ([1]);", ast.ScanAll, "", "db"},                    // absent target defaults to All
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, err := New(tt.input).Parse()
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			sc := cmd.(*ast.Scan)
			if sc.Target.Kind != tt.wantKind {
				t.Errorf("target kind = %v, want %v", sc.Target.Kind, tt.wantKind)
			}
			if sc.Target.Name != tt.wantName {
				t.Errorf("target name = %q, want %q", sc.Target.Name, tt.wantName)
			}
			if sc.Database != tt.wantDBName {
				t.Errorf("database = %q, want %q", sc.Database, tt.wantDBName)
			}
		})
	}
}

func TestParseScanEmptyQueries(t *testing.T) {
	cmd, err := New("SCAN b INSIDE db QUERIES ();").Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	sc := cmd.(*ast.Scan)
	if len(sc.Queries) != 0 {
		t.Errorf("expected 0 queries, got %d", len(sc.Queries))
	}
}

func TestParseWithAndClause(t *testing.T) {
	cmd, err := New("CREATE DATABASE db WITH a = 1 AND b = 2.5;").Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	cd := cmd.(*ast.CreateDatabase)
	if len(cd.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(cd.Properties))
	}
	if cd.Properties[0].Name != "a" || cd.Properties[0].Value.Kind != ast.PropertyInteger {
		t.Errorf("prop 0 = %+v", cd.Properties[0])
	}
	if cd.Properties[1].Name != "b" || cd.Properties[1].Value.Kind != ast.PropertyFloat {
		t.Errorf("prop 1 = %+v", cd.Properties[1])
	}
}

func TestParseSecondDotInNumberFails(t *testing.T) {
	_, err := New("CREATE DATABASE db WITH a = 1.2.3;").Parse()
	if err == nil {
		t.Fatalf("expected lexical error for number with two dots")
	}
}

func TestParseCommandsSplitsAndStripsComments(t *testing.T) {
	text := "CREATE DATABASE db WITH qkv_vec_size = 4; // a comment\nCREATE BUCKET b INSIDE db;"
	cmds, err := ParseCommands(text)
	if err != nil {
		t.Fatalf("ParseCommands error: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if _, ok := cmds[0].(*ast.CreateDatabase); !ok {
		t.Errorf("command 0 is %T", cmds[0])
	}
	if _, ok := cmds[1].(*ast.CreateBucket); !ok {
		t.Errorf("command 1 is %T", cmds[1])
	}
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"CREATE DATABASE db WITH qkv_vec_size = 4;",
		"CREATE BUCKET b INSIDE db;",
		"INSERT INTO b INSIDE db KEYS ([1,2,3,4],[5,6,7,8]) VALUES ([0,0,0,0],[1,1,1,1]);",
		"SCAN b INSIDE db QUERIES ([1,0,0,0]);",
		"SCAN ALL INSIDE db QUERIES ();",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			cmd, err := New(in).Parse()
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			printed := format.String(cmd)
			reparsed, err := New(printed).Parse()
			if err != nil {
				t.Fatalf("re-parse error on %q: %v", printed, err)
			}
			if !reflect.DeepEqual(cmd, reparsed) {
				t.Errorf("round trip mismatch:\n  original: %+v\n  reparsed: %+v\n  printed:  %s", cmd, reparsed, printed)
			}
		})
	}
}
