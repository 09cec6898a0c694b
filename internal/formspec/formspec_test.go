package formspec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldform/draftsync/internal/engine"
	"github.com/fieldform/draftsync/internal/snapshot"
)

const inspectionTemplate = `
#Report: {
	site:  string & !=""
	score: int & >=0 & <=5
	roof: {
		condition: "good" | "fair" | "poor"
		notes?:    string
	}
}
`

func compileTestTemplate(t *testing.T) *Template {
	t.Helper()
	tmpl, err := Compile(inspectionTemplate)
	require.NoError(t, err)
	return tmpl
}

func validSnapshot() snapshot.Object {
	return snapshot.Object{
		"site":  snapshot.String("plant 7"),
		"score": snapshot.Number(4),
		"roof": snapshot.Object{
			"condition": snapshot.String("fair"),
			"notes":     snapshot.String("minor ponding"),
		},
	}
}

func TestCompile_MissingDefinition(t *testing.T) {
	_, err := Compile(`foo: 1`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#Report")
}

func TestCompile_BadSource(t *testing.T) {
	_, err := Compile(`#Report: {{{`)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inspection.cue")
	require.NoError(t, os.WriteFile(path, []byte(inspectionTemplate), 0o644))

	tmpl, err := Load(path)
	require.NoError(t, err)

	assert.Nil(t, tmpl.Validate(validSnapshot()))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir() + "/nope.cue")
	assert.Error(t, err)
}

func TestValidate_Conforming(t *testing.T) {
	tmpl := compileTestTemplate(t)
	assert.Nil(t, tmpl.Validate(validSnapshot()))
}

func TestValidate_OptionalFieldMayBeAbsent(t *testing.T) {
	tmpl := compileTestTemplate(t)

	snap := validSnapshot()
	roof := snap["roof"].(snapshot.Object)
	delete(roof, "notes")

	assert.Nil(t, tmpl.Validate(snap))
}

func TestValidate_Violations(t *testing.T) {
	tmpl := compileTestTemplate(t)

	tests := []struct {
		name   string
		mutate func(snapshot.Object)
		field  string
	}{
		{
			name:   "score out of range",
			mutate: func(s snapshot.Object) { s["score"] = snapshot.Number(9) },
			field:  "score",
		},
		{
			name:   "empty site",
			mutate: func(s snapshot.Object) { s["site"] = snapshot.String("") },
			field:  "site",
		},
		{
			name: "condition outside enum",
			mutate: func(s snapshot.Object) {
				s["roof"].(snapshot.Object)["condition"] = snapshot.String("terrible")
			},
			field: "roof.condition",
		},
		{
			name:   "missing required field",
			mutate: func(s snapshot.Object) { delete(s, "site") },
			field:  "site",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := validSnapshot()
			tt.mutate(snap)

			violations := tmpl.Validate(snap)
			require.NotEmpty(t, violations)

			found := false
			for _, v := range violations {
				if v.Field == tt.field {
					found = true
				}
				assert.NotEmpty(t, v.Message)
			}
			assert.True(t, found, "expected a violation at %q, got %v", tt.field, violations)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "score", Message: "invalid value 9"}
	assert.Equal(t, "score: invalid value 9", e.Error())

	e = ValidationError{Message: "whole-form problem"}
	assert.Equal(t, "whole-form problem", e.Error())
}

func TestValidatingSaveFunc(t *testing.T) {
	tmpl := compileTestTemplate(t)

	calls := 0
	inner := func(ctx context.Context, snap snapshot.Value) error {
		calls++
		return nil
	}
	save := ValidatingSaveFunc(tmpl, inner)

	// Valid snapshot passes through.
	require.NoError(t, save(context.Background(), validSnapshot()))
	assert.Equal(t, 1, calls)

	// Invalid snapshot is rejected before the network.
	bad := validSnapshot()
	bad["score"] = snapshot.Number(42)
	err := save(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, engine.IsRejected(err))
	assert.Equal(t, 1, calls, "rejected snapshot never reaches the inner save")
}
