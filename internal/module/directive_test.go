package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want Kind
	}{
		{"", Blank},
		{"   \t", Blank},
		{"# a comment", Comment},
		{"#region helpers", Comment},
		{"#requires -Version 7", Requires},
		{"#Requires -Modules Pester", Requires},
		{"  #requires", Requires},
		{"# requires a note, not a pragma", Comment},
		{"#requiresX", Comment},
		{"using module ./lib.psm1", ModuleImport},
		{"  Using Module PSReadLine", ModuleImport},
		{"using namespace System.IO", NamespaceImport},
		{"USING NAMESPACE System.Text", NamespaceImport},
		{"using modulefoo", Code},
		{"usingmodule ./x", Code},
		{"using", Code},
		{"param(", ParamStart},
		{"  Param (", ParamStart},
		{"param([string]$Name)", ParamStart},
		{"parameter(", Code},
		{"Write-Host 'hi'", Code},
		{"function Get-Thing {", Code},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.line), "Classify(%q)", tt.line)
	}
}

func TestKind_Predicates(t *testing.T) {
	t.Parallel()

	assert.True(t, ModuleImport.IsImport())
	assert.True(t, NamespaceImport.IsImport())
	assert.False(t, Requires.IsImport())

	for _, k := range []Kind{Blank, Comment, Requires, ModuleImport, NamespaceImport} {
		assert.True(t, k.IsHeader(), k.String())
	}
	assert.False(t, ParamStart.IsHeader())
	assert.False(t, Code.IsHeader())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestModuleRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"using module ./lib.psm1", "./lib.psm1", true},
		{"using module   ..\\shared\\util.psm1  ", "..\\shared\\util.psm1", true},
		{"using module './with space.psm1'", "./with space.psm1", true},
		{`using module "PSReadLine"`, "PSReadLine", true},
		{"using module 'unbalanced", "'unbalanced", true},
		{"using namespace System", "", false},
		{"Write-Host", "", false},
	}

	for _, tt := range tests {
		got, ok := ModuleRef(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestNamespaceName(t *testing.T) {
	t.Parallel()

	name, ok := NamespaceName("  using namespace System.Collections.Generic ")
	assert.True(t, ok)
	assert.Equal(t, "System.Collections.Generic", name)

	_, ok = NamespaceName("using module ./x.psm1")
	assert.False(t, ok)
}

func TestParamHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, IsParamStart("param("))
	assert.True(t, IsParamStart("PARAM  ("))
	assert.False(t, IsParamStart("param"))
	assert.False(t, IsParamStart("$param = 1"))

	assert.True(t, ClosesParam(")"))
	assert.True(t, ClosesParam("   )  # end"))
	assert.False(t, ClosesParam("[string]$X)"))

	assert.True(t, ParamBalanced("param([string]$Name)"))
	assert.True(t, ParamBalanced("param()"))
	assert.False(t, ParamBalanced("param("))
	assert.False(t, ParamBalanced("param([Parameter(Mandatory)]"))
}
