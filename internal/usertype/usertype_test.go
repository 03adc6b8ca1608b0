package usertype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestList(t *testing.T) {
	all := Admin | Candidate | Employee | Influencer | Employer

	assert.Equal(t, []Bits{Employee, Influencer, Employer}, List(all, DefaultExclude))
	assert.Equal(t, []Bits{Admin, Employer}, List(Admin|Employer, None))
	assert.Empty(t, List(None, None))
	assert.Equal(t, []string{"Employee", "Employer"}, Names(Employee|Employer|Candidate, DefaultExclude))
}

func TestNameLookups(t *testing.T) {
	name, ok := Name(Influencer)
	assert.True(t, ok)
	assert.Equal(t, "Influencer", name)

	_, ok = Name(Admin | Employer)
	assert.False(t, ok)

	bit, ok := FromName("Employer")
	assert.True(t, ok)
	assert.Equal(t, Employer, bit)

	ns, ok := Namespace(Candidate)
	assert.True(t, ok)
	assert.Equal(t, NamespaceCandidate, ns)

	assert.Equal(t, "Employee", Employee.String())
	assert.Equal(t, "0x14", (Employee | Employer).String())
}

func TestHas(t *testing.T) {
	bits := Employee | Candidate
	assert.True(t, bits.Has(Employee))
	assert.True(t, bits.Has(Employee|Employer))
	assert.False(t, bits.Has(Employer))
}

func TestIsMainNamespace(t *testing.T) {
	for _, ns := range []string{"candidate", "employee", "influencer", "employer", "admin", "user"} {
		assert.True(t, IsMainNamespace(ns), ns)
	}
	assert.False(t, IsMainNamespace("account"))
	assert.False(t, IsMainNamespace(""))
}

func TestOrgType(t *testing.T) {
	assert.True(t, OrgEmployer.IsEmployer())
	assert.False(t, OrgGroup.IsEmployer())
	assert.True(t, OrgGroup.IsGroup())
	assert.True(t, OrgAgency.IsAgency())
}
