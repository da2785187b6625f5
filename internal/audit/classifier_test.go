package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// taxonRecord is a minimal tracked entity for exercising the classifier.
type taxonRecord struct {
	id       int64
	orgID    int64
	name     string
	rank     string
	parentID *int64
}

func (t *taxonRecord) AuditTable() string { return "taxon" }
func (t *taxonRecord) AuditID() int64     { return t.id }

func (t *taxonRecord) AuditFields() Snapshot {
	return Snapshot{
		"name":   t.name,
		"rank":   t.rank,
		"org_id": t.orgID,
	}
}

func (t *taxonRecord) AuditForeignKeys() Snapshot {
	return Snapshot{"parent_id": NullableInt64(t.parentID)}
}

type ClassifierSuite struct {
	suite.Suite
}

func TestClassifierSuite(t *testing.T) {
	suite.Run(t, new(ClassifierSuite))
}

func (s *ClassifierSuite) TestNoHistoryMarksEverythingNewlySet() {
	entity := &taxonRecord{id: 7, orgID: 1, name: "Rosa", rank: "genus"}

	before, after, changed := Classify(entity, nil)

	s.True(changed)
	s.Equal("Rosa", after["name"])
	s.Equal(int64(7), after["id"])
	s.Nil(before["name"])
	s.Nil(before["id"])
}

func (s *ClassifierSuite) TestUnchangedEntityReportsNoChange() {
	entity := &taxonRecord{id: 7, orgID: 1, name: "Rosa", rank: "genus"}
	history := HistoryOf(entity)

	before, after, changed := Classify(entity, history)

	s.False(changed)
	s.Equal(before["name"], after["name"])
	s.Equal(before["rank"], after["rank"])
	s.Equal(before["parent_id"], after["parent_id"])
}

func (s *ClassifierSuite) TestScalarChangeCarriesPriorValue() {
	entity := &taxonRecord{id: 7, orgID: 1, name: "Rosa", rank: "genus"}
	history := HistoryOf(entity)
	entity.name = "Rosa rugosa"
	entity.rank = "species"

	before, after, changed := Classify(entity, history)

	s.True(changed)
	s.Equal("Rosa", before["name"])
	s.Equal("Rosa rugosa", after["name"])
	s.Equal("genus", before["rank"])
	s.Equal("species", after["rank"])
	// Untouched fields carry the same value on both sides.
	s.Equal(int64(1), before["org_id"])
	s.Equal(int64(1), after["org_id"])
}

func (s *ClassifierSuite) TestForeignKeyOnlyChangeIsDetected() {
	oldParent := int64(3)
	entity := &taxonRecord{id: 7, orgID: 1, name: "Rosa rugosa", rank: "species", parentID: &oldParent}
	history := HistoryOf(entity)
	newParent := int64(4)
	entity.parentID = &newParent

	before, after, changed := Classify(entity, history)

	s.True(changed)
	s.Equal(int64(3), before["parent_id"])
	s.Equal(int64(4), after["parent_id"])
}

func (s *ClassifierSuite) TestForeignKeySetFromNilIsDetected() {
	entity := &taxonRecord{id: 7, orgID: 1, name: "Rosa rugosa", rank: "species"}
	history := HistoryOf(entity)
	parent := int64(4)
	entity.parentID = &parent

	_, _, changed := Classify(entity, history)
	s.True(changed)
}

func (s *ClassifierSuite) TestTimesCompareByInstant() {
	utc := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	shifted := utc.In(time.FixedZone("UTC+2", 2*60*60))

	s.True(valuesEqual(utc, shifted))
	s.False(valuesEqual(utc, utc.Add(time.Second)))
	s.False(valuesEqual(utc, "2026-03-14T09:00:00Z"))
	s.True(valuesEqual(nil, nil))
	s.False(valuesEqual(nil, "x"))
}
