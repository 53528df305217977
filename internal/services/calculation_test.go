package services

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/yungbote/derivedconcept-backend/internal/data/repos/testutil"
	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/modules/dependency"
	apperrors "github.com/yungbote/derivedconcept-backend/internal/pkg/errors"
)

func TestCalculateSingleWithSourceParent(t *testing.T) {
	f := newFixture(t)
	d1 := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\D1\`, time.Now().Add(-time.Hour), `\Source\P1\`)

	got, err := f.calc.Calculate(f.dbc, testutil.PtrUint(d1.ID))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	want := []recordView{{d1.ID, types.JobStatusPending}}
	if !reflect.DeepEqual(view(got), want) {
		t.Fatalf("Calculate: want=%v got=%v", want, view(got))
	}
	if got[0].ID == 0 || got[0].CompletedOn != nil {
		t.Fatalf("Calculate: expected persisted pending record, got %+v", got[0])
	}
}

func TestCalculateGlobalOrdersParentsFirst(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)
	d2 := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\D2\`, past)
	d1 := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\D1\`, past, d2.Path)

	got, err := f.calc.Calculate(f.dbc, nil)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	want := []recordView{{d2.ID, types.JobStatusPending}, {d1.ID, types.JobStatusPending}}
	if !reflect.DeepEqual(view(got), want) {
		t.Fatalf("Calculate: want=%v got=%v", want, view(got))
	}
	if got[0].BatchID != got[1].BatchID {
		t.Fatalf("Calculate: records of one call must share a batch id")
	}
}

func TestCalculateGlobalMutualDependency(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)
	d1 := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\D1\`, past, `\D\D2\`)
	d2 := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\D2\`, past, `\D\D1\`)

	got, err := f.calc.Calculate(f.dbc, nil)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	want := []recordView{{d1.ID, types.JobStatusError}, {d2.ID, types.JobStatusError}}
	if !reflect.DeepEqual(view(got), want) {
		t.Fatalf("Calculate: want=%v got=%v", want, view(got))
	}
	for _, r := range got {
		if r.ErrorStack != dependency.CyclicDependencyMessage {
			t.Fatalf("Calculate: error stack: want=%q got=%q", dependency.CyclicDependencyMessage, r.ErrorStack)
		}
	}
}

func TestCalculateSingleStandalone(t *testing.T) {
	f := newFixture(t)
	d3 := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\D3\`, time.Now().Add(-time.Hour))

	got, err := f.calc.Calculate(f.dbc, testutil.PtrUint(d3.ID))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if want := []recordView{{d3.ID, types.JobStatusPending}}; !reflect.DeepEqual(view(got), want) {
		t.Fatalf("Calculate: want=%v got=%v", want, view(got))
	}
}

func TestCalculateSkipsCurrentConcept(t *testing.T) {
	f := newFixture(t)
	updated := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	completed := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	d1 := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\D1\`, updated)
	testutil.SeedJobRecord(t, f.ctx, f.db, d1.ID, types.JobStatusCompleted, updated, testutil.PtrTime(completed))

	got, err := f.calc.Calculate(f.dbc, testutil.PtrUint(d1.ID))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Calculate: want empty batch got %v", view(got))
	}
	if len(f.notify.batches) != 0 {
		t.Fatalf("Calculate: empty batch must not be announced")
	}
}

func TestCalculateReschedulesStaleConcept(t *testing.T) {
	f := newFixture(t)
	completed := time.Now().Add(-2 * time.Hour)
	d1 := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\D1\`, time.Now().Add(-time.Hour))
	testutil.SeedJobRecord(t, f.ctx, f.db, d1.ID, types.JobStatusCompleted, completed, testutil.PtrTime(completed))

	got, err := f.calc.Calculate(f.dbc, nil)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if want := []recordView{{d1.ID, types.JobStatusPending}}; !reflect.DeepEqual(view(got), want) {
		t.Fatalf("Calculate: want=%v got=%v", want, view(got))
	}
}

func TestCalculateReschedulesAfterFailedRun(t *testing.T) {
	f := newFixture(t)
	d1 := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\D1\`, time.Now().Add(-time.Hour))

	first, err := f.calc.Calculate(f.dbc, testutil.PtrUint(d1.ID))
	if err != nil || len(first) != 1 {
		t.Fatalf("Calculate: err=%v records=%v", err, view(first))
	}
	if _, err := f.records.Fail(f.dbc, first[0].ID, "query timed out"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	single, err := f.calc.Calculate(f.dbc, testutil.PtrUint(d1.ID))
	if err != nil {
		t.Fatalf("Calculate single: %v", err)
	}
	want := []recordView{{d1.ID, types.JobStatusPending}}
	if !reflect.DeepEqual(view(single), want) {
		t.Fatalf("Calculate single: want=%v got=%v", want, view(single))
	}
	if single[0].BatchID == first[0].BatchID {
		t.Fatalf("Calculate single: expected a new batch")
	}

	global, err := f.calc.Calculate(f.dbc, nil)
	if err != nil {
		t.Fatalf("Calculate global: %v", err)
	}
	if !reflect.DeepEqual(view(global), want) {
		t.Fatalf("Calculate global: want=%v got=%v", want, view(global))
	}
}

func TestCalculateSingleExcludesDependents(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)
	s := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\S\`, past, `\Source\Weight\`)
	target := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\T\`, past, s.Path)
	x := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\X\`, past, target.Path)

	got, err := f.calc.Calculate(f.dbc, testutil.PtrUint(target.ID))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	want := []recordView{{s.ID, types.JobStatusPending}, {target.ID, types.JobStatusPending}}
	if !reflect.DeepEqual(view(got), want) {
		t.Fatalf("Calculate: want=%v got=%v", want, view(got))
	}
	for _, r := range got {
		if r.DerivedConceptID == x.ID {
			t.Fatalf("Calculate: dependent %s must not be scheduled", x.Path)
		}
	}

	var detail map[string]any
	if err := json.Unmarshal(got[1].Detail, &detail); err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail["trigger"] != "single" || detail["target_id"] != float64(target.ID) {
		t.Fatalf("detail: got %v", detail)
	}
}

func TestCalculateSingleBehindCycle(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)
	target := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\T\`, past, `\D\A\`)
	a := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\A\`, past, `\D\B\`)
	b := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\B\`, past, `\D\A\`)
	// Current, but cycle members are reported regardless.
	testutil.SeedJobRecord(t, f.ctx, f.db, a.ID, types.JobStatusCompleted, past, testutil.PtrTime(time.Now()))

	got, err := f.calc.Calculate(f.dbc, testutil.PtrUint(target.ID))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	want := []recordView{
		{target.ID, types.JobStatusError},
		{a.ID, types.JobStatusError},
		{b.ID, types.JobStatusError},
	}
	if !reflect.DeepEqual(view(got), want) {
		t.Fatalf("Calculate: want=%v got=%v", want, view(got))
	}
}

func TestCalculateGlobalMixesHierarchiesAndStandalone(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)
	lone := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\Lone\`, past)
	b := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\B\`, past, `\Source\A\`)
	c := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\C\`, past, b.Path)
	fresh := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\Fresh\`, past, `\Source\Z\`)
	testutil.SeedJobRecord(t, f.ctx, f.db, fresh.ID, types.JobStatusCompleted, past, testutil.PtrTime(time.Now()))
	cy1 := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\Cy1\`, past, `\D\Cy2\`)
	cy2 := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\Cy2\`, past, `\D\Cy1\`)

	got, err := f.calc.Calculate(f.dbc, nil)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	want := []recordView{
		{b.ID, types.JobStatusPending},
		{c.ID, types.JobStatusPending},
		{cy1.ID, types.JobStatusError},
		{cy2.ID, types.JobStatusError},
		{lone.ID, types.JobStatusPending},
	}
	if !reflect.DeepEqual(view(got), want) {
		t.Fatalf("Calculate: want=%v got=%v", want, view(got))
	}

	if len(f.notify.batches) != 1 {
		t.Fatalf("notify: want 1 batch got %d", len(f.notify.batches))
	}
	batch := f.notify.batches[0]
	if batch.Pending != 3 || batch.Errors != 2 || len(batch.JobRecordIDs) != 5 || batch.DerivedConceptID != nil {
		t.Fatalf("notify: got %+v", batch)
	}
}

func TestCalculateUnknownConcept(t *testing.T) {
	f := newFixture(t)
	if _, err := f.calc.Calculate(f.dbc, testutil.PtrUint(404)); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Calculate: want ErrNotFound got %v", err)
	}
}

func TestCompletedRecordMakesConceptCurrent(t *testing.T) {
	f := newFixture(t)
	d1 := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\D1\`, time.Now().Add(-time.Hour))

	first, err := f.calc.Calculate(f.dbc, testutil.PtrUint(d1.ID))
	if err != nil || len(first) != 1 {
		t.Fatalf("Calculate: err=%v records=%d", err, len(first))
	}
	if _, err := f.records.Complete(f.dbc, first[0].ID, nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	again, err := f.calc.Calculate(f.dbc, testutil.PtrUint(d1.ID))
	if err != nil {
		t.Fatalf("Calculate again: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("Calculate again: want empty batch got %v", view(again))
	}
}

func TestDependencyHierarchies(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)
	b := testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\B\`, past, `\Source\A\`)
	testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\C\`, past, b.Path)
	testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\Q\`, past, `\Source\P\`)
	testutil.SeedDerivedConcept(t, f.ctx, f.db, `\D\Lone\`, past)

	got, err := f.calc.DependencyHierarchies(f.dbc)
	if err != nil {
		t.Fatalf("DependencyHierarchies: %v", err)
	}
	if len(got) != 2 || got[0].Len() != 2 || got[1].Len() != 1 {
		t.Fatalf("DependencyHierarchies: got %d hierarchies", len(got))
	}
}
