package evaluation

import "testing"

func TestApplyDoesNotMutateInput(t *testing.T) {
	before := Apply(State{}, ScoreSet{Key: ScoreKey{Sheet: SheetBehavioral, CriterionKey: "b1_communication"}, Value: floatPtr(3)})
	after := Apply(before, ScoreDeleted{Key: ScoreKey{Sheet: SheetBehavioral, CriterionKey: "b1_communication"}})
	if len(before.scores) != 1 {
		t.Fatalf("expected original state to keep its entry, got %d entries", len(before.scores))
	}
	if len(after.scores) != 0 {
		t.Fatalf("expected derived state to be empty, got %d entries", len(after.scores))
	}
}

func TestSetScoreDefaultsToManual(t *testing.T) {
	store := NewScoreStore([]Score{{Sheet: SheetQuizGrades, CriterionKey: "quiz-1", Score: floatPtr(4), Source: SourceAutoQuiz}})
	store.SetScore(SheetQuizGrades, "quiz-1", floatPtr(6))

	record, ok := store.Record(SheetQuizGrades, "quiz-1")
	if !ok {
		t.Fatalf("expected record to exist")
	}
	if record.Source != SourceManual {
		t.Fatalf("expected manual source after edit, got %q", record.Source)
	}
	if v, _ := store.Get(SheetQuizGrades, "quiz-1"); v != 6 {
		t.Fatalf("expected score 6, got %v", v)
	}

	store.SetScore(SheetQuizGrades, "quiz-2", floatPtr(1), Score{Source: SourceAutoQuiz})
	if record, _ := store.Record(SheetQuizGrades, "quiz-2"); record.Source != SourceAutoQuiz {
		t.Fatalf("expected explicit source to win, got %q", record.Source)
	}
}

func TestUpsertManyIsIdempotent(t *testing.T) {
	records := []Score{
		{Sheet: SheetTechnical, CriterionKey: "c1_technical_knowledge", Score: floatPtr(30), MaxScore: floatPtr(40)},
		{Sheet: SheetTechnical, CriterionKey: "c2_problem_solving", Score: floatPtr(20), Remarks: "solid"},
	}
	once := NewScoreStore(nil)
	once.UpsertMany(records)
	twice := NewScoreStore(nil)
	twice.UpsertMany(records)
	twice.UpsertMany(records)

	a, b := once.Pending(), twice.Pending()
	if len(a) != len(b) {
		t.Fatalf("expected %d entries, got %d", len(a), len(b))
	}
	for i := range a {
		if a[i].CriterionKey != b[i].CriterionKey || *a[i].Score != *b[i].Score || a[i].Remarks != b[i].Remarks || a[i].Source != b[i].Source {
			t.Fatalf("entry %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestUpsertManyPreservesSource(t *testing.T) {
	store := NewScoreStore([]Score{{Sheet: SheetQuizGrades, CriterionKey: "quiz-1", Score: floatPtr(7), MaxScore: floatPtr(10), Source: SourceAutoQuiz}})
	store.UpsertMany([]Score{{Sheet: SheetQuizGrades, CriterionKey: "quiz-1", Score: floatPtr(8), Remarks: "retake"}})

	record, _ := store.Record(SheetQuizGrades, "quiz-1")
	if record.Source != SourceAutoQuiz {
		t.Fatalf("expected source to survive, got %q", record.Source)
	}
	if record.MaxScore == nil || *record.MaxScore != 10 {
		t.Fatalf("expected max score to survive a record without one, got %v", record.MaxScore)
	}
	if record.Score == nil || *record.Score != 8 || record.Remarks != "retake" {
		t.Fatalf("expected score and remarks from the record, got %v %q", record.Score, record.Remarks)
	}

	store.UpsertMany([]Score{{Sheet: SheetBehavioral, CriterionKey: "b2_teamwork", Score: floatPtr(2)}})
	if record, _ := store.Record(SheetBehavioral, "b2_teamwork"); record.Source != SourceManual {
		t.Fatalf("expected new records to default to manual, got %q", record.Source)
	}
}

func TestUpsertManyClearsScoreAndRemarks(t *testing.T) {
	store := NewScoreStore([]Score{{Sheet: SheetBehavioral, CriterionKey: "b1_communication", Score: floatPtr(4), Remarks: "late twice", Source: SourceManual}})
	store.UpsertMany([]Score{{Sheet: SheetBehavioral, CriterionKey: "b1_communication"}})

	record, ok := store.Record(SheetBehavioral, "b1_communication")
	if !ok {
		t.Fatalf("expected record to remain")
	}
	if record.Score != nil {
		t.Fatalf("expected score to be cleared, got %v", *record.Score)
	}
	if record.Remarks != "" {
		t.Fatalf("expected remarks to be cleared, got %q", record.Remarks)
	}
	if _, ok := store.Get(SheetBehavioral, "b1_communication"); ok {
		t.Fatalf("expected Get to report no score")
	}
}

func TestInitFromDiscardsPendingEdits(t *testing.T) {
	persisted := []Score{{Sheet: SheetBehavioral, CriterionKey: "b1_communication", Score: floatPtr(10)}}
	store := NewScoreStore(persisted)
	store.SetScore(SheetBehavioral, "b1_communication", floatPtr(1))
	store.SetRemarks(SheetBehavioral, "b3_initiative", "pending")

	store.InitFrom(persisted)
	if store.Len() != 1 {
		t.Fatalf("expected 1 entry after reset, got %d", store.Len())
	}
	if v, _ := store.Get(SheetBehavioral, "b1_communication"); v != 10 {
		t.Fatalf("expected persisted score 10, got %v", v)
	}
	if store.Remarks(SheetBehavioral, "b3_initiative") != "" {
		t.Fatalf("expected pending remarks to be gone")
	}
}

func TestInitFromCopiesPersistedValues(t *testing.T) {
	persisted := []Score{{Sheet: SheetBehavioral, CriterionKey: "b1_communication", Score: floatPtr(10)}}
	store := NewScoreStore(persisted)
	*persisted[0].Score = 99
	if v, _ := store.Get(SheetBehavioral, "b1_communication"); v != 10 {
		t.Fatalf("expected store to own its values, got %v", v)
	}
}

func TestEntriesFiltersAndSorts(t *testing.T) {
	store := NewScoreStore([]Score{
		{Sheet: SheetScoreboard, CriterionKey: "b"},
		{Sheet: SheetQuizGrades, CriterionKey: "q"},
		{Sheet: SheetScoreboard, CriterionKey: "a"},
		{Sheet: "", CriterionKey: "ignored"},
	})
	entries := store.Entries(SheetScoreboard)
	if len(entries) != 2 || entries[0].CriterionKey != "a" || entries[1].CriterionKey != "b" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	store.Delete(SheetScoreboard, "a")
	if _, ok := store.Record(SheetScoreboard, "a"); ok {
		t.Fatalf("expected deleted entry to be gone")
	}
	if _, ok := store.Get(SheetScoreboard, "b"); ok {
		t.Fatalf("expected entry without a score to report missing")
	}
}
