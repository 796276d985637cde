package evaluation

import (
	"sort"
	"strings"
)

// State is an immutable snapshot of pending score edits keyed by sheet and
// criterion key. Apply never mutates its input.
type State struct {
	scores map[ScoreKey]Score
}

// Event is one mutation of the score state.
type Event interface {
	apply(scores map[ScoreKey]Score)
}

// Apply returns the state that results from applying e to s.
func Apply(s State, e Event) State {
	next := make(map[ScoreKey]Score, len(s.scores)+1)
	for k, v := range s.scores {
		next[k] = v
	}
	e.apply(next)
	return State{scores: next}
}

// ScoreSet replaces the score of one entry. Extra fields are merged in; the
// source becomes manual unless Extra names another.
type ScoreSet struct {
	Key   ScoreKey
	Value *float64
	Extra Score
}

func (e ScoreSet) apply(scores map[ScoreKey]Score) {
	current, ok := scores[e.Key]
	if !ok {
		current = Score{Sheet: e.Key.Sheet, CriterionKey: e.Key.CriterionKey}
	}
	current = mergeScore(current, e.Extra)
	current.Score = copyFloat(e.Value)
	current.Source = SourceManual
	if e.Extra.Source != "" {
		current.Source = e.Extra.Source
	}
	scores[e.Key] = current
}

type RemarksSet struct {
	Key     ScoreKey
	Remarks string
}

func (e RemarksSet) apply(scores map[ScoreKey]Score) {
	current, ok := scores[e.Key]
	if !ok {
		current = Score{Sheet: e.Key.Sheet, CriterionKey: e.Key.CriterionKey}
	}
	current.Remarks = e.Remarks
	scores[e.Key] = current
}

// ScoresUpserted writes each record over the existing entry or creates it.
// Score and remarks are replaced as sent, so a nil score or empty remarks
// clears them. Descriptive fields merge, and a previously set source
// survives unless the record carries one.
type ScoresUpserted struct {
	Records []Score
}

func (e ScoresUpserted) apply(scores map[ScoreKey]Score) {
	for _, record := range e.Records {
		if record.Sheet == "" || record.CriterionKey == "" {
			continue
		}
		key := record.Key()
		current, ok := scores[key]
		if !ok {
			current = Score{Sheet: key.Sheet, CriterionKey: key.CriterionKey}
		}
		current = mergeScore(current, record)
		current.Score = copyFloat(record.Score)
		current.Remarks = record.Remarks
		if current.Source == "" {
			current.Source = SourceManual
		}
		scores[key] = current
	}
}

// StateReset discards everything and rebuilds from persisted rows.
type StateReset struct {
	Persisted []Score
}

func (e StateReset) apply(scores map[ScoreKey]Score) {
	for k := range scores {
		delete(scores, k)
	}
	for _, record := range e.Persisted {
		if record.Sheet == "" || record.CriterionKey == "" {
			continue
		}
		record.Score = copyFloat(record.Score)
		record.MaxScore = copyFloat(record.MaxScore)
		record.Weight = copyFloat(record.Weight)
		scores[record.Key()] = record
	}
}

type ScoreDeleted struct {
	Key ScoreKey
}

func (e ScoreDeleted) apply(scores map[ScoreKey]Score) {
	delete(scores, e.Key)
}

func mergeScore(current, patch Score) Score {
	if patch.Category != "" {
		current.Category = patch.Category
	}
	if patch.CriterionLabel != "" {
		current.CriterionLabel = patch.CriterionLabel
	}
	if patch.MaxScore != nil {
		current.MaxScore = copyFloat(patch.MaxScore)
	}
	if patch.Weight != nil {
		current.Weight = copyFloat(patch.Weight)
	}
	if patch.Remarks != "" {
		current.Remarks = patch.Remarks
	}
	if patch.Source != "" {
		current.Source = patch.Source
	}
	if patch.SourceRefID != "" {
		current.SourceRefID = patch.SourceRefID
	}
	if patch.Status != "" {
		current.Status = patch.Status
	}
	if !patch.UpdatedAt.IsZero() {
		current.UpdatedAt = patch.UpdatedAt
	}
	return current
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// ScoreStore holds the working set of an evaluation's scores. Each method
// dispatches an Event through Apply.
type ScoreStore struct {
	state State
}

func NewScoreStore(persisted []Score) *ScoreStore {
	s := &ScoreStore{}
	s.InitFrom(persisted)
	return s
}

func (s *ScoreStore) Dispatch(e Event) {
	s.state = Apply(s.state, e)
}

func (s *ScoreStore) State() State {
	return s.state
}

func (s *ScoreStore) Get(sheet, key string) (float64, bool) {
	record, ok := s.state.scores[ScoreKey{Sheet: sheet, CriterionKey: key}]
	if !ok || record.Score == nil {
		return 0, false
	}
	return *record.Score, true
}

func (s *ScoreStore) Record(sheet, key string) (Score, bool) {
	record, ok := s.state.scores[ScoreKey{Sheet: sheet, CriterionKey: key}]
	return record, ok
}

func (s *ScoreStore) Remarks(sheet, key string) string {
	return s.state.scores[ScoreKey{Sheet: sheet, CriterionKey: key}].Remarks
}

func (s *ScoreStore) SetScore(sheet, key string, value *float64, extra ...Score) {
	var merged Score
	for _, e := range extra {
		merged = mergeScore(merged, e)
	}
	s.Dispatch(ScoreSet{Key: ScoreKey{Sheet: sheet, CriterionKey: key}, Value: value, Extra: merged})
}

func (s *ScoreStore) SetRemarks(sheet, key, text string) {
	s.Dispatch(RemarksSet{Key: ScoreKey{Sheet: sheet, CriterionKey: key}, Remarks: text})
}

func (s *ScoreStore) UpsertMany(records []Score) {
	s.Dispatch(ScoresUpserted{Records: records})
}

func (s *ScoreStore) InitFrom(persisted []Score) {
	s.Dispatch(StateReset{Persisted: persisted})
}

func (s *ScoreStore) Delete(sheet, key string) {
	s.Dispatch(ScoreDeleted{Key: ScoreKey{Sheet: sheet, CriterionKey: key}})
}

func (s *ScoreStore) Len() int {
	return len(s.state.scores)
}

// Entries returns the records of one sheet, ordered by criterion key.
func (s *ScoreStore) Entries(sheet string) []Score {
	var out []Score
	for k, v := range s.state.scores {
		if k.Sheet == sheet {
			out = append(out, v)
		}
	}
	sortScores(out)
	return out
}

// Pending returns every record ordered by sheet then criterion key.
func (s *ScoreStore) Pending() []Score {
	out := make([]Score, 0, len(s.state.scores))
	for _, v := range s.state.scores {
		out = append(out, v)
	}
	sortScores(out)
	return out
}

func sortScores(scores []Score) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Sheet != scores[j].Sheet {
			return scores[i].Sheet < scores[j].Sheet
		}
		return strings.Compare(scores[i].CriterionKey, scores[j].CriterionKey) < 0
	})
}
