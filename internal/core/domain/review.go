package domain

// ReviewState tracks an in-flight /itog walk-through. It is persisted with the
// user so a restart does not lose the snapshot mid-review.
type ReviewState struct {
	Date              string `json:"date"`
	DayName           string `json:"day_name"`
	Plans             []Plan `json:"plans"`
	CurrentIndex      int    `json:"current_index"`
	Completed         []int  `json:"completed"`
	ListMessageID     int    `json:"list_message_id,omitempty"`
	QuestionMessageID int    `json:"question_message_id,omitempty"`
}

// CompletedSet returns the completed indices as a set for rendering.
func (s *ReviewState) CompletedSet() map[int]bool {
	set := make(map[int]bool, len(s.Completed))
	for _, i := range s.Completed {
		set[i] = true
	}
	return set
}

// MarkCompleted records an index once.
func (s *ReviewState) MarkCompleted(i int) {
	for _, c := range s.Completed {
		if c == i {
			return
		}
	}
	s.Completed = append(s.Completed, i)
}

// Apply removes the completed items from the user's week. The snapshot taken
// at /itog time is authoritative: items added mid-review are not touched.
func (s *ReviewState) Apply(u *User) {
	if s.DayName == "" || len(s.Plans) == 0 || len(s.Completed) == 0 {
		return
	}
	done := s.CompletedSet()
	remaining := make([]Plan, 0, len(s.Plans))
	for i, p := range s.Plans {
		if !done[i] {
			remaining = append(remaining, p)
		}
	}
	u.Plans[s.DayName] = remaining
}
