package models

// WaitlistEntry is one position in a class's waitlist. Rank is dense,
// 1-based and strictly increasing with queue age.
type WaitlistEntry struct {
	ClassID   int64 `json:"class_id"`
	StudentID int64 `json:"student_id"`
	Rank      int   `json:"rank"`
}

// StudentWaitlist is the mirrored per-student view of a waitlist entry.
type StudentWaitlist struct {
	ClassID int64 `json:"class_id"`
	Rank    int   `json:"rank"`
}

// ClassWaitlistRow enriches a waitlist entry with the waiting student, for
// instructor views.
type ClassWaitlistRow struct {
	Student User `json:"student"`
	Rank    int  `json:"rank"`
}
