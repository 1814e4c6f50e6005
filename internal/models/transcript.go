package models

import "time"

// Exchange is one question and answer pair between the player and a role.
type Exchange struct {
	ID        int64     `db:"id"`
	RoleName  string    `db:"role_name"`
	Question  string    `db:"question"`
	Answer    string    `db:"answer"`
	CreatedAt time.Time `db:"created_at"`
}

// Verdict records the outcome of a culprit guess.
type Verdict struct {
	ID        int64     `db:"id"`
	Guess     string    `db:"guess"`
	Culprit   string    `db:"culprit"`
	Correct   bool      `db:"correct"`
	CreatedAt time.Time `db:"created_at"`
}
