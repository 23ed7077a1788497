package services

import "errors"

// Settlement failures. All of them are caller errors and are safe to show
// to the user.
var (
	ErrInsufficientCredits = errors.New("you do not have enough credits to propose a session")
	ErrDuplicateProposal   = errors.New("you have already proposed this session")
	ErrInvalidProposal     = errors.New("a session needs a skill and a teacher other than yourself")
	ErrUserNotFound        = errors.New("user not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidState        = errors.New("session is not in a state that allows this action")
	ErrNotAuthorized       = errors.New("not authorized for this session")
	ErrAlreadyCompleted    = errors.New("you have already completed this session")
	ErrInvalidRating       = errors.New("rating must be an integer between 1 and 5")
	ErrInvalidDecision     = errors.New("decision must be accept or reject")
	ErrInvalidDispute      = errors.New("a dispute needs a reason")
)
