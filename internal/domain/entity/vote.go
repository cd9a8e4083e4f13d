package entity

import "errors"

var (
	ErrDuplicateVote   = errors.New("caller already voted in this round")
	ErrConflictingVote = errors.New("vote does not match the pending mode")
)

// VotingRound collects votes for an operational mode change. The mode is
// applied once the number of distinct voters reaches the threshold.
type VotingRound struct {
	Mode   bool
	Voters []Identity
}

// HasVoted reports whether id is already in the round
func (r *VotingRound) HasVoted(id Identity) bool {
	for _, v := range r.Voters {
		if v == id {
			return true
		}
	}
	return false
}

// Cast records a vote. It reports whether the threshold was reached, in which
// case the round is cleared and the caller should apply r.Mode.
func (r *VotingRound) Cast(id Identity, mode bool, threshold int) (bool, error) {
	if threshold < 1 {
		threshold = 1
	}
	if r.HasVoted(id) {
		return false, ErrDuplicateVote
	}
	if len(r.Voters) > 0 && r.Mode != mode {
		return false, ErrConflictingVote
	}

	r.Mode = mode
	r.Voters = append(r.Voters, id)
	if len(r.Voters) < threshold {
		return false, nil
	}
	r.Voters = nil
	return true, nil
}
