package services

import (
	"github.com/brainbarter/brain_barter/models"
	"github.com/google/uuid"
)

// PotentialMatch is a candidate partner with the skills that make the
// exchange work in both directions.
type PotentialMatch struct {
	models.PublicUser
	MatchingSkillsTheyHave []string `json:"matching_skills_they_have"`
	MatchingSkillsIHave    []string `json:"matching_skills_i_have"`
	IsReciprocalMatch      bool     `json:"is_reciprocal_match"`
}

// PotentialMatches keeps the candidates who teach something current wants
// and want something current teaches, skipping current itself and anyone
// in alreadyMatched.
func PotentialMatches(current *models.User, candidates []models.User, alreadyMatched map[uuid.UUID]bool) []PotentialMatch {
	wanted := toSet(current.SkillsWanted)

	matches := make([]PotentialMatch, 0)
	for i := range candidates {
		candidate := &candidates[i]
		if candidate.ID == current.ID || alreadyMatched[candidate.ID] {
			continue
		}

		theyHave := intersect(candidate.Skills, wanted)
		iHave := intersect(current.Skills, toSet(candidate.SkillsWanted))
		if len(theyHave) == 0 || len(iHave) == 0 {
			continue
		}

		matches = append(matches, PotentialMatch{
			PublicUser:             candidate.Public(),
			MatchingSkillsTheyHave: theyHave,
			MatchingSkillsIHave:    iHave,
			IsReciprocalMatch:      true,
		})
	}
	return matches
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// intersect keeps the order of values.
func intersect(values []string, set map[string]struct{}) []string {
	var out []string
	for _, v := range values {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
